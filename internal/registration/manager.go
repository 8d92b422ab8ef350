// Package registration enforces the two registration invariants: no attendee
// registers twice for the same event, and no event takes more attendees than
// its capacity. Both checks run under a row lock on the event.
package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Priya8975/event-registration-service/internal/clock"
	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/metrics"
)

const tracerName = "github.com/Priya8975/event-registration-service/internal/registration"

// Repository is the storage the manager needs. LockEventForRegistration and
// the attendee calls must run inside the context handed to fn by WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockEventForRegistration(ctx context.Context, eventID string) (*domain.Event, error)
	CountAttendeesByEvent(ctx context.Context, eventID string) (int, error)
	AttendeeExists(ctx context.Context, eventID, normalizedEmail string) (bool, error)
	InsertAttendee(ctx context.Context, na domain.NewAttendee) (*domain.Attendee, error)
}

// Update describes a committed registration.
type Update struct {
	Event         *domain.Event
	Attendee      *domain.Attendee
	AttendeeCount int
}

// RemainingCapacity is nil for unbounded events.
func (u Update) RemainingCapacity() *int {
	return u.Event.RemainingCapacity(u.AttendeeCount)
}

// Listener is notified after a registration commits. Errors are logged and
// never change the outcome of the registration.
type Listener interface {
	Registered(ctx context.Context, u Update) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, u Update) error

func (f ListenerFunc) Registered(ctx context.Context, u Update) error {
	return f(ctx, u)
}

type Option func(*Manager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mg *Manager) { mg.metrics = m }
}

func WithListeners(ls ...Listener) Option {
	return func(mg *Manager) { mg.listeners = append(mg.listeners, ls...) }
}

func WithTracer(t trace.Tracer) Option {
	return func(mg *Manager) { mg.tracer = t }
}

type Manager struct {
	repo      Repository
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
	listeners []Listener
	tracer    trace.Tracer
}

func NewManager(repo Repository, clk clock.Clock, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		clock:  clk,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds an attendee to an event. The capacity check runs before the
// duplicate check, so a full event reports ErrCapacityFull even for an email
// that is already registered. Nothing is retried here; ErrTransient is
// returned to the caller as is.
func (m *Manager) Register(ctx context.Context, eventID, name, email string) (*domain.Attendee, error) {
	ctx, span := m.tracer.Start(ctx, "registration.Register",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	start := time.Now()
	attendee, update, err := m.register(ctx, eventID, name, email)
	outcome := outcomeOf(err)
	m.metrics.ObserveRegistration(outcome, time.Since(start))
	span.SetAttributes(attribute.String("registration.outcome", outcome))

	if err != nil {
		if outcome == metrics.OutcomeTransient || outcome == metrics.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			m.logger.Warn("registration failed",
				"event_id", eventID,
				"outcome", outcome,
				"error", err,
			)
		} else {
			m.logger.Debug("registration rejected",
				"event_id", eventID,
				"outcome", outcome,
			)
		}
		return nil, err
	}

	m.logger.Info("attendee registered",
		"event_id", eventID,
		"attendee_id", attendee.ID,
		"attendee_count", update.AttendeeCount,
	)
	m.notify(ctx, update)
	return attendee, nil
}

func (m *Manager) register(ctx context.Context, eventID, name, email string) (*domain.Attendee, Update, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateInput(name, email); err != nil {
		return nil, Update{}, err
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, Update{}, domain.ErrNotFound
	}
	normalized := domain.NormalizeEmail(email)

	var (
		attendee *domain.Attendee
		update   Update
	)
	err := m.repo.WithTx(ctx, func(ctx context.Context) error {
		event, err := m.repo.LockEventForRegistration(ctx, eventID)
		if err != nil {
			return err
		}

		count, err := m.repo.CountAttendeesByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.HasCapacityFor(count) {
			return domain.ErrCapacityFull
		}

		exists, err := m.repo.AttendeeExists(ctx, eventID, normalized)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateAttendee
		}

		attendee, err = m.repo.InsertAttendee(ctx, domain.NewAttendee{
			ID:              uuid.NewString(),
			EventID:         eventID,
			Name:            name,
			Email:           email,
			NormalizedEmail: normalized,
			RegisteredAt:    m.clock.Now().UTC(),
		})
		if err != nil {
			return err
		}

		event.AttendeeCount = count + 1
		update = Update{Event: event, Attendee: attendee, AttendeeCount: count + 1}
		return nil
	})
	if err != nil {
		return nil, Update{}, err
	}
	return attendee, update, nil
}

func (m *Manager) notify(ctx context.Context, u Update) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range m.listeners {
		if err := l.Registered(ctx, u); err != nil {
			m.logger.Error("registration listener failed",
				"event_id", u.Event.ID,
				"error", err,
			)
		}
	}
}

func validateInput(name, email string) error {
	if err := validation.Validate(name, validation.Required, validation.Length(1, 255)); err != nil {
		return domain.Invalid("name: %s", err.Error())
	}
	if err := validation.Validate(email, validation.Required, validation.Length(1, 255), is.EmailFormat); err != nil {
		return domain.Invalid("email: %s", err.Error())
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrCapacityFull):
		return metrics.OutcomeCapacityFull
	case errors.Is(err, domain.ErrDuplicateAttendee):
		return metrics.OutcomeDuplicate
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, domain.ErrTransient):
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomeError
	}
}
