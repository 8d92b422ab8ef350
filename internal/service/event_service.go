// Package service composes the stores into the read and create operations
// exposed over HTTP: event creation, single event lookup, upcoming listings
// and attendee listings.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Priya8975/event-registration-service/internal/clock"
	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/metrics"
	"github.com/Priya8975/event-registration-service/internal/registration"
	"github.com/Priya8975/event-registration-service/internal/timezone"
)

const tracerName = "github.com/Priya8975/event-registration-service/internal/service"

type Repository interface {
	CreateEvent(ctx context.Context, ne domain.NewEvent) (*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListUpcomingEvents(ctx context.Context, now time.Time, page domain.Page) ([]domain.Event, int, error)
	ListAttendeesByEvent(ctx context.Context, eventID string, page domain.Page) ([]domain.Attendee, int, error)
}

// Cache stores serialized listings. Invalidate must make every entry stale.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context) error
}

type CreateEventInput struct {
	Name        string
	Location    *string
	StartTime   string
	EndTime     string
	Timezone    string
	MaxCapacity *int
}

type ListEventsInput struct {
	Page     int
	PerPage  int
	Timezone string
}

type ListAttendeesInput struct {
	EventID string
	Page    int
	PerPage int
}

type Option func(*EventService)

func WithCache(c Cache) Option {
	return func(s *EventService) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *EventService) { s.metrics = m }
}

func WithPageLimits(l domain.PageLimits) Option {
	return func(s *EventService) { s.limits = l }
}

type EventService struct {
	repo       Repository
	normalizer *timezone.Normalizer
	clock      clock.Clock
	logger     *slog.Logger
	limits     domain.PageLimits
	cache      Cache
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func NewEventService(repo Repository, normalizer *timezone.Normalizer, clk clock.Clock, logger *slog.Logger, opts ...Option) *EventService {
	s := &EventService{
		repo:       repo,
		normalizer: normalizer,
		clock:      clk,
		logger:     logger,
		limits:     domain.DefaultPageLimits,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent normalizes the local times to UTC and stores the event.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*EventRecord, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateEvent")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	location := trimOptional(in.Location)
	if err := validation.Validate(name, validation.Required, validation.Length(1, 255)); err != nil {
		return nil, domain.Invalid("name: %s", err.Error())
	}
	if location != nil {
		if err := validation.Validate(*location, validation.Length(0, 255)); err != nil {
			return nil, domain.Invalid("location: %s", err.Error())
		}
	}

	if in.MaxCapacity != nil && *in.MaxCapacity < 1 {
		return nil, domain.Invalid("max_capacity must be at least 1")
	}

	start, end, err := s.normalizer.Normalize(in.StartTime, in.EndTime, in.Timezone)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.CreateEvent(ctx, domain.NewEvent{
		ID:           uuid.NewString(),
		Name:         name,
		Location:     location,
		StartTimeUTC: start,
		EndTimeUTC:   end,
		MaxCapacity:  in.MaxCapacity,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("event.id", event.ID))

	s.metrics.IncrementEventsCreated()
	s.invalidate(ctx)
	s.logger.Info("event created",
		"event_id", event.ID,
		"start_time_utc", timezone.FormatUTC(event.StartTimeUTC),
		"max_capacity", event.MaxCapacity,
	)

	rec, err := NewEventRecord(event, "")
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetEvent returns one event, localized to tz when tz is not empty.
func (s *EventService) GetEvent(ctx context.Context, id, tz string) (*EventRecord, error) {
	if err := validateTimezone(tz); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := NewEventRecord(event, tz)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListUpcomingEvents returns events that have not ended, earliest first.
// Listings are served from the cache when one is configured.
func (s *EventService) ListUpcomingEvents(ctx context.Context, in ListEventsInput) (*EventPage, error) {
	if err := validateTimezone(in.Timezone); err != nil {
		return nil, err
	}
	page := s.limits.NewPage(in.Page, in.PerPage)
	tz := strings.TrimSpace(in.Timezone)

	if s.cache == nil {
		return s.loadUpcoming(ctx, page, tz)
	}

	key := fmt.Sprintf("page=%d:per_page=%d:tz=%s", page.Number, page.Size, tz)
	data, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		result, err := s.loadUpcoming(ctx, page, tz)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result EventPage
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cached listing: %w", err)
	}
	return &result, nil
}

func (s *EventService) loadUpcoming(ctx context.Context, page domain.Page, tz string) (*EventPage, error) {
	events, total, err := s.repo.ListUpcomingEvents(ctx, s.clock.Now(), page)
	if err != nil {
		return nil, err
	}

	data := make([]EventRecord, 0, len(events))
	for i := range events {
		rec, err := NewEventRecord(&events[i], tz)
		if err != nil {
			return nil, err
		}
		data = append(data, rec)
	}
	return &EventPage{Data: data, Meta: page.Meta(total)}, nil
}

// ListAttendees returns one page of an event's attendees in registration order.
func (s *EventService) ListAttendees(ctx context.Context, in ListAttendeesInput) (*AttendeePage, error) {
	if _, err := uuid.Parse(in.EventID); err != nil {
		return nil, domain.ErrNotFound
	}
	if _, err := s.repo.GetEvent(ctx, in.EventID); err != nil {
		return nil, err
	}

	page := s.limits.NewPage(in.Page, in.PerPage)
	attendees, total, err := s.repo.ListAttendeesByEvent(ctx, in.EventID, page)
	if err != nil {
		return nil, err
	}

	data := make([]AttendeeRecord, 0, len(attendees))
	for i := range attendees {
		data = append(data, NewAttendeeRecord(&attendees[i]))
	}
	return &AttendeePage{Data: data, Meta: page.Meta(total)}, nil
}

// Registered implements registration.Listener so new registrations refresh
// the remaining capacity shown in listings.
func (s *EventService) Registered(ctx context.Context, _ registration.Update) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("listing cache invalidation failed", "error", err)
	}
}

func validateTimezone(tz string) error {
	if strings.TrimSpace(tz) == "" {
		return nil
	}
	_, err := timezone.Load(tz)
	return err
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
