package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Priya8975/event-registration-service/internal/domain"
)

const (
	constraintTimeRange        = "events_time_range"
	constraintCapacityPositive = "events_capacity_positive"
)

const eventColumns = `e.id, e.name, e.location, e.start_time_utc, e.end_time_utc, e.max_capacity, e.created_at, e.updated_at`

// CreateEvent inserts a new event. The time range is checked before the
// insert and again by the events_time_range constraint.
func (s *PostgresStore) CreateEvent(ctx context.Context, ne domain.NewEvent) (*domain.Event, error) {
	if err := ne.Validate(); err != nil {
		return nil, err
	}

	var event domain.Event
	err := scanEvent(s.queryRow(ctx, `
		INSERT INTO events AS e (id, name, location, start_time_utc, end_time_utc, max_capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventColumns,
		ne.ID, ne.Name, ne.Location, ne.StartTimeUTC.UTC(), ne.EndTimeUTC.UTC(), ne.MaxCapacity,
	), &event)
	if err != nil {
		return nil, createEventError(err)
	}
	return &event, nil
}

func createEventError(err error) error {
	switch {
	case violatesConstraint(err, codeCheckViolation, constraintTimeRange):
		return domain.ErrInvalidTimeRange
	case violatesConstraint(err, codeCheckViolation, constraintCapacityPositive):
		return domain.Invalid("max_capacity must be at least 1")
	}
	return classify("inserting event", err)
}

// GetEvent returns an event together with its current attendee count.
func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	var event domain.Event
	err := scanEvent(s.queryRow(ctx, `
		SELECT `+eventColumns+`,
			(SELECT COUNT(*) FROM attendees a WHERE a.event_id = e.id) AS attendee_count
		FROM events e WHERE e.id = $1
	`, id), &event, &event.AttendeeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, codeInvalidTextRep) {
			return nil, domain.ErrNotFound
		}
		return nil, classify("querying event", err)
	}
	return &event, nil
}

// ListUpcomingEvents returns events that have not ended yet, ordered by start
// time, along with the total number of such events.
func (s *PostgresStore) ListUpcomingEvents(ctx context.Context, now time.Time, page domain.Page) ([]domain.Event, int, error) {
	var total int
	if err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE end_time_utc > $1`, now.UTC(),
	).Scan(&total); err != nil {
		return nil, 0, classify("counting upcoming events", err)
	}

	rows, err := s.query(ctx, `
		SELECT `+eventColumns+`, COALESCE(c.attendee_count, 0)
		FROM events e
		LEFT JOIN (
			SELECT event_id, COUNT(*) AS attendee_count FROM attendees GROUP BY event_id
		) c ON c.event_id = e.id
		WHERE e.end_time_utc > $1
		ORDER BY e.start_time_utc ASC, e.id ASC
		LIMIT $2 OFFSET $3
	`, now.UTC(), page.Size, page.Offset())
	if err != nil {
		return nil, 0, classify("querying upcoming events", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := scanEvent(rows, &e, &e.AttendeeCount); err != nil {
			return nil, 0, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("iterating upcoming events", err)
	}

	return events, total, nil
}

// LockEventForRegistration takes a row lock on the event for the rest of the
// surrounding transaction. Concurrent registrations for the same event queue
// behind it; other events are unaffected.
func (s *PostgresStore) LockEventForRegistration(ctx context.Context, id string) (*domain.Event, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return nil, errNoTransaction
	}

	var event domain.Event
	err := scanEvent(tx.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE
	`, id), &event)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, codeInvalidTextRep) {
			return nil, domain.ErrNotFound
		}
		return nil, classify("locking event", err)
	}
	return &event, nil
}

// DeleteEvent removes an event; its attendees go with it.
func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if hasCode(err, codeInvalidTextRep) {
			return domain.ErrNotFound
		}
		return classify("deleting event", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row, e *domain.Event, extra ...any) error {
	dest := append([]any{
		&e.ID, &e.Name, &e.Location, &e.StartTimeUTC, &e.EndTimeUTC,
		&e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	e.StartTimeUTC = e.StartTimeUTC.UTC()
	e.EndTimeUTC = e.EndTimeUTC.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return nil
}
