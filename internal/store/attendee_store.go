package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Priya8975/event-registration-service/internal/domain"
)

// InsertAttendee stores a registration. It is called only from inside the
// registration transaction, after the event row has been locked.
func (s *PostgresStore) InsertAttendee(ctx context.Context, na domain.NewAttendee) (*domain.Attendee, error) {
	var a domain.Attendee
	err := scanAttendee(s.queryRow(ctx, `
		INSERT INTO attendees (id, event_id, name, email, email_normalized, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, event_id, name, email, registered_at
	`, na.ID, na.EventID, na.Name, na.Email, na.NormalizedEmail, na.RegisteredAt.UTC()), &a)
	if err != nil {
		switch {
		case hasCode(err, codeUniqueViolation):
			return nil, domain.ErrDuplicateAttendee
		case hasCode(err, codeForeignKeyViolation), hasCode(err, codeInvalidTextRep):
			return nil, domain.ErrNotFound
		}
		return nil, classify("inserting attendee", err)
	}
	return &a, nil
}

func (s *PostgresStore) CountAttendeesByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID,
	).Scan(&count); err != nil {
		if hasCode(err, codeInvalidTextRep) {
			return 0, domain.ErrNotFound
		}
		return 0, classify("counting attendees", err)
	}
	return count, nil
}

// AttendeeExists matches on the normalized email.
func (s *PostgresStore) AttendeeExists(ctx context.Context, eventID, normalizedEmail string) (bool, error) {
	var exists bool
	if err := s.queryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM attendees WHERE event_id = $1 AND email_normalized = $2)
	`, eventID, normalizedEmail).Scan(&exists); err != nil {
		if hasCode(err, codeInvalidTextRep) {
			return false, domain.ErrNotFound
		}
		return false, classify("checking attendee", err)
	}
	return exists, nil
}

// ListAttendeesByEvent returns one page of attendees in registration order
// and the total for the event.
func (s *PostgresStore) ListAttendeesByEvent(ctx context.Context, eventID string, page domain.Page) ([]domain.Attendee, int, error) {
	total, err := s.CountAttendeesByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.query(ctx, `
		SELECT id, event_id, name, email, registered_at
		FROM attendees
		WHERE event_id = $1
		ORDER BY registered_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, eventID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, classify("querying attendees", err)
	}
	defer rows.Close()

	attendees := []domain.Attendee{}
	for rows.Next() {
		var a domain.Attendee
		if err := scanAttendee(rows, &a); err != nil {
			return nil, 0, fmt.Errorf("scanning attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("iterating attendees", err)
	}

	return attendees, total, nil
}

func scanAttendee(row pgx.Row, a *domain.Attendee) error {
	if err := row.Scan(&a.ID, &a.EventID, &a.Name, &a.Email, &a.RegisteredAt); err != nil {
		return err
	}
	a.RegisteredAt = a.RegisteredAt.UTC()
	return nil
}
