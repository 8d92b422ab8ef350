package service

import (
	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/timezone"
)

// EventRecord is the external shape of an event. Timestamps are ISO-8601
// UTC with a Z suffix; the local fields are present only when a timezone was
// requested.
type EventRecord struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Location          *string `json:"location"`
	StartTimeUTC      string  `json:"start_time_utc"`
	EndTimeUTC        string  `json:"end_time_utc"`
	MaxCapacity       *int    `json:"max_capacity"`
	RemainingCapacity *int    `json:"remaining_capacity"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	StartTimeLocal    string  `json:"start_time_local,omitempty"`
	EndTimeLocal      string  `json:"end_time_local,omitempty"`
}

type AttendeeRecord struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

type EventPage struct {
	Data []EventRecord  `json:"data"`
	Meta domain.PageMeta `json:"meta"`
}

type AttendeePage struct {
	Data []AttendeeRecord `json:"data"`
	Meta domain.PageMeta  `json:"meta"`
}

// NewEventRecord shapes e for output. tz may be empty, in which case no local
// fields are rendered.
func NewEventRecord(e *domain.Event, tz string) (EventRecord, error) {
	rec := EventRecord{
		ID:                e.ID,
		Name:              e.Name,
		Location:          e.Location,
		StartTimeUTC:      timezone.FormatUTC(e.StartTimeUTC),
		EndTimeUTC:        timezone.FormatUTC(e.EndTimeUTC),
		MaxCapacity:       e.MaxCapacity,
		RemainingCapacity: e.RemainingCapacity(e.AttendeeCount),
		CreatedAt:         timezone.FormatUTC(e.CreatedAt),
		UpdatedAt:         timezone.FormatUTC(e.UpdatedAt),
	}
	if tz == "" {
		return rec, nil
	}

	var err error
	if rec.StartTimeLocal, err = timezone.ToLocal(e.StartTimeUTC, tz); err != nil {
		return EventRecord{}, err
	}
	if rec.EndTimeLocal, err = timezone.ToLocal(e.EndTimeUTC, tz); err != nil {
		return EventRecord{}, err
	}
	return rec, nil
}

func NewAttendeeRecord(a *domain.Attendee) AttendeeRecord {
	return AttendeeRecord{
		ID:           a.ID,
		EventID:      a.EventID,
		Name:         a.Name,
		Email:        a.Email,
		RegisteredAt: timezone.FormatUTC(a.RegisteredAt),
	}
}
