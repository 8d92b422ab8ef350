package domain

import (
	"time"
)

// Event is a published event with an absolute time range and an optional
// attendee cap. MaxCapacity is nil when the event is unbounded.
type Event struct {
	ID           string
	Name         string
	Location     *string
	StartTimeUTC time.Time
	EndTimeUTC   time.Time
	MaxCapacity  *int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// AttendeeCount is populated by read paths that aggregate registrations.
	AttendeeCount int
}

// NewEvent holds the validated fields needed to insert an event.
type NewEvent struct {
	ID           string
	Name         string
	Location     *string
	StartTimeUTC time.Time
	EndTimeUTC   time.Time
	MaxCapacity  *int
}

// Validate checks the invariants every stored event must satisfy.
func (e NewEvent) Validate() error {
	if !e.EndTimeUTC.After(e.StartTimeUTC) {
		return ErrInvalidTimeRange
	}
	if e.MaxCapacity != nil && *e.MaxCapacity < 1 {
		return Invalid("max_capacity must be at least 1")
	}
	return nil
}

// HasCapacityFor reports whether one more attendee fits given the current count.
func (e *Event) HasCapacityFor(count int) bool {
	if e.MaxCapacity == nil {
		return true
	}
	return count < *e.MaxCapacity
}

// RemainingCapacity returns max(capacity-count, 0), or nil for unbounded events.
func (e *Event) RemainingCapacity(count int) *int {
	if e.MaxCapacity == nil {
		return nil
	}
	remaining := max(*e.MaxCapacity-count, 0)
	return &remaining
}
