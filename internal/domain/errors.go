package domain

import (
	"errors"
	"fmt"
)

// Domain errors are terminal for the request that produced them. ErrTransient
// is the only kind a caller may retry.
var (
	ErrInvalidTimeRange  = errors.New("end_time must be after start_time")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrCapacityFull      = errors.New("event is at full capacity")
	ErrDuplicateAttendee = errors.New("attendee already registered for this event")
	ErrTransient         = errors.New("temporary store failure")
)

// Invalid wraps ErrInvalidInput with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err is worth retrying by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
