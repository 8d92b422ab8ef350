package domain

import (
	"strings"
	"time"
)

type Attendee struct {
	ID           string
	EventID      string
	Name         string
	Email        string
	RegisteredAt time.Time
}

type NewAttendee struct {
	ID              string
	EventID         string
	Name            string
	Email           string
	NormalizedEmail string
	RegisteredAt    time.Time
}

// NormalizeEmail trims and lower-cases an address for duplicate detection.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
