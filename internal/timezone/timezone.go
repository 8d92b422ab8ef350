// Package timezone converts caller supplied wall-clock text into absolute UTC
// instants and renders stored instants back into a display timezone.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // embed the IANA database so conversions do not depend on the host

	"github.com/Priya8975/event-registration-service/internal/domain"
)

// DefaultZone is used when the caller does not name a timezone.
const DefaultZone = "Asia/Kolkata"

const (
	// UTCLayout renders instants as ISO-8601 with a Z suffix.
	UTCLayout = "2006-01-02T15:04:05Z"
	// LocalLayout renders instants as ISO-8601 with a numeric offset.
	LocalLayout = "2006-01-02T15:04:05-07:00"
)

// wallClockLayouts are interpreted in the requested zone.
var wallClockLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalizer converts between wall-clock text and UTC instants.
type Normalizer struct {
	defaultZone string
}

// NewNormalizer returns a Normalizer that falls back to defaultZone, or to
// DefaultZone when defaultZone is empty.
func NewNormalizer(defaultZone string) (*Normalizer, error) {
	if defaultZone == "" {
		defaultZone = DefaultZone
	}
	if _, err := Load(defaultZone); err != nil {
		return nil, err
	}
	return &Normalizer{defaultZone: defaultZone}, nil
}

// DefaultZone returns the zone used for empty timezone names.
func (n *Normalizer) DefaultZone() string {
	return n.defaultZone
}

// Normalize parses start and end as wall-clock time in tzName and returns the
// UTC instants. It fails with domain.ErrInvalidTimeRange when end <= start.
func (n *Normalizer) Normalize(localStart, localEnd, tzName string) (time.Time, time.Time, error) {
	if strings.TrimSpace(tzName) == "" {
		tzName = n.defaultZone
	}
	loc, err := Load(tzName)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start, err := parse(localStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("start_time: %v", err)
	}
	end, err := parse(localEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("end_time: %v", err)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidTimeRange
	}
	return start, end, nil
}

// Load resolves an IANA timezone name.
func Load(tzName string) (*time.Location, error) {
	name := strings.TrimSpace(tzName)
	if name == "" {
		return nil, domain.Invalid("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.Invalid("unknown timezone %q", name)
	}
	return loc, nil
}

// ToLocal renders t in tzName.
func ToLocal(t time.Time, tzName string) (string, error) {
	loc, err := Load(tzName)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(LocalLayout), nil
}

// FormatUTC renders t in UTC with a Z suffix.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(UTCLayout)
}

// parse accepts wall-clock layouts in loc, or RFC 3339 text whose explicit
// offset takes precedence over loc.
func parse(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("value is required")
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", text)
}
