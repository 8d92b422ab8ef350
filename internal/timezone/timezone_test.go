package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/event-registration-service/internal/domain"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer("")
	require.NoError(t, err)
	return n
}

func TestNormalize_KolkataToUTC(t *testing.T) {
	n := newTestNormalizer(t)

	start, end, err := n.Normalize("2025-10-01 10:00:00", "2025-10-01 11:00:00", "Asia/Kolkata")
	require.NoError(t, err)

	assert.Equal(t, "2025-10-01T04:30:00Z", FormatUTC(start))
	assert.Equal(t, "2025-10-01T05:30:00Z", FormatUTC(end))
}

func TestNormalize_DefaultsToKolkata(t *testing.T) {
	n := newTestNormalizer(t)

	start, _, err := n.Normalize("2025-10-01 10:00:00", "2025-10-01 11:00:00", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01T04:30:00Z", FormatUTC(start))
}

func TestNormalize_ConfiguredDefaultZone(t *testing.T) {
	n, err := NewNormalizer("America/New_York")
	require.NoError(t, err)

	start, _, err := n.Normalize("2025-01-15 09:00", "2025-01-15 10:00", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T14:00:00Z", FormatUTC(start))
}

func TestNormalize_AcceptedLayouts(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		start string
		end   string
		want  string
	}{
		{"space with seconds", "2025-10-01 10:00:00", "2025-10-01 11:00:00", "2025-10-01T04:30:00Z"},
		{"space without seconds", "2025-10-01 10:00", "2025-10-01 11:00", "2025-10-01T04:30:00Z"},
		{"T with seconds", "2025-10-01T10:00:00", "2025-10-01T11:00:00", "2025-10-01T04:30:00Z"},
		{"T without seconds", "2025-10-01T10:00", "2025-10-01T11:00", "2025-10-01T04:30:00Z"},
		{"explicit offset wins", "2025-10-01T10:00:00Z", "2025-10-01T11:00:00Z", "2025-10-01T10:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _, err := n.Normalize(tt.start, tt.end, "Asia/Kolkata")
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatUTC(start))
		})
	}
}

func TestNormalize_InvalidTimeRange(t *testing.T) {
	n := newTestNormalizer(t)

	_, _, err := n.Normalize("2025-10-01 10:00:00", "2025-10-01 10:00:00", "Asia/Kolkata")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, _, err = n.Normalize("2025-10-01 10:00:00", "2025-10-01 09:59:59", "Asia/Kolkata")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestNormalize_InvalidInput(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		start string
		end   string
		tz    string
	}{
		{"unknown timezone", "2025-10-01 10:00:00", "2025-10-01 11:00:00", "Mars/Olympus"},
		{"garbage start", "tomorrow-ish", "2025-10-01 11:00:00", "UTC"},
		{"empty end", "2025-10-01 10:00:00", "", "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := n.Normalize(tt.start, tt.end, tt.tz)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestNewNormalizer_RejectsUnknownDefault(t *testing.T) {
	_, err := NewNormalizer("Nowhere/Special")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToLocal(t *testing.T) {
	instant := time.Date(2025, 10, 1, 4, 30, 0, 0, time.UTC)

	local, err := ToLocal(instant, "Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01T10:00:00+05:30", local)

	local, err = ToLocal(instant, "UTC")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01T04:30:00+00:00", local)

	_, err = ToLocal(instant, "Bad/Zone")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRoundTrip(t *testing.T) {
	n := newTestNormalizer(t)

	start, _, err := n.Normalize("2025-03-09 01:30:00", "2025-03-09 04:30:00", "America/Los_Angeles")
	require.NoError(t, err)

	local, err := ToLocal(start, "America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09T01:30:00-08:00", local)
}
