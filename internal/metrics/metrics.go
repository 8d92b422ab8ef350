package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes used as label values.
const (
	OutcomeSuccess      = "success"
	OutcomeCapacityFull = "capacity_full"
	OutcomeDuplicate    = "duplicate_attendee"
	OutcomeNotFound     = "not_found"
	OutcomeInvalidInput = "invalid_input"
	OutcomeTransient    = "transient"
	OutcomeError        = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	RegistrationOutcomes *prometheus.CounterVec
	RegistrationDuration prometheus.Histogram
	EventsCreated        prometheus.Counter
	ListingCache         *prometheus.CounterVec
	RateLimited          prometheus.Counter
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "event_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),

		RegistrationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "event_registration_duration_seconds",
			Help:    "Time spent in the registration transaction, including lock wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created",
		}),

		ListingCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "event_listing_cache_requests_total",
			Help: "Upcoming event listing cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "event_registration_rate_limited_total",
			Help: "Registration requests rejected by the rate limiter",
		}),
	}
}

// ObserveRegistration records one registration attempt.
func (m *Metrics) ObserveRegistration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RegistrationOutcomes.WithLabelValues(outcome).Inc()
	m.RegistrationDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementEventsCreated() {
	if m != nil {
		m.EventsCreated.Inc()
	}
}

// ObserveCache records a listing cache lookup result.
func (m *Metrics) ObserveCache(result string) {
	if m != nil {
		m.ListingCache.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
