package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/Priya8975/event-registration-service/internal/metrics"
)

// ClientKey identifies the caller by IP. Run chi's RealIP middleware first so
// proxied requests are keyed by the original client.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429 and the standard error body.
func Middleware(l Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Allow(r.Context(), ClientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			m.IncrementRateLimited()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limited",
				"message": "too many registration attempts, slow down",
			})
		})
	}
}
