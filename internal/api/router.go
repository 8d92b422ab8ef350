package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the router wires into handlers. RegisterLimit,
// Metrics, WebSocket and HealthChecks are optional.
type Deps struct {
	Events        EventService
	Registrar     Registrar
	Logger        *slog.Logger
	RegisterLimit func(http.Handler) http.Handler
	Metrics       http.Handler
	WebSocket     http.HandlerFunc
	HealthChecks  map[string]Checker
	CORSOrigins   []string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(corsMiddleware(d.CORSOrigins))

	eventHandler := NewEventHandler(d.Events, d.Logger)
	attendeeHandler := NewAttendeeHandler(d.Registrar, d.Events, d.Logger)

	r.Get("/health", HealthHandler(d.HealthChecks))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	if d.WebSocket != nil {
		r.Get("/ws", d.WebSocket)
	}

	r.Route("/api/events", func(r chi.Router) {
		r.Post("/", eventHandler.Create)
		r.Get("/", eventHandler.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", eventHandler.Get)
			r.Get("/attendees", attendeeHandler.List)
			r.With(optional(d.RegisterLimit)).Post("/register", attendeeHandler.Register)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
