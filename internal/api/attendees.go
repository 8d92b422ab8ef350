package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/service"
)

// Registrar registers attendees; registration.Manager implements it.
type Registrar interface {
	Register(ctx context.Context, eventID, name, email string) (*domain.Attendee, error)
}

type AttendeeHandler struct {
	registrar Registrar
	events    EventService
	logger    *slog.Logger
}

func NewAttendeeHandler(registrar Registrar, events EventService, logger *slog.Logger) *AttendeeHandler {
	return &AttendeeHandler{registrar: registrar, events: events, logger: logger}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, 255), is.EmailFormat),
	)
}

// Register handles POST /api/events/{id}/register.
func (h *AttendeeHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequestBody, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		respondValidation(w, CodeInvalidInput, err)
		return
	}

	attendee, err := h.registrar.Register(r.Context(), chi.URLParam(r, "id"), req.Name, req.Email)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, service.NewAttendeeRecord(attendee))
}

// List handles GET /api/events/{id}/attendees.
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.events.ListAttendees(r.Context(), service.ListAttendeesInput{
		EventID: chi.URLParam(r, "id"),
		Page:    queryInt(q.Get("page")),
		PerPage: queryInt(q.Get("per_page")),
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}
