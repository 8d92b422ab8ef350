package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/event-registration-service/internal/service"
)

// EventService is the part of service.EventService the handlers use.
type EventService interface {
	CreateEvent(ctx context.Context, in service.CreateEventInput) (*service.EventRecord, error)
	GetEvent(ctx context.Context, id, tz string) (*service.EventRecord, error)
	ListUpcomingEvents(ctx context.Context, in service.ListEventsInput) (*service.EventPage, error)
	ListAttendees(ctx context.Context, in service.ListAttendeesInput) (*service.AttendeePage, error)
}

type EventHandler struct {
	events EventService
	logger *slog.Logger
}

func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

type createEventRequest struct {
	Name        string  `json:"name"`
	Location    *string `json:"location"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Timezone    string  `json:"timezone"`
	MaxCapacity *int    `json:"max_capacity"`
}

func (r createEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Location, validation.Length(0, 255)),
		validation.Field(&r.StartTime, validation.Required),
		validation.Field(&r.EndTime, validation.Required),
		validation.Field(&r.MaxCapacity, validation.By(positiveCapacity)),
	)
}

// positiveCapacity accepts nil; validation.Min would also skip zero.
func positiveCapacity(value any) error {
	capacity, _ := value.(*int)
	if capacity != nil && *capacity < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequestBody, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		respondValidation(w, CodeValidationFailed, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), service.CreateEventInput{
		Name:        req.Name,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Timezone:    req.Timezone,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.events.ListUpcomingEvents(r.Context(), service.ListEventsInput{
		Page:     queryInt(q.Get("page")),
		PerPage:  queryInt(q.Get("per_page")),
		Timezone: q.Get("tz"),
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("tz"))
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// decodeJSON rejects trailing data after the first JSON value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// queryInt returns 0 for missing or malformed values; paging clamps 0 to the
// defaults.
func queryInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
