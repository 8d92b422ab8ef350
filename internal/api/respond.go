package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Priya8975/event-registration-service/internal/domain"
)

// Error codes returned in the "error" field of every error body.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInvalidTimeRange   = "invalid_time_range"
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeCapacityFull       = "capacity_full"
	CodeDuplicateAttendee  = "duplicate_attendee"
	CodeTransient          = "transient_store_error"
	CodeInternal           = "internal_error"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// respondValidation reports per-field ozzo-validation failures under code.
func respondValidation(w http.ResponseWriter, code string, err error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusUnprocessableEntity, code, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:   code,
		Message: err.Error(),
		Fields:  fields,
	})
}

// respondDomainError maps service errors onto status codes. Unknown errors
// are logged and hidden behind a generic 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTimeRange):
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidTimeRange, domain.ErrInvalidTimeRange.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "event not found")
	case errors.Is(err, domain.ErrCapacityFull):
		respondError(w, http.StatusConflict, CodeCapacityFull, domain.ErrCapacityFull.Error())
	case errors.Is(err, domain.ErrDuplicateAttendee):
		respondError(w, http.StatusConflict, CodeDuplicateAttendee, domain.ErrDuplicateAttendee.Error())
	case errors.Is(err, domain.ErrTransient):
		logger.Warn("transient store error",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, CodeTransient, "temporary failure, please retry")
	default:
		logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
