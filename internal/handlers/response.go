// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/services"
)

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Total   *int64      `json:"total,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response",
			slog.String("error", err.Error()))
	}
}

func respondData(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	respondJSON(w, logger, status, APIResponse{Success: true, Data: data})
}

func respondList(w http.ResponseWriter, logger *slog.Logger, data interface{}, total int64) {
	respondJSON(w, logger, http.StatusOK, APIResponse{Success: true, Data: data, Total: &total})
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, APIResponse{Success: false, Message: message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrAttachmentNotFound),
		errors.Is(err, domain.ErrPreferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, services.ErrNoFiles):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAttachmentTooLarge),
		errors.Is(err, domain.ErrCompressionInsufficient):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrAttachmentTypeNotAllowed):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrAttachmentLimitReached):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondServiceError answers with the mapped status. Client errors carry the
// service message, server errors the fallback.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("message", fallback),
			slog.String("error", err.Error()))
		respondError(w, logger, status, fallback)
		return
	}
	respondError(w, logger, status, err.Error())
}
