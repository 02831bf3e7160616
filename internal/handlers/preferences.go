// internal/handlers/preferences.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ammerola/boxwise-be/internal/core/ports"
)

// PreferenceHandler serves display preferences
type PreferenceHandler struct {
	service ports.PreferenceService
	logger  *slog.Logger
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(service ports.PreferenceService, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "preferences")),
	}
}

// Get handles GET /api/v1/preferences/{key}
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	pref, err := h.service.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to read preference")
		return
	}

	respondData(w, h.logger, http.StatusOK, pref)
}

// Put handles PUT /api/v1/preferences/{key}
func (h *PreferenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Value == nil {
		respondError(w, h.logger, http.StatusBadRequest, "value is required")
		return
	}

	pref, err := h.service.Set(r.Context(), r.PathValue("key"), *req.Value)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to store preference")
		return
	}

	respondData(w, h.logger, http.StatusOK, pref)
}
