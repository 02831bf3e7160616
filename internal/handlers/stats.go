// internal/handlers/stats.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/boxwise-be/internal/core/ports"
)

// StatsHandler serves catalogue totals
type StatsHandler struct {
	service ports.ItemService
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service ports.ItemService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "stats")),
	}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load stats")
		return
	}

	respondData(w, h.logger, http.StatusOK, stats)
}
