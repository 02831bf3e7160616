// internal/handlers/reports.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/workers"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves spreadsheet exports, synchronous and queued
type ReportHandler struct {
	reports       ports.ReportService
	storage       ports.FileStorage
	enqueuer      ports.TaskEnqueuer
	inspector     ports.TaskInspector
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	reports ports.ReportService,
	storage ports.FileStorage,
	enqueuer ports.TaskEnqueuer,
	inspector ports.TaskInspector,
	presignExpiry time.Duration,
	logger *slog.Logger,
) *ReportHandler {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &ReportHandler{
		reports:       reports,
		storage:       storage,
		enqueuer:      enqueuer,
		inspector:     inspector,
		presignExpiry: presignExpiry,
		logger:        logger.With(slog.String("handler", "reports")),
	}
}

// ExportItems handles GET /api/v1/reports/items.xlsx
func (h *ReportHandler) ExportItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := parseListParams(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	data, rows, err := h.reports.ItemsWorkbook(ctx, params.Filter)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to generate report")
		return
	}

	filename := fmt.Sprintf("items_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write report response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "report exported",
		slog.Int("rows", rows),
		slog.String("filename", filename))
}

// RequestReport handles POST /api/v1/reports
func (h *ReportHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := parseListParams(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	reportID := uuid.New()
	task, err := workers.NewReportTask(workers.ReportPayload{
		ReportID: reportID,
		Filter:   params.Filter,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create report task")
		return
	}

	info, err := h.enqueuer.Enqueue(task)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to queue report")
		return
	}

	h.logger.InfoContext(ctx, "report queued",
		slog.String("report_id", reportID.String()),
		slog.String("task_id", info.ID))

	respondData(w, h.logger, http.StatusAccepted, map[string]string{
		"id":     reportID.String(),
		"status": "queued",
	})
}

// GetReport handles GET /api/v1/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid report ID format")
		return
	}

	key := workers.ReportObjectKey(id)
	ready, err := h.storage.Exists(ctx, key)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to check report")
		return
	}
	if ready {
		url, err := h.storage.GetPresignedURL(ctx, key, h.presignExpiry)
		if err != nil {
			respondServiceError(w, r, h.logger, err, "Failed to create download URL")
			return
		}
		respondData(w, h.logger, http.StatusOK, map[string]interface{}{
			"id":        id.String(),
			"status":    "ready",
			"url":       url,
			"expiresAt": time.Now().Add(h.presignExpiry).UTC(),
		})
		return
	}

	info, err := h.inspector.GetTaskInfo(workers.QueueDefault, id.String())
	switch {
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		respondError(w, h.logger, http.StatusNotFound, "Report not found")
		return
	case err != nil:
		respondServiceError(w, r, h.logger, err, "Failed to look up report")
		return
	}

	switch info.State {
	case asynq.TaskStateArchived:
		h.logger.WarnContext(ctx, "report generation failed",
			slog.String("report_id", id.String()),
			slog.String("last_error", info.LastErr))
		respondError(w, h.logger, http.StatusInternalServerError, "Report generation failed")
		return
	case asynq.TaskStateCompleted:
		// finished but the object is gone: removed by retention cleanup
		respondError(w, h.logger, http.StatusNotFound, "Report expired")
		return
	}

	respondData(w, h.logger, http.StatusAccepted, map[string]string{
		"id":     id.String(),
		"status": info.State.String(),
	})
}
