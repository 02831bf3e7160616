// internal/handlers/import.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/workers"
)

// ImportHandler stages spreadsheet imports and reports their progress
type ImportHandler struct {
	storage     ports.FileStorage
	enqueuer    ports.TaskEnqueuer
	inspector   ports.TaskInspector
	maxFileSize int64
	logger      *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(storage ports.FileStorage, enqueuer ports.TaskEnqueuer, inspector ports.TaskInspector, maxFileSize int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		storage:     storage,
		enqueuer:    enqueuer,
		inspector:   inspector,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("handler", "import")),
	}
}

// ImportItems handles POST /api/v1/items/import
func (h *ImportHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		respondError(w, h.logger, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	// The declared Content-Type is not trusted; the sheet must sniff as xlsx.
	if !mimetype.Detect(data).Is(xlsxContentType) {
		respondError(w, h.logger, http.StatusUnsupportedMediaType, "Only .xlsx spreadsheets can be imported")
		return
	}

	jobID := uuid.New()
	key := workers.ImportObjectKey(jobID)
	if err := h.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to save upload")
		return
	}

	task, err := workers.NewImportTask(workers.ImportPayload{
		JobID:     jobID,
		ObjectKey: key,
		FileName:  header.Filename,
	})
	if err == nil {
		_, err = h.enqueuer.Enqueue(task)
	}
	if err != nil {
		if delErr := h.storage.Delete(ctx, key); delErr != nil {
			h.logger.WarnContext(ctx, "failed to remove staged import",
				slog.String("key", key),
				slog.String("error", delErr.Error()))
		}
		respondServiceError(w, r, h.logger, err, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "import queued",
		slog.String("job_id", jobID.String()),
		slog.String("file_name", header.Filename),
		slog.Int("size", len(data)))

	respondData(w, h.logger, http.StatusAccepted, map[string]string{
		"jobId":  jobID.String(),
		"status": "queued",
	})
}

// ImportStatus handles GET /api/v1/items/import/{id}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	info, err := h.inspector.GetTaskInfo(workers.QueueCritical, id.String())
	switch {
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		respondError(w, h.logger, http.StatusNotFound, "Import job not found")
		return
	case err != nil:
		respondServiceError(w, r, h.logger, err, "Failed to look up import job")
		return
	}

	status := map[string]interface{}{
		"jobId":  id.String(),
		"status": info.State.String(),
	}
	if info.LastErr != "" {
		status["lastError"] = info.LastErr
	}
	if len(info.Result) > 0 {
		var result workers.ImportResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status["result"] = result
		}
	}

	respondData(w, h.logger, http.StatusOK, status)
}
