// internal/handlers/attachments.go
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/ports"
)

const (
	// maxAttachmentRequestSize bounds the whole multipart body. Oversized
	// images are accepted here and compressed by the service.
	maxAttachmentRequestSize = 200 << 20
	multipartMemory          = 32 << 20
)

// AttachmentHandler handles item attachment requests
type AttachmentHandler struct {
	service       ports.AttachmentService
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(service ports.AttachmentService, presignExpiry time.Duration, logger *slog.Logger) *AttachmentHandler {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &AttachmentHandler{
		service:       service,
		presignExpiry: presignExpiry,
		logger:        logger.With(slog.String("handler", "attachments")),
	}
}

// Upload handles POST /api/v1/items/{id}/attachments
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentRequestSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]ports.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to read upload",
				slog.String("file_name", fh.Filename),
				slog.String("error", err.Error()))
			respondError(w, h.logger, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, f)
	}

	saved, err := h.service.Upload(ctx, itemID, files)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to store attachments")
		return
	}

	h.logger.InfoContext(ctx, "attachments uploaded",
		slog.String("item_id", itemID.String()),
		slog.Int("count", len(saved)))

	respondData(w, h.logger, http.StatusCreated, saved)
}

// List handles GET /api/v1/items/{id}/attachments
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	attachments, err := h.service.List(r.Context(), itemID)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list attachments")
		return
	}

	respondList(w, h.logger, attachments, int64(len(attachments)))
}

// DownloadURL handles GET /api/v1/attachments/{id}/url
func (h *AttachmentHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid attachment ID format")
		return
	}

	url, err := h.service.DownloadURL(r.Context(), id, h.presignExpiry)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create download URL")
		return
	}

	respondData(w, h.logger, http.StatusOK, map[string]interface{}{
		"url":       url,
		"expiresAt": time.Now().Add(h.presignExpiry).UTC(),
	})
}

// Delete handles DELETE /api/v1/attachments/{id}
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid attachment ID format")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readUpload(fh *multipart.FileHeader) (ports.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return ports.UploadFile{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ports.UploadFile{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	return ports.UploadFile{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
