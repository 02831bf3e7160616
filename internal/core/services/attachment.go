// internal/core/services/attachment.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNoFiles is returned when an upload carries no files
var ErrNoFiles = errors.New("no files provided")

// sniffed types that carry too little information to override the declared type
var genericTypes = map[string]bool{
	"application/octet-stream": true,
	"application/zip":          true,
	"text/plain":               true,
}

// AttachmentService applies the upload policy and stores attachment files
type AttachmentService struct {
	repo       ports.AttachmentRepository
	items      ports.ItemRepository
	storage    ports.FileStorage
	compressor *imaging.Compressor
	workers    int
	logger     *slog.Logger
}

var _ ports.AttachmentService = (*AttachmentService)(nil)

// NewAttachmentService creates an attachment service. workers bounds
// concurrent image compression for a single upload.
func NewAttachmentService(
	repo ports.AttachmentRepository,
	items ports.ItemRepository,
	storage ports.FileStorage,
	compressor *imaging.Compressor,
	workers int,
	logger *slog.Logger,
) *AttachmentService {
	if workers < 1 {
		workers = 1
	}
	return &AttachmentService{
		repo:       repo,
		items:      items,
		storage:    storage,
		compressor: compressor,
		workers:    workers,
		logger:     logger.With(slog.String("service", "attachments")),
	}
}

type preparedFile struct {
	name       string
	mimeType   string
	data       []byte
	compressed bool
}

// Upload validates every file against the policy, compresses oversized
// images, and only then writes anything. A rejected file fails the whole upload.
func (s *AttachmentService) Upload(ctx context.Context, itemID uuid.UUID, files []ports.UploadFile) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}

	existing, err := s.repo.CountByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}
	if err := domain.CheckAttachmentCount(existing, len(files)); err != nil {
		return nil, err
	}

	prepared, err := s.prepare(ctx, files)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Attachment, 0, len(prepared))
	var written []string
	for _, f := range prepared {
		a := domain.Attachment{
			ID:         uuid.New(),
			ItemID:     itemID,
			FileName:   f.name,
			MimeType:   f.mimeType,
			SizeBytes:  int64(len(f.data)),
			Compressed: f.compressed,
			CreatedAt:  time.Now().UTC(),
		}
		a.StorageKey = domain.StorageKeyFor(itemID, a.ID, f.name, f.mimeType)

		if err := s.storage.Upload(ctx, a.StorageKey, bytes.NewReader(f.data), f.mimeType); err != nil {
			s.rollback(ctx, out, written)
			return nil, fmt.Errorf("failed to store %s: %w", f.name, err)
		}
		written = append(written, a.StorageKey)

		if err := s.repo.Save(ctx, &a); err != nil {
			s.rollback(ctx, out, written)
			return nil, fmt.Errorf("failed to save attachment %s: %w", f.name, err)
		}
		out = append(out, a)
	}

	s.logger.InfoContext(ctx, "stored attachments",
		slog.String("item_id", itemID.String()),
		slog.Int("count", len(out)))

	return out, nil
}

func (s *AttachmentService) prepare(ctx context.Context, files []ports.UploadFile) ([]preparedFile, error) {
	prepared := make([]preparedFile, len(files))
	var jobs []imaging.Job
	var jobIndex []int

	for i, f := range files {
		name := sanitizeFileName(f.FileName)
		mimeType := detectMimeType(f.MimeType, f.Data)
		size := int64(len(f.Data))

		if err := domain.CheckAttachment(mimeType, size); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		prepared[i] = preparedFile{name: name, mimeType: mimeType, data: f.Data}
		if size > domain.MaxAttachmentSize {
			jobs = append(jobs, imaging.Job{Data: f.Data, MimeType: mimeType, Budget: domain.MaxAttachmentSize})
			jobIndex = append(jobIndex, i)
		}
	}

	if len(jobs) == 0 {
		return prepared, nil
	}

	results := s.compressor.CompressAll(ctx, jobs, s.workers)
	for n, r := range results {
		p := &prepared[jobIndex[n]]
		if r.Err != nil {
			if errors.Is(r.Err, imaging.ErrUnsupportedFormat) {
				return nil, fmt.Errorf("%s: %w: %v", p.name, domain.ErrCompressionInsufficient, r.Err)
			}
			return nil, fmt.Errorf("%s: failed to compress: %w", p.name, r.Err)
		}
		if !r.Result.WithinBudget {
			return nil, fmt.Errorf("%s: %w: %d bytes (max %d)",
				p.name, domain.ErrCompressionInsufficient, len(r.Result.Data), domain.MaxAttachmentSize)
		}

		s.logger.DebugContext(ctx, "compressed attachment",
			slog.String("file", p.name),
			slog.Int("original_bytes", len(p.data)),
			slog.Int("compressed_bytes", len(r.Result.Data)),
			slog.Float64("quality", r.Result.Quality),
			slog.Int("attempts", r.Result.Attempts))

		p.data = r.Result.Data
		p.compressed = true
	}

	return prepared, nil
}

// rollback removes the rows and files written by a failed upload so they
// neither dangle nor count toward the item's limit
func (s *AttachmentService) rollback(ctx context.Context, saved []domain.Attachment, keys []string) {
	for _, a := range saved {
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove attachment row",
				slog.String("attachment_id", a.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.storage.DeleteMultiple(ctx, keys); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove partially uploaded files",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

// List returns the attachments of an item
func (s *AttachmentService) List(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error) {
	list, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	if list == nil {
		list = []domain.Attachment{}
	}
	return list, nil
}

// DownloadURL returns a presigned URL for the attachment's file
func (s *AttachmentService) DownloadURL(ctx context.Context, id uuid.UUID, expires time.Duration) (string, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.storage.GetPresignedURL(ctx, a.StorageKey, expires)
	if err != nil {
		return "", fmt.Errorf("failed to presign attachment: %w", err)
	}
	return url, nil
}

// Delete removes the file and its metadata
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, a.StorageKey); err != nil {
		return fmt.Errorf("failed to delete attachment file: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted attachment",
		slog.String("attachment_id", id.String()),
		slog.String("item_id", a.ItemID.String()))

	return nil
}

func (s *AttachmentService) find(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAttachmentNotFound, id)
	}
	return a, nil
}

// detectMimeType prefers the sniffed type and falls back to the declared
// type only when sniffing yields a generic container or text type.
func detectMimeType(declared string, data []byte) string {
	declared = domain.NormalizeMimeType(declared)
	if len(data) == 0 {
		return declared
	}

	sniffed := domain.NormalizeMimeType(mimetype.Detect(data).String())
	if domain.IsAllowedAttachmentType(sniffed) && !genericTypes[sniffed] {
		return sniffed
	}
	if genericTypes[sniffed] && domain.IsAllowedAttachmentType(declared) && !domain.IsImageType(declared) {
		return declared
	}
	return sniffed
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
