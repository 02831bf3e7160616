package ports

import (
	"context"
	"time"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/google/uuid"
)

// AttachmentRepository persists attachment metadata
type AttachmentRepository interface {
	Save(ctx context.Context, a *domain.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error)
	CountByItem(ctx context.Context, itemID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UploadFile is one file received for upload
type UploadFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// AttachmentService applies the upload policy and stores files
type AttachmentService interface {
	Upload(ctx context.Context, itemID uuid.UUID, files []UploadFile) ([]domain.Attachment, error)
	List(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error)
	DownloadURL(ctx context.Context, id uuid.UUID, expires time.Duration) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
