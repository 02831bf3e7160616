// internal/adapters/db/attachment_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

type attachmentRow struct {
	ID         uuid.UUID `db:"id"`
	ItemID     uuid.UUID `db:"item_id"`
	FileName   string    `db:"file_name"`
	MimeType   string    `db:"mime_type"`
	SizeBytes  int64     `db:"size_bytes"`
	StorageKey string    `db:"storage_key"`
	Compressed bool      `db:"compressed"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r attachmentRow) toDomain() domain.Attachment {
	return domain.Attachment{
		ID:         r.ID,
		ItemID:     r.ItemID,
		FileName:   r.FileName,
		MimeType:   r.MimeType,
		SizeBytes:  r.SizeBytes,
		StorageKey: r.StorageKey,
		Compressed: r.Compressed,
		CreatedAt:  r.CreatedAt,
	}
}

const attachmentColumns = `id, item_id, file_name, mime_type, size_bytes, storage_key, compressed, created_at`

// AttachmentRepository implements ports.AttachmentRepository on Postgres
type AttachmentRepository struct {
	db     DBTX
	logger *slog.Logger
}

var _ ports.AttachmentRepository = (*AttachmentRepository)(nil)

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db DBTX, logger *slog.Logger) *AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "attachments")),
	}
}

// Save inserts attachment metadata
func (r *AttachmentRepository) Save(ctx context.Context, a *domain.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO attachments (`+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ItemID, a.FileName, a.MimeType, a.SizeBytes, a.StorageKey, a.Compressed, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}

	r.logger.DebugContext(ctx, "attachment saved",
		slog.String("attachment_id", a.ID.String()),
		slog.String("item_id", a.ItemID.String()))

	return nil
}

// FindByID returns the attachment or domain.ErrAttachmentNotFound
func (r *AttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var row attachmentRow
	err := pgxscan.Get(ctx, r.db, &row,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAttachmentNotFound, id)
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}

	a := row.toDomain()
	return &a, nil
}

// ListByItem returns an item's attachments, oldest first
func (r *AttachmentRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error) {
	var rows []attachmentRow
	err := pgxscan.Select(ctx, r.db, &rows,
		`SELECT `+attachmentColumns+` FROM attachments WHERE item_id = $1 ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	out := make([]domain.Attachment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// CountByItem returns how many attachments an item has
func (r *AttachmentRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM attachments WHERE item_id = $1`, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return count, nil
}

// Delete removes attachment metadata
func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAttachmentNotFound, id)
	}
	return nil
}
