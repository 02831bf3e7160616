// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/afero"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

// CleanupConfig sets retention windows for the cleanup tasks
type CleanupConfig struct {
	TempDir         string
	TempMaxAge      time.Duration
	ReportRetention time.Duration
}

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	storage ports.FileStorage
	items   ports.ItemRepository
	fs      afero.Fs
	config  CleanupConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(storage ports.FileStorage, items ports.ItemRepository, fs afero.Fs, config CleanupConfig, logger *slog.Logger) *CleanupProcessor {
	if config.TempMaxAge <= 0 {
		config.TempMaxAge = 24 * time.Hour
	}
	if config.ReportRetention <= 0 {
		config.ReportRetention = 24 * time.Hour
	}
	return &CleanupProcessor{
		storage: storage,
		items:   items,
		fs:      fs,
		config:  config,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupReports deletes generated reports and abandoned import sheets past retention
func (p *CleanupProcessor) CleanupReports(ctx context.Context, _ *asynq.Task) error {
	cutoff := p.now().Add(-p.config.ReportRetention)

	var stale []string
	for _, prefix := range []string{reportPrefix, importPrefix} {
		objects, err := p.storage.List(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range objects {
			if obj.LastModified.Before(cutoff) {
				stale = append(stale, obj.Key)
			}
		}
	}

	if len(stale) > 0 {
		if err := p.storage.DeleteMultiple(ctx, stale); err != nil {
			return fmt.Errorf("failed to delete expired reports: %w", err)
		}
	}

	p.logger.InfoContext(ctx, "expired reports cleaned up",
		slog.Int("objects_deleted", len(stale)))

	return nil
}

// CleanupTempFiles removes old temporary files
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	if p.config.TempDir == "" {
		return nil
	}

	cutoff := p.now().Add(-p.config.TempMaxAge)

	var deletedCount int
	err := afero.Walk(p.fs, p.config.TempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}

		if !info.IsDir() && info.ModTime().Before(cutoff) {
			if err := p.fs.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path),
					slog.String("error", err.Error()))
			} else {
				deletedCount++
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}

// CleanupOrphanAttachments deletes attachment objects whose item no longer
// exists. Item deletes cascade attachment rows but leave the objects behind.
func (p *CleanupProcessor) CleanupOrphanAttachments(ctx context.Context, _ *asynq.Task) error {
	objects, err := p.storage.List(ctx, "items/")
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	byItem := make(map[uuid.UUID][]string)
	for _, obj := range objects {
		itemID, ok := itemIDFromKey(obj.Key)
		if !ok {
			continue
		}
		byItem[itemID] = append(byItem[itemID], obj.Key)
	}

	var orphans []string
	for itemID, keys := range byItem {
		_, err := p.items.FindByID(ctx, itemID)
		switch {
		case errors.Is(err, domain.ErrItemNotFound):
			orphans = append(orphans, keys...)
		case err != nil:
			return fmt.Errorf("failed to look up item %s: %w", itemID, err)
		}
	}

	if len(orphans) > 0 {
		if err := p.storage.DeleteMultiple(ctx, orphans); err != nil {
			return fmt.Errorf("failed to delete orphaned attachments: %w", err)
		}
	}

	p.logger.InfoContext(ctx, "orphaned attachments cleaned up",
		slog.Int("items_checked", len(byItem)),
		slog.Int("objects_deleted", len(orphans)))

	return nil
}

// itemIDFromKey extracts the item ID from items/<id>/attachments/<file>
func itemIDFromKey(key string) (uuid.UUID, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] != "items" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
