// internal/workers/excel_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/core/services"
)

// ImportResult is written to the task result once an import finishes
type ImportResult struct {
	FileName string `json:"fileName"`
	Rows     int    `json:"rows"`
	Imported int    `json:"imported"`
	Error    string `json:"error,omitempty"`
}

// ExcelProcessor imports items from staged spreadsheets
type ExcelProcessor struct {
	items   ports.ItemService
	storage ports.FileStorage
	logger  *slog.Logger
}

// NewExcelProcessor creates a new Excel processor
func NewExcelProcessor(items ports.ItemService, storage ports.FileStorage, logger *slog.Logger) *ExcelProcessor {
	return &ExcelProcessor{
		items:   items,
		storage: storage,
		logger:  logger.With(slog.String("processor", "excel")),
	}
}

// ProcessImport handles items:import tasks. Malformed sheets are not retried,
// and neither are partially imported ones since a retry would duplicate rows.
func (p *ExcelProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := p.logger.With(
		slog.String("job_id", payload.JobID.String()),
		slog.String("object_key", payload.ObjectKey))
	logger.InfoContext(ctx, "processing import")

	data, err := p.storage.Download(ctx, payload.ObjectKey)
	if err != nil {
		if errors.Is(err, ports.ErrObjectNotFound) {
			return fmt.Errorf("staged sheet %s is gone: %w", payload.ObjectKey, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download sheet: %w", err)
	}

	result := ImportResult{FileName: payload.FileName}

	items, err := services.ParseItemsWorkbook(data)
	if err != nil {
		result.Error = err.Error()
		p.finish(ctx, t, payload, result)
		return fmt.Errorf("failed to parse sheet: %v: %w", err, asynq.SkipRetry)
	}
	result.Rows = len(items)

	imported, err := p.items.ImportItems(ctx, items)
	result.Imported = imported
	if err != nil {
		if imported == 0 && !errors.Is(err, domain.ErrValidation) {
			return fmt.Errorf("failed to import items: %w", err)
		}
		result.Error = err.Error()
		p.finish(ctx, t, payload, result)
		return fmt.Errorf("import stopped after %d items: %w: %w", imported, err, asynq.SkipRetry)
	}

	p.finish(ctx, t, payload, result)

	logger.InfoContext(ctx, "import completed",
		slog.Int("rows", result.Rows),
		slog.Int("imported", result.Imported))

	return nil
}

// finish records the result and drops the staged sheet
func (p *ExcelProcessor) finish(ctx context.Context, t *asynq.Task, payload ImportPayload, result ImportResult) {
	writeResult(ctx, p.logger, t, result)

	if err := p.storage.Delete(ctx, payload.ObjectKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete staged sheet",
			slog.String("object_key", payload.ObjectKey),
			slog.String("error", err.Error()))
	}
}

func writeResult(ctx context.Context, logger *slog.Logger, t *asynq.Task, result interface{}) {
	w := t.ResultWriter()
	if w == nil {
		return
	}

	b, err := json.Marshal(result)
	if err == nil {
		_, err = w.Write(b)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to write task result",
			slog.String("task_id", w.TaskID()),
			slog.String("error", err.Error()))
	}
}
