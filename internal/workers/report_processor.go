// internal/workers/report_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/boxwise-be/internal/core/ports"
)

// ReportResult is written to the task result once a report is stored
type ReportResult struct {
	ObjectKey string `json:"objectKey"`
	Rows      int    `json:"rows"`
	SizeBytes int    `json:"sizeBytes"`
}

// ReportProcessor renders queued item reports
type ReportProcessor struct {
	reports ports.ReportService
	storage ports.FileStorage
	logger  *slog.Logger
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(reports ports.ReportService, storage ports.FileStorage, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		reports: reports,
		storage: storage,
		logger:  logger.With(slog.String("processor", "report")),
	}
}

// GenerateReport handles report:generate tasks
func (p *ReportProcessor) GenerateReport(ctx context.Context, t *asynq.Task) error {
	var payload ReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "generating report",
		slog.String("report_id", payload.ReportID.String()))

	data, rows, err := p.reports.ItemsWorkbook(ctx, payload.Filter)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	key := ReportObjectKey(payload.ReportID)
	if err := p.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	writeResult(ctx, p.logger, t, ReportResult{ObjectKey: key, Rows: rows, SizeBytes: len(data)})

	p.logger.InfoContext(ctx, "report generated",
		slog.String("report_id", payload.ReportID.String()),
		slog.Int("rows", rows),
		slog.Int("size", len(data)))

	return nil
}
