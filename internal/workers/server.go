// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Processors groups the task handlers served by the worker
type Processors struct {
	Excel   *ExcelProcessor
	Report  *ReportProcessor
	Cleanup *CleanupProcessor
}

// NewServeMux routes every task type to its processor
func NewServeMux(p Processors, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware(logger))

	mux.HandleFunc(TypeItemsImport, p.Excel.ProcessImport)
	mux.HandleFunc(TypeReportGenerate, p.Report.GenerateReport)
	mux.HandleFunc(TypeCleanupReports, p.Cleanup.CleanupReports)
	mux.HandleFunc(TypeCleanupTempFiles, p.Cleanup.CleanupTempFiles)
	mux.HandleFunc(TypeCleanupOrphanAttachment, p.Cleanup.CleanupOrphanAttachments)

	return mux
}

// RegisterSchedules enqueues the cleanup tasks on a fixed cadence
func RegisterSchedules(s *asynq.Scheduler, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	spec := fmt.Sprintf("@every %s", interval)

	for _, taskType := range []string{TypeCleanupReports, TypeCleanupTempFiles, TypeCleanupOrphanAttachment} {
		task := asynq.NewTask(taskType, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
		if _, err := s.Register(spec, task); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", taskType, err)
		}
	}
	return nil
}

func loggingMiddleware(logger *slog.Logger) asynq.MiddlewareFunc {
	logger = logger.With(slog.String("component", "tasks"))

	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			taskID, _ := asynq.GetTaskID(ctx)
			retried, _ := asynq.GetRetryCount(ctx)

			err := next.ProcessTask(ctx, t)

			attrs := []any{
				slog.String("type", t.Type()),
				slog.String("task_id", taskID),
				slog.Int("retried", retried),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.ErrorContext(ctx, "task failed", append(attrs, slog.String("error", err.Error()))...)
				return err
			}
			logger.InfoContext(ctx, "task completed", attrs...)
			return nil
		})
	}
}
