// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// Task types
const (
	TypeReportGenerate          = "report:generate"
	TypeItemsImport             = "items:import"
	TypeCleanupReports          = "cleanup:reports"
	TypeCleanupTempFiles        = "cleanup:temp_files"
	TypeCleanupOrphanAttachment = "cleanup:orphan_attachments"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const (
	reportPrefix = "reports/"
	importPrefix = "imports/"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// taskRetention keeps finished tasks inspectable for status lookups
	taskRetention = 24 * time.Hour
)

// ReportObjectKey is where the worker stores a generated report
func ReportObjectKey(id uuid.UUID) string {
	return reportPrefix + id.String() + ".xlsx"
}

// ImportObjectKey is where an uploaded import sheet is staged
func ImportObjectKey(jobID uuid.UUID) string {
	return importPrefix + jobID.String() + ".xlsx"
}

// ReportPayload asks for an items report
type ReportPayload struct {
	ReportID uuid.UUID         `json:"report_id"`
	Filter   domain.ItemFilter `json:"filter"`
}

// NewReportTask builds a report:generate task. The report ID doubles as the task ID.
func NewReportTask(p ReportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report payload: %w", err)
	}
	return asynq.NewTask(TypeReportGenerate, b,
		asynq.TaskID(p.ReportID.String()),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Retention(taskRetention),
	), nil
}

// ImportPayload points the worker at a staged sheet
type ImportPayload struct {
	JobID     uuid.UUID `json:"job_id"`
	ObjectKey string    `json:"object_key"`
	FileName  string    `json:"file_name"`
}

// NewImportTask builds an items:import task. The job ID doubles as the task ID.
func NewImportTask(p ImportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeItemsImport, b,
		asynq.TaskID(p.JobID.String()),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(3),
		asynq.Retention(taskRetention),
	), nil
}
