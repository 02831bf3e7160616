package ports

import (
	"context"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// ReportService renders item reports
type ReportService interface {
	ItemsWorkbook(ctx context.Context, filter domain.ItemFilter) ([]byte, int, error)
}
