// internal/core/ports/item_service.go
package ports

import (
	"context"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/google/uuid"
)

// ItemService defines the application service port for items.
// This interface is implemented by the application service.
type ItemService interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	ImportItems(ctx context.Context, items []domain.Item) (int, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, item *domain.Item) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Stats(ctx context.Context) (*domain.InventoryStats, error)
}

// ListParams holds parameters for listing items
type ListParams struct {
	Page   int
	Limit  int
	Sort   string
	Order  domain.SortOrder
	Filter domain.ItemFilter
}

// Offset is the number of rows skipped for the page
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ListResult holds the result of listing items
type ListResult struct {
	Items      []domain.Item `json:"items"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}
