// internal/core/ports/item_repository.go
package ports

import (
	"context"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/google/uuid"
)

// ItemRepository defines the persistence port for items.
// This interface is implemented by the database adapter.
type ItemRepository interface {
	Save(ctx context.Context, item *domain.Item) error
	SaveBatch(ctx context.Context, items []domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, params ListParams) ([]domain.Item, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.InventoryStats, error)
}
