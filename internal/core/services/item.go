// internal/core/services/item.go
package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/google/uuid"
)

// Cache keys owned by the item service
const (
	itemListKeyPrefix = "items:list:"
	itemListPattern   = "items:list:*"
	statsKey          = "stats:summary"
)

// ItemService handles item business logic
type ItemService struct {
	repo     ports.ItemRepository
	cache    ports.CacheRepository
	listTTL  time.Duration
	statsTTL time.Duration
	logger   *slog.Logger
}

// Statically assert that *ItemService implements the ItemService interface.
var _ ports.ItemService = (*ItemService)(nil)

// NewItemService creates a new item service. cache may be nil.
func NewItemService(repo ports.ItemRepository, cache ports.CacheRepository, listTTL time.Duration, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		cache:    cache,
		listTTL:  listTTL,
		statsTTL: 5 * time.Minute,
		logger:   logger.With(slog.String("service", "items")),
	}
}

// CreateItem validates and saves a single item
func (s *ItemService) CreateItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	item.PrepareForStorage()

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "saved item",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// ImportItems saves items in batches of 100 and returns how many were written
func (s *ItemService) ImportItems(ctx context.Context, items []domain.Item) (int, error) {
	const batchSize = 100

	if len(items) == 0 {
		s.logger.InfoContext(ctx, "no items to import")
		return 0, nil
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w for item %q (row %d): %w", domain.ErrValidation, items[i].Name, i+1, err)
		}
		items[i].PrepareForStorage()
	}

	saved := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		if err := s.repo.SaveBatch(ctx, items[i:end]); err != nil {
			if saved > 0 {
				s.invalidate(ctx)
			}
			return saved, fmt.Errorf("failed to save batch %d-%d: %w", i, end, err)
		}
		saved = end
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "imported items", slog.Int("count", saved))

	return saved, nil
}

// GetItem retrieves an item by ID
func (s *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return item, nil
}

// UpdateItem replaces the editable fields of an existing item
func (s *ItemService) UpdateItem(ctx context.Context, id uuid.UUID, item *domain.Item) error {
	item.ID = id

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	item.UpdatedAt = time.Now().UTC()
	if item.Labels == nil {
		item.Labels = []domain.Ref{}
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "updated item", slog.String("item_id", id.String()))

	return nil
}

// UpdateQuantity sets the quantity of one item and returns the stored result
func (s *ItemService) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrValidation)
	}

	item, err := s.repo.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update quantity: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "updated item quantity",
		slog.String("item_id", id.String()),
		slog.Int("quantity", quantity))

	return item, nil
}

// DeleteItem permanently removes an item
func (s *ItemService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "deleted item", slog.String("item_id", id.String()))

	return nil
}

// List retrieves items with filtering and pagination. Results are cached
// per query until the next write.
func (s *ItemService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	key := listCacheKey(params)
	if s.cache != nil {
		var cached ports.ListResult
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "item list cache read failed",
				slog.String("error", err.Error()))
		}
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}

	var totalPages int
	if params.Limit > 0 {
		totalPages = int(total) / params.Limit
		if int(total)%params.Limit > 0 {
			totalPages++
		}
	}

	result := &ports.ListResult{
		Items:      items,
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, result, s.listTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache item list",
				slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// Stats returns inventory totals, cached for five minutes
func (s *ItemService) Stats(ctx context.Context) (*domain.InventoryStats, error) {
	if s.cache == nil {
		return s.repo.Stats(ctx)
	}

	var stats domain.InventoryStats
	err := s.cache.GetOrSet(ctx, statsKey, &stats, func() (interface{}, error) {
		return s.repo.Stats(ctx)
	}, s.statsTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

func (s *ItemService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, itemListPattern); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate item list cache",
			slog.String("error", err.Error()))
	}
	if err := s.cache.Delete(ctx, statsKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate stats cache",
			slog.String("error", err.Error()))
	}
}

func listCacheKey(p ports.ListParams) string {
	f := p.Filter
	raw := fmt.Sprintf("%d|%d|%s|%s|%s|%s|%s|%s|%t",
		p.Page, p.Limit, p.Sort, p.Order, f.Search,
		uuidString(f.LocationID), uuidString(f.CategoryID), uuidString(f.LabelID),
		f.IncludeArchived)
	sum := sha1.Sum([]byte(raw))
	return itemListKeyPrefix + hex.EncodeToString(sum[:8])
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
