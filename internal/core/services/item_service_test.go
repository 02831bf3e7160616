// internal/core/services/item_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/core/services"
	"github.com/ammerola/boxwise-be/test/helpers"
	"github.com/ammerola/boxwise-be/test/mocks"
)

func expectInvalidation(cache *mocks.MockCacheRepository) {
	cache.EXPECT().DeletePattern(gomock.Any(), "items:list:*").Return(nil)
	cache.EXPECT().Delete(gomock.Any(), "stats:summary").Return(nil)
}

func TestItemService_CreateItem(t *testing.T) {
	tests := []struct {
		name          string
		item          *domain.Item
		setupMocks    func(*mocks.MockItemRepository, *mocks.MockCacheRepository)
		expectedError bool
		errorContains string
	}{
		{
			name: "successful_create",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				i.ID = uuid.Nil
				i.Labels = nil
			}),
			setupMocks: func(r *mocks.MockItemRepository, c *mocks.MockCacheRepository) {
				r.EXPECT().Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) error {
						assert.NotEqual(t, uuid.Nil, item.ID)
						assert.NotNil(t, item.Labels)
						return nil
					})
				expectInvalidation(c)
			},
		},
		{
			name: "validation_fails_for_missing_name",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				i.Name = "  "
			}),
			setupMocks:    func(*mocks.MockItemRepository, *mocks.MockCacheRepository) {},
			expectedError: true,
			errorContains: "name is required",
		},
		{
			name: "validation_fails_for_negative_price",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				i.PurchasePrice = decimal.NewFromInt(-1)
			}),
			setupMocks:    func(*mocks.MockItemRepository, *mocks.MockCacheRepository) {},
			expectedError: true,
			errorContains: "purchase_price cannot be negative",
		},
		{
			name: "repository_save_error",
			item: helpers.CreateTestItem(),
			setupMocks: func(r *mocks.MockItemRepository, _ *mocks.MockCacheRepository) {
				r.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			expectedError: true,
			errorContains: "failed to save item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockItemRepository(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(repo, cache)

			svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
			err := svc.CreateItem(context.Background(), tt.item)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestItemService_ImportItems(t *testing.T) {
	t.Run("saves_in_batches_of_100", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		cache := mocks.NewMockCacheRepository(ctrl)

		var batches []int
		repo.EXPECT().SaveBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, items []domain.Item) error {
				batches = append(batches, len(items))
				return nil
			}).Times(3)
		expectInvalidation(cache)

		svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
		saved, err := svc.ImportItems(context.Background(), helpers.CreateTestItems(250))

		require.NoError(t, err)
		assert.Equal(t, 250, saved)
		assert.Equal(t, []int{100, 100, 50}, batches)
	})

	t.Run("reports_partial_progress_on_failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		cache := mocks.NewMockCacheRepository(ctrl)

		gomock.InOrder(
			repo.EXPECT().SaveBatch(gomock.Any(), gomock.Len(100)).Return(nil),
			repo.EXPECT().SaveBatch(gomock.Any(), gomock.Len(20)).Return(errors.New("constraint violation")),
		)
		expectInvalidation(cache)

		svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
		saved, err := svc.ImportItems(context.Background(), helpers.CreateTestItems(120))

		require.Error(t, err)
		assert.Equal(t, 100, saved)
		assert.Contains(t, err.Error(), "batch 100-120")
	})

	t.Run("rejects_invalid_row_before_writing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)

		items := helpers.CreateTestItems(3)
		items[1].Quantity = -2

		svc := services.NewItemService(repo, nil, time.Minute, helpers.TestLogger())
		saved, err := svc.ImportItems(context.Background(), items)

		require.Error(t, err)
		assert.Zero(t, saved)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("empty_input", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := services.NewItemService(mocks.NewMockItemRepository(ctrl), nil, time.Minute, helpers.TestLogger())

		saved, err := svc.ImportItems(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, saved)
	})
}

func TestItemService_GetItem(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		setupMock func(*mocks.MockItemRepository)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(r *mocks.MockItemRepository) {
				r.EXPECT().FindByID(gomock.Any(), id).Return(helpers.CreateTestItem(func(i *domain.Item) { i.ID = id }), nil)
			},
		},
		{
			name: "repository_not_found",
			setupMock: func(r *mocks.MockItemRepository) {
				r.EXPECT().FindByID(gomock.Any(), id).Return(nil, domain.ErrItemNotFound)
			},
			wantErr: domain.ErrItemNotFound,
		},
		{
			name: "nil_result_maps_to_not_found",
			setupMock: func(r *mocks.MockItemRepository) {
				r.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)
			},
			wantErr: domain.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockItemRepository(ctrl)
			tt.setupMock(repo)

			svc := services.NewItemService(repo, nil, time.Minute, helpers.TestLogger())
			item, err := svc.GetItem(context.Background(), id)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, item.ID)
		})
	}
}

func TestItemService_UpdateQuantity(t *testing.T) {
	id := uuid.New()

	t.Run("negative_quantity_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := services.NewItemService(mocks.NewMockItemRepository(ctrl), nil, time.Minute, helpers.TestLogger())

		_, err := svc.UpdateQuantity(context.Background(), id, -1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("returns_stored_item_and_invalidates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		cache := mocks.NewMockCacheRepository(ctrl)

		stored := helpers.CreateTestItem(func(i *domain.Item) { i.ID = id; i.Quantity = 9 })
		repo.EXPECT().UpdateQuantity(gomock.Any(), id, 9).Return(stored, nil)
		expectInvalidation(cache)

		svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
		item, err := svc.UpdateQuantity(context.Background(), id, 9)
		require.NoError(t, err)
		assert.Equal(t, 9, item.Quantity)
	})
}

func TestItemService_UpdateAndDelete(t *testing.T) {
	id := uuid.New()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, item *domain.Item) error {
			assert.Equal(t, id, item.ID)
			assert.NotNil(t, item.Labels)
			return nil
		})
	repo.EXPECT().Delete(gomock.Any(), id).Return(nil)
	cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(2)
	cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())

	item := helpers.CreateTestItem(func(i *domain.Item) { i.Labels = nil })
	require.NoError(t, svc.UpdateItem(context.Background(), id, item))
	require.NoError(t, svc.DeleteItem(context.Background(), id))
}

func TestItemService_List(t *testing.T) {
	params := ports.ListParams{Page: 0, Limit: 20}

	t.Run("cache_hit_skips_repository", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		cache := mocks.NewMockCacheRepository(ctrl)

		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, dest interface{}) error {
				dest.(*ports.ListResult).Total = 7
				return nil
			})

		svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
		result, err := svc.List(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.Total)
	})

	t.Run("cache_miss_queries_and_stores", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		cache := mocks.NewMockCacheRepository(ctrl)

		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.ErrCacheMiss)
		repo.EXPECT().List(gomock.Any(), ports.ListParams{Page: 1, Limit: 20}).
			Return(helpers.CreateTestItems(20), int64(41), nil)
		cache.EXPECT().SetWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), time.Minute).Return(nil)

		svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
		result, err := svc.List(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 3, result.TotalPages)
		assert.Len(t, result.Items, 20)
	})

	t.Run("nil_items_become_empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockItemRepository(ctrl)
		repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, int64(0), nil)

		svc := services.NewItemService(repo, nil, time.Minute, helpers.TestLogger())
		result, err := svc.List(context.Background(), params)
		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Zero(t, result.TotalPages)
	})
}

func TestItemService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	want := &domain.InventoryStats{TotalItems: 4, TotalValue: decimal.NewFromInt(40)}
	repo.EXPECT().Stats(gomock.Any()).Return(want, nil)
	cache.EXPECT().GetOrSet(gomock.Any(), "stats:summary", gomock.Any(), gomock.Any(), 5*time.Minute).
		DoAndReturn(func(_ context.Context, _ string, dest interface{}, fetch func() (interface{}, error), _ time.Duration) error {
			v, err := fetch()
			if err != nil {
				return err
			}
			*dest.(*domain.InventoryStats) = *v.(*domain.InventoryStats)
			return nil
		})

	svc := services.NewItemService(repo, cache, time.Minute, helpers.TestLogger())
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalItems)
}
