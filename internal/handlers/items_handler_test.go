// internal/handlers/items_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/handlers"
	"github.com/ammerola/boxwise-be/test/helpers"
	"github.com/ammerola/boxwise-be/test/mocks"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Total   *int64          `json:"total"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func newItemHandler(t *testing.T) (*handlers.ItemHandler, *mocks.MockItemService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockItemService(ctrl)
	return handlers.NewItemHandler(svc, helpers.TestLogger()), svc
}

func TestItemHandler_ListItems(t *testing.T) {
	locationID := uuid.New()
	labelID := uuid.New()

	tests := []struct {
		name           string
		query          url.Values
		setupMocks     func(*mocks.MockItemService)
		expectedStatus int
		validate       func(*testing.T, envelope)
	}{
		{
			name:  "defaults",
			query: url.Values{},
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().
					List(gomock.Any(), ports.ListParams{
						Page:  1,
						Limit: 20,
						Sort:  domain.SortFieldName,
						Order: domain.SortAsc,
					}).
					Return(&ports.ListResult{Items: helpers.CreateTestItems(2), Total: 2}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				assert.True(t, env.Success)
				require.NotNil(t, env.Total)
				assert.Equal(t, int64(2), *env.Total)

				var items []domain.Item
				require.NoError(t, json.Unmarshal(env.Data, &items))
				assert.Len(t, items, 2)
			},
		},
		{
			name: "all_parameters",
			query: url.Values{
				"page":     {"3"},
				"limit":    {"50000"},
				"sort":     {"updatedAt"},
				"order":    {"DESC"},
				"search":   {"  drill "},
				"location": {locationID.String()},
				"label":    {labelID.String()},
				"archived": {"true"},
			},
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p ports.ListParams) (*ports.ListResult, error) {
						assert.Equal(t, 3, p.Page)
						assert.Equal(t, 10000, p.Limit)
						assert.Equal(t, domain.SortFieldUpdatedAt, p.Sort)
						assert.Equal(t, domain.SortDesc, p.Order)
						assert.Equal(t, "drill", p.Filter.Search)
						assert.Equal(t, &locationID, p.Filter.LocationID)
						assert.Nil(t, p.Filter.CategoryID)
						assert.Equal(t, &labelID, p.Filter.LabelID)
						assert.True(t, p.Filter.IncludeArchived)
						return &ports.ListResult{Items: []domain.Item{}, Total: 0}, nil
					})
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				assert.JSONEq(t, `[]`, string(env.Data))
				require.NotNil(t, env.Total)
				assert.Zero(t, *env.Total)
			},
		},
		{
			name:           "invalid_sort_field",
			query:          url.Values{"sort": {"price"}},
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.False(t, env.Success)
				assert.Contains(t, env.Message, "invalid sort field")
			},
		},
		{
			name:           "invalid_order",
			query:          url.Values{"order": {"sideways"}},
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_category_id",
			query:          url.Values{"category": {"tools"}},
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, `invalid category ID "tools"`, env.Message)
			},
		},
		{
			name:  "service_error",
			query: url.Values{},
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, env envelope) {
				assert.False(t, env.Success)
				assert.Equal(t, "Failed to list items", env.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newItemHandler(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/items?"+tt.query.Encode(), nil)
			w := httptest.NewRecorder()

			handler.ListItems(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.validate != nil {
				tt.validate(t, decodeEnvelope(t, w.Body.Bytes()))
			}
		})
	}
}

func TestItemHandler_GetItem(t *testing.T) {
	item := helpers.CreateTestItem()

	tests := []struct {
		name           string
		id             string
		setupMocks     func(*mocks.MockItemService)
		expectedStatus int
		message        string
	}{
		{
			name: "found",
			id:   item.ID.String(),
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().GetItem(gomock.Any(), item.ID).Return(item, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			id:             "not-a-uuid",
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			message:        "Invalid item ID format",
		},
		{
			name: "not_found",
			id:   item.ID.String(),
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().GetItem(gomock.Any(), item.ID).
					Return(nil, fmt.Errorf("failed to get item: %w", domain.ErrItemNotFound))
			},
			expectedStatus: http.StatusNotFound,
			message:        "failed to get item: item not found",
		},
		{
			name: "service_error",
			id:   item.ID.String(),
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().GetItem(gomock.Any(), item.ID).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			message:        "Failed to retrieve item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newItemHandler(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handler.GetItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			env := decodeEnvelope(t, w.Body.Bytes())
			assert.Equal(t, tt.message, env.Message)
			if tt.expectedStatus == http.StatusOK {
				var got domain.Item
				require.NoError(t, json.Unmarshal(env.Data, &got))
				assert.Equal(t, item.ID, got.ID)
				assert.Equal(t, item.Name, got.Name)
			}
		})
	}
}

func TestItemHandler_CreateItem(t *testing.T) {
	existingLocation := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockItemService)
		expectedStatus int
		message        string
	}{
		{
			name: "creates_item_with_refs",
			body: fmt.Sprintf(`{
				"name": " Socket Set ",
				"manufacturer": "Craftsman",
				"location": {"id": %q},
				"category": {"name": "Tools"},
				"labels": [{"name": "metric"}],
				"purchasePrice": "45.50"
			}`, existingLocation),
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().
					CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) error {
						assert.Equal(t, "Socket Set", item.Name)
						assert.Equal(t, 1, item.Quantity)
						assert.True(t, decimal.RequireFromString("45.50").Equal(item.PurchasePrice))
						require.NotNil(t, item.Location)
						assert.Equal(t, existingLocation, item.Location.ID)
						require.NotNil(t, item.Category)
						assert.Equal(t, uuid.Nil, item.Category.ID)
						assert.Equal(t, "Tools", item.Category.Name)
						assert.Equal(t, []domain.Ref{{Name: "metric"}}, item.Labels)
						item.ID = uuid.New()
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{"name":`,
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			message:        "Invalid request body",
		},
		{
			name:           "missing_name",
			body:           `{"quantity": 2}`,
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			message:        "name is required",
		},
		{
			name:           "negative_quantity",
			body:           `{"name": "Drill", "quantity": -1}`,
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			message:        "quantity cannot be negative",
		},
		{
			name:           "empty_label",
			body:           `{"name": "Drill", "labels": [{"name": " "}]}`,
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
			message:        "labels[0] needs an id or a name",
		},
		{
			name: "service_validation_error",
			body: `{"name": "Drill"}`,
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("%w: name must be at most 255 characters", domain.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
			message:        "validation failed: name must be at most 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newItemHandler(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.CreateItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			env := decodeEnvelope(t, w.Body.Bytes())
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, tt.expectedStatus == http.StatusCreated, env.Success)
		})
	}
}

func TestItemHandler_UpdateItem(t *testing.T) {
	item := helpers.CreateTestItem()

	t.Run("replaces_and_returns_stored_item", func(t *testing.T) {
		handler, svc := newItemHandler(t)
		gomock.InOrder(
			svc.EXPECT().UpdateItem(gomock.Any(), item.ID, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ uuid.UUID, got *domain.Item) error {
					assert.Equal(t, "Hammer", got.Name)
					assert.Equal(t, 4, got.Quantity)
					return nil
				}),
			svc.EXPECT().GetItem(gomock.Any(), item.ID).Return(item, nil),
		)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/items/"+item.ID.String(),
			bytes.NewBufferString(`{"name":"Hammer","quantity":4}`))
		req.SetPathValue("id", item.ID.String())
		w := httptest.NewRecorder()

		handler.UpdateItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got domain.Item
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w.Body.Bytes()).Data, &got))
		assert.Equal(t, item.ID, got.ID)
	})

	t.Run("not_found", func(t *testing.T) {
		handler, svc := newItemHandler(t)
		svc.EXPECT().UpdateItem(gomock.Any(), item.ID, gomock.Any()).Return(domain.ErrItemNotFound)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/items/"+item.ID.String(),
			bytes.NewBufferString(`{"name":"Hammer"}`))
		req.SetPathValue("id", item.ID.String())
		w := httptest.NewRecorder()

		handler.UpdateItem(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestItemHandler_UpdateQuantity(t *testing.T) {
	item := helpers.CreateTestItem()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockItemService)
		expectedStatus int
	}{
		{
			name: "updates",
			body: `{"quantity": 0}`,
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().UpdateQuantity(gomock.Any(), item.ID, 0).Return(item, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing_quantity",
			body:           `{}`,
			setupMocks:     func(m *mocks.MockItemService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "negative_quantity",
			body: `{"quantity": -2}`,
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().UpdateQuantity(gomock.Any(), item.ID, -2).
					Return(nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not_found",
			body: `{"quantity": 3}`,
			setupMocks: func(m *mocks.MockItemService) {
				m.EXPECT().UpdateQuantity(gomock.Any(), item.ID, 3).Return(nil, domain.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newItemHandler(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/items/"+item.ID.String()+"/quantity",
				bytes.NewBufferString(tt.body))
			req.SetPathValue("id", item.ID.String())
			w := httptest.NewRecorder()

			handler.UpdateQuantity(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestItemHandler_DeleteItem(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{name: "not_found", err: domain.ErrItemNotFound, expectedStatus: http.StatusNotFound},
		{name: "db_error", err: errors.New("timeout"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newItemHandler(t)
			svc.EXPECT().DeleteItem(gomock.Any(), id).Return(tt.err)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+id.String(), nil)
			req.SetPathValue("id", id.String())
			w := httptest.NewRecorder()

			handler.DeleteItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}
