package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.Item
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid_item",
			item:      &domain.Item{Name: "Cordless Drill", Quantity: 2, PurchasePrice: decimal.NewFromInt(99)},
			wantError: false,
		},
		{
			name:      "zero_quantity_is_allowed",
			item:      &domain.Item{Name: "Empty Box", Quantity: 0},
			wantError: false,
		},
		{
			name:      "missing_name",
			item:      &domain.Item{Quantity: 1},
			wantError: true,
			errorMsg:  "name is required",
		},
		{
			name:      "whitespace_name",
			item:      &domain.Item{Name: "   ", Quantity: 1},
			wantError: true,
			errorMsg:  "name is required",
		},
		{
			name:      "name_too_long",
			item:      &domain.Item{Name: strings.Repeat("x", 256), Quantity: 1},
			wantError: true,
			errorMsg:  "at most 255",
		},
		{
			name:      "negative_quantity",
			item:      &domain.Item{Name: "Hammer", Quantity: -1},
			wantError: true,
			errorMsg:  "quantity cannot be negative",
		},
		{
			name:      "negative_price",
			item:      &domain.Item{Name: "Hammer", Quantity: 1, PurchasePrice: decimal.NewFromInt(-5)},
			wantError: true,
			errorMsg:  "purchase_price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestItem_PrepareForStorage(t *testing.T) {
	item := &domain.Item{Name: "Ladder"}
	item.PrepareForStorage()

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.False(t, item.CreatedAt.IsZero())
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	assert.NotNil(t, item.Labels)

	id := item.ID
	created := item.CreatedAt
	item.PrepareForStorage()
	assert.Equal(t, id, item.ID)
	assert.Equal(t, created, item.CreatedAt)
}

func TestItem_MatchesText(t *testing.T) {
	item := &domain.Item{
		Name:         "Cordless Drill",
		Description:  "18V with two batteries",
		AssetID:      "AST-0042",
		SerialNumber: "SN998877",
		ModelNumber:  "DCD771",
		Manufacturer: "DeWalt",
		UPCCode:      "885911234567",
	}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty_matches_everything", text: "", want: true},
		{name: "name_case_insensitive", text: "DRILL", want: true},
		{name: "description", text: "batteries", want: true},
		{name: "asset_id", text: "ast-00", want: true},
		{name: "serial_number", text: "998877", want: true},
		{name: "model_number", text: "dcd", want: true},
		{name: "manufacturer", text: "walt", want: true},
		{name: "upc_code", text: "8859112", want: true},
		{name: "surrounding_whitespace_ignored", text: "  drill ", want: true},
		{name: "no_match", text: "hammer", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, item.MatchesText(tt.text))
		})
	}
}

func TestItemFilter_Matches(t *testing.T) {
	garage := uuid.New()
	tools := uuid.New()
	fragile := uuid.New()

	item := &domain.Item{
		Name:     "Drill",
		Location: &domain.Ref{ID: garage, Name: "Garage"},
		Category: &domain.Ref{ID: tools, Name: "Tools"},
		Labels:   []domain.Ref{{ID: fragile, Name: "Fragile"}},
	}
	archived := &domain.Item{Name: "Old Drill", IsArchived: true}
	other := uuid.New()

	assert.True(t, domain.ItemFilter{}.Matches(item))
	assert.True(t, domain.ItemFilter{LocationID: &garage, CategoryID: &tools, LabelID: &fragile}.Matches(item))
	assert.False(t, domain.ItemFilter{LocationID: &other}.Matches(item))
	assert.False(t, domain.ItemFilter{CategoryID: &other}.Matches(item))
	assert.False(t, domain.ItemFilter{LabelID: &other}.Matches(item))
	assert.False(t, domain.ItemFilter{Search: "saw"}.Matches(item))
	assert.False(t, domain.ItemFilter{}.Matches(archived))
	assert.True(t, domain.ItemFilter{IncludeArchived: true}.Matches(archived))
	assert.False(t, domain.ItemFilter{LocationID: &garage}.Matches(archived))
}

func TestItem_TotalValue(t *testing.T) {
	item := &domain.Item{Quantity: 3, PurchasePrice: decimal.RequireFromString("19.99")}
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.TotalValue()))
}
