// internal/core/domain/item.go
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrItemNotFound is returned when an item does not exist
	ErrItemNotFound = errors.New("item not found")
	// ErrValidation wraps input that fails domain validation
	ErrValidation = errors.New("validation failed")
)

// Ref is a resolved reference to a location, category or label
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Item represents a single catalogued item
type Item struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	AssetID       string          `json:"assetId"`
	SerialNumber  string          `json:"serialNumber"`
	ModelNumber   string          `json:"modelNumber"`
	Manufacturer  string          `json:"manufacturer"`
	UPCCode       string          `json:"upcCode"`
	Location      *Ref            `json:"location,omitempty"`
	Category      *Ref            `json:"category,omitempty"`
	Labels        []Ref           `json:"labels"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	IsArchived    bool            `json:"isArchived"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate performs domain validation on the item
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(i.Name) > 255 {
		return fmt.Errorf("name must be at most 255 characters")
	}
	if i.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if i.PurchasePrice.IsNegative() {
		return fmt.Errorf("purchase_price cannot be negative")
	}
	return nil
}

// PrepareForStorage assigns an ID and timestamps before the item is persisted
func (i *Item) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	if i.Labels == nil {
		i.Labels = []Ref{}
	}
}

// SearchableFields returns the text fields matched by free-text search, in match order
func (i *Item) SearchableFields() []string {
	return []string{
		i.Name,
		i.Description,
		i.AssetID,
		i.SerialNumber,
		i.ModelNumber,
		i.Manufacturer,
		i.UPCCode,
	}
}

// MatchesText reports whether any searchable field contains text, ignoring case.
// An empty text matches every item.
func (i *Item) MatchesText(text string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return true
	}
	for _, field := range i.SearchableFields() {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// HasLabel reports whether the item carries the label with the given ID
func (i *Item) HasLabel(id uuid.UUID) bool {
	for _, l := range i.Labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

// TotalValue is the purchase price multiplied by quantity
func (i *Item) TotalValue() decimal.Decimal {
	return i.PurchasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
