package domain

import (
	"github.com/google/uuid"
)

// SortOrder is the direction of an item listing
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort fields accepted by the item query endpoint
const (
	SortFieldName         = "name"
	SortFieldQuantity     = "quantity"
	SortFieldUpdatedAt    = "updatedAt"
	SortFieldCreatedAt    = "createdAt"
	SortFieldAssetID      = "assetId"
	SortFieldManufacturer = "manufacturer"
)

// IsValidSortField reports whether field can be used for ordering
func IsValidSortField(field string) bool {
	switch field {
	case SortFieldName, SortFieldQuantity, SortFieldUpdatedAt,
		SortFieldCreatedAt, SortFieldAssetID, SortFieldManufacturer:
		return true
	}
	return false
}

// ItemFilter narrows an item listing
type ItemFilter struct {
	Search          string
	LocationID      *uuid.UUID
	CategoryID      *uuid.UUID
	LabelID         *uuid.UUID
	IncludeArchived bool
}

// Matches applies the reference filters and the search text to a single item
func (f ItemFilter) Matches(item *Item) bool {
	if !f.IncludeArchived && item.IsArchived {
		return false
	}
	if f.LocationID != nil && (item.Location == nil || item.Location.ID != *f.LocationID) {
		return false
	}
	if f.CategoryID != nil && (item.Category == nil || item.Category.ID != *f.CategoryID) {
		return false
	}
	if f.LabelID != nil && !item.HasLabel(*f.LabelID) {
		return false
	}
	return item.MatchesText(f.Search)
}
