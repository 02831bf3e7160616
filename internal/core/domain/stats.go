package domain

import "github.com/shopspring/decimal"

// NamedCount is a count grouped by a reference name
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// InventoryStats summarises the catalogue
type InventoryStats struct {
	TotalItems    int64           `json:"totalItems"`
	TotalQuantity int64           `json:"totalQuantity"`
	ArchivedItems int64           `json:"archivedItems"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	ByCategory    []NamedCount    `json:"byCategory"`
	ByLocation    []NamedCount    `json:"byLocation"`
}
