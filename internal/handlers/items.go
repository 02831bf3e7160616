// internal/handlers/items.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 10000
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	service ports.ItemService
	logger  *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(service ports.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "items")),
	}
}

// ListItems handles GET /api/v1/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list items")
		return
	}

	respondList(w, h.logger, result.Items, result.Total)
}

// GetItem handles GET /api/v1/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve item")
		return
	}

	respondData(w, h.logger, http.StatusOK, item)
}

// CreateItem handles POST /api/v1/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()
	if err := h.service.CreateItem(ctx, item); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create item")
		return
	}

	h.logger.InfoContext(ctx, "item created",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	respondData(w, h.logger, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()
	if err := h.service.UpdateItem(ctx, id, item); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update item")
		return
	}

	updated, err := h.service.GetItem(ctx, id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve item")
		return
	}

	respondData(w, h.logger, http.StatusOK, updated)
}

// UpdateQuantity handles PATCH /api/v1/items/{id}/quantity
func (h *ItemHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == nil {
		respondError(w, h.logger, http.StatusBadRequest, "quantity is required")
		return
	}

	item, err := h.service.UpdateQuantity(r.Context(), id, *req.Quantity)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update quantity")
		return
	}

	respondData(w, h.logger, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseListParams reads the item query parameters. Page and limit fall back
// to defaults; malformed filters and sort fields are rejected.
func parseListParams(r *http.Request) (ports.ListParams, error) {
	q := r.URL.Query()

	params := ports.ListParams{
		Page:  1,
		Limit: defaultPageLimit,
		Sort:  domain.SortFieldName,
		Order: domain.SortAsc,
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		params.Limit = min(limit, maxPageLimit)
	}

	if sort := q.Get("sort"); sort != "" {
		if !domain.IsValidSortField(sort) {
			return params, fmt.Errorf("invalid sort field %q", sort)
		}
		params.Sort = sort
	}
	switch order := strings.ToLower(q.Get("order")); order {
	case "":
	case string(domain.SortAsc), string(domain.SortDesc):
		params.Order = domain.SortOrder(order)
	default:
		return params, fmt.Errorf("invalid sort order %q", order)
	}

	params.Filter.Search = strings.TrimSpace(q.Get("search"))
	params.Filter.IncludeArchived = q.Get("archived") == "true"

	var err error
	if params.Filter.LocationID, err = optionalUUID(q.Get("location"), "location"); err != nil {
		return params, err
	}
	if params.Filter.CategoryID, err = optionalUUID(q.Get("category"), "category"); err != nil {
		return params, err
	}
	if params.Filter.LabelID, err = optionalUUID(q.Get("label"), "label"); err != nil {
		return params, err
	}

	return params, nil
}

func optionalUUID(value, name string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s ID %q", name, value)
	}
	return &id, nil
}

// Request DTOs

// RefRequest names a location, category or label. An ID selects an existing
// reference; a name alone is resolved or created on save.
type RefRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

func (r *RefRequest) validate(field string) error {
	if r.ID != "" {
		if _, err := uuid.Parse(r.ID); err != nil {
			return fmt.Errorf("%s.id is not a valid ID", field)
		}
	}
	if r.ID == "" && strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%s needs an id or a name", field)
	}
	return nil
}

func (r *RefRequest) toDomain() domain.Ref {
	ref := domain.Ref{Name: strings.TrimSpace(r.Name)}
	if id, err := uuid.Parse(r.ID); err == nil {
		ref.ID = id
	}
	return ref
}

// ItemRequest represents the request body for creating or replacing an item
type ItemRequest struct {
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	AssetID       string           `json:"assetId,omitempty"`
	SerialNumber  string           `json:"serialNumber,omitempty"`
	ModelNumber   string           `json:"modelNumber,omitempty"`
	Manufacturer  string           `json:"manufacturer,omitempty"`
	UPCCode       string           `json:"upcCode,omitempty"`
	Location      *RefRequest      `json:"location,omitempty"`
	Category      *RefRequest      `json:"category,omitempty"`
	Labels        []RefRequest     `json:"labels,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	IsArchived    bool             `json:"isArchived,omitempty"`
}

// Validate validates the item request
func (r *ItemRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Quantity != nil && *r.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if r.PurchasePrice != nil && r.PurchasePrice.IsNegative() {
		return fmt.Errorf("purchasePrice cannot be negative")
	}
	if r.Location != nil {
		if err := r.Location.validate("location"); err != nil {
			return err
		}
	}
	if r.Category != nil {
		if err := r.Category.validate("category"); err != nil {
			return err
		}
	}
	for i := range r.Labels {
		if err := r.Labels[i].validate(fmt.Sprintf("labels[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// ToDomain converts the request to a domain model. Quantity defaults to 1.
func (r *ItemRequest) ToDomain() *domain.Item {
	item := &domain.Item{
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		AssetID:      r.AssetID,
		SerialNumber: r.SerialNumber,
		ModelNumber:  r.ModelNumber,
		Manufacturer: r.Manufacturer,
		UPCCode:      r.UPCCode,
		Quantity:     1,
		IsArchived:   r.IsArchived,
		Labels:       make([]domain.Ref, 0, len(r.Labels)),
	}

	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.PurchasePrice != nil {
		item.PurchasePrice = *r.PurchasePrice
	}
	if r.Location != nil {
		ref := r.Location.toDomain()
		item.Location = &ref
	}
	if r.Category != nil {
		ref := r.Category.toDomain()
		item.Category = &ref
	}
	for i := range r.Labels {
		item.Labels = append(item.Labels, r.Labels[i].toDomain())
	}

	return item
}
