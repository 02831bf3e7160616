// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// querier is the subset of DBTX shared with pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const labelsColumn = `COALESCE((
	SELECT json_agg(json_build_object('id', lb.id, 'name', lb.name) ORDER BY lb.name)
	FROM item_labels il JOIN labels lb ON lb.id = il.label_id
	WHERE il.item_id = i.id), '[]'::json) AS labels`

var itemSelectColumns = []string{
	"i.id", "i.name", "i.description", "i.asset_id", "i.serial_number",
	"i.model_number", "i.manufacturer", "i.upc_code",
	"i.location_id", "loc.name", "i.category_id", "cat.name",
	"i.quantity", "i.purchase_price", "i.is_archived", "i.created_at", "i.updated_at",
	labelsColumn,
}

var itemSortColumns = map[string]string{
	domain.SortFieldName:         "i.name",
	domain.SortFieldQuantity:     "i.quantity",
	domain.SortFieldUpdatedAt:    "i.updated_at",
	domain.SortFieldCreatedAt:    "i.created_at",
	domain.SortFieldAssetID:      "i.asset_id",
	domain.SortFieldManufacturer: "i.manufacturer",
}

// ItemRepository implements ports.ItemRepository on Postgres
type ItemRepository struct {
	db     DBTX
	logger *slog.Logger
}

// Statically assert that *ItemRepository implements the ItemRepository interface.
var _ ports.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db DBTX, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "items")),
	}
}

// Save creates a new item together with its references and labels
func (r *ItemRepository) Save(ctx context.Context, item *domain.Item) error {
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		return r.insert(ctx, tx, item)
	})
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	r.logger.DebugContext(ctx, "item saved",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// SaveBatch saves multiple items in a single transaction
func (r *ItemRepository) SaveBatch(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		for i := range items {
			if err := r.insert(ctx, tx, &items[i]); err != nil {
				return fmt.Errorf("failed to save item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "item batch saved", slog.Int("count", len(items)))
	return nil
}

func (r *ItemRepository) insert(ctx context.Context, q querier, item *domain.Item) error {
	locationID, err := upsertRef(ctx, q, "locations", item.Location)
	if err != nil {
		return err
	}
	categoryID, err := upsertRef(ctx, q, "categories", item.Category)
	if err != nil {
		return err
	}

	sql, args, err := psql.Insert("items").
		Columns("id", "name", "description", "asset_id", "serial_number", "model_number",
			"manufacturer", "upc_code", "location_id", "category_id", "quantity",
			"purchase_price", "is_archived", "created_at", "updated_at").
		Values(item.ID, item.Name, item.Description, item.AssetID, item.SerialNumber, item.ModelNumber,
			item.Manufacturer, item.UPCCode, locationID, categoryID, item.Quantity,
			item.PurchasePrice, item.IsArchived, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return replaceLabels(ctx, q, item.ID, item.Labels)
}

// Update replaces the editable fields of an item
func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		locationID, err := upsertRef(ctx, tx, "locations", item.Location)
		if err != nil {
			return err
		}
		categoryID, err := upsertRef(ctx, tx, "categories", item.Category)
		if err != nil {
			return err
		}

		sql, args, err := psql.Update("items").
			SetMap(map[string]any{
				"name":           item.Name,
				"description":    item.Description,
				"asset_id":       item.AssetID,
				"serial_number":  item.SerialNumber,
				"model_number":   item.ModelNumber,
				"manufacturer":   item.Manufacturer,
				"upc_code":       item.UPCCode,
				"location_id":    locationID,
				"category_id":    categoryID,
				"quantity":       item.Quantity,
				"purchase_price": item.PurchasePrice,
				"is_archived":    item.IsArchived,
				"updated_at":     item.UpdatedAt,
			}).
			Where(squirrel.Eq{"id": item.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update: %w", err)
		}

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.ID)
		}

		return replaceLabels(ctx, tx, item.ID, item.Labels)
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "item updated", slog.String("item_id", item.ID.String()))
	return nil
}

// UpdateQuantity sets the quantity of one item and returns the stored row
func (r *ItemRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE items SET quantity = $1, updated_at = $2 WHERE id = $3`,
		quantity, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}

	return r.FindByID(ctx, id)
}

// FindByID retrieves an item by ID
func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	sql, args, err := selectItems().Where(squirrel.Eq{"i.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	return item, nil
}

// List returns one page of items matching the filter and the total match count
func (r *ItemRepository) List(ctx context.Context, params ports.ListParams) ([]domain.Item, int64, error) {
	where := filterConditions(params.Filter)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("items i").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	qb := selectItems().Where(where).OrderBy(orderClause(params.Sort, params.Order), "i.id ASC")
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if offset := params.Offset(); offset > 0 {
		qb = qb.Offset(uint64(offset))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, params.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, total, nil
}

// Delete permanently removes an item. Labels and attachment rows cascade.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}

	r.logger.DebugContext(ctx, "item deleted", slog.String("item_id", id.String()))
	return nil
}

// Stats aggregates totals over active items plus the archived count
func (r *ItemRepository) Stats(ctx context.Context) (*domain.InventoryStats, error) {
	stats := &domain.InventoryStats{
		ByCategory: []domain.NamedCount{},
		ByLocation: []domain.NamedCount{},
	}

	sql, args, err := psql.Select(
		"COUNT(*) FILTER (WHERE NOT is_archived)",
		"COALESCE(SUM(quantity) FILTER (WHERE NOT is_archived), 0)",
		"COUNT(*) FILTER (WHERE is_archived)",
		"COALESCE(SUM(purchase_price * quantity) FILTER (WHERE NOT is_archived), 0)",
	).From("items").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&stats.TotalItems, &stats.TotalQuantity, &stats.ArchivedItems, &stats.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	if stats.ByCategory, err = r.countBy(ctx, "categories"); err != nil {
		return nil, err
	}
	if stats.ByLocation, err = r.countBy(ctx, "locations"); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ItemRepository) countBy(ctx context.Context, table string) ([]domain.NamedCount, error) {
	column := map[string]string{"categories": "category_id", "locations": "location_id"}[table]

	sql, args, err := psql.Select("COALESCE(ref.name, '')", "COUNT(*)").
		From("items i").
		LeftJoin(fmt.Sprintf("%s ref ON ref.id = i.%s", table, column)).
		Where(squirrel.Eq{"i.is_archived": false}).
		GroupBy("ref.name").
		OrderBy("COUNT(*) DESC", "ref.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s stats query: %w", table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s stats: %w", table, err)
	}
	defer rows.Close()

	counts := []domain.NamedCount{}
	for rows.Next() {
		var c domain.NamedCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s stats: %w", table, err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func selectItems() squirrel.SelectBuilder {
	return psql.Select(itemSelectColumns...).
		From("items i").
		LeftJoin("locations loc ON loc.id = i.location_id").
		LeftJoin("categories cat ON cat.id = i.category_id")
}

func filterConditions(f domain.ItemFilter) squirrel.And {
	where := squirrel.And{}

	if !f.IncludeArchived {
		where = append(where, squirrel.Eq{"i.is_archived": false})
	}
	if f.LocationID != nil {
		where = append(where, squirrel.Eq{"i.location_id": *f.LocationID})
	}
	if f.CategoryID != nil {
		where = append(where, squirrel.Eq{"i.category_id": *f.CategoryID})
	}
	if f.LabelID != nil {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM item_labels fl WHERE fl.item_id = i.id AND fl.label_id = ?)", *f.LabelID))
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		or := squirrel.Or{}
		for _, column := range []string{
			"i.name", "i.description", "i.asset_id", "i.serial_number",
			"i.model_number", "i.manufacturer", "i.upc_code",
		} {
			or = append(or, squirrel.ILike{column: pattern})
		}
		where = append(where, or)
	}

	return where
}

func orderClause(field string, order domain.SortOrder) string {
	column, ok := itemSortColumns[field]
	if !ok {
		column = "i.updated_at"
		if order == "" {
			order = domain.SortDesc
		}
	}

	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}

	if column == "i.name" || column == "i.manufacturer" || column == "i.asset_id" {
		return fmt.Sprintf("LOWER(%s) %s", column, direction)
	}
	return fmt.Sprintf("%s %s", column, direction)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// upsertRef resolves a reference by name, creating it when missing
func upsertRef(ctx context.Context, q querier, table string, ref *domain.Ref) (*uuid.UUID, error) {
	if ref == nil {
		return nil, nil
	}
	if strings.TrimSpace(ref.Name) == "" {
		if ref.ID == uuid.Nil {
			return nil, nil
		}
		id := ref.ID
		return &id, nil
	}

	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}

	var id uuid.UUID
	err := q.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, table),
		ref.ID, strings.TrimSpace(ref.Name)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s %q: %w", table, ref.Name, err)
	}

	ref.ID = id
	return &id, nil
}

func replaceLabels(ctx context.Context, q querier, itemID uuid.UUID, labels []domain.Ref) error {
	if _, err := q.Exec(ctx, `DELETE FROM item_labels WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}

	for i := range labels {
		labelID, err := upsertRef(ctx, q, "labels", &labels[i])
		if err != nil {
			return err
		}
		if labelID == nil {
			continue
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO item_labels (item_id, label_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			itemID, *labelID); err != nil {
			return fmt.Errorf("failed to attach label: %w", err)
		}
	}

	return nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		item                   domain.Item
		locationID, categoryID *uuid.UUID
		locationName, catName  *string
		price                  decimal.Decimal
		labels                 []byte
	)

	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.AssetID, &item.SerialNumber,
		&item.ModelNumber, &item.Manufacturer, &item.UPCCode,
		&locationID, &locationName, &categoryID, &catName,
		&item.Quantity, &price, &item.IsArchived, &item.CreatedAt, &item.UpdatedAt,
		&labels,
	)
	if err != nil {
		return nil, err
	}

	item.PurchasePrice = price
	item.Location = toRef(locationID, locationName)
	item.Category = toRef(categoryID, catName)

	item.Labels = []domain.Ref{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &item.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels: %w", err)
		}
	}

	return &item, nil
}

func toRef(id *uuid.UUID, name *string) *domain.Ref {
	if id == nil {
		return nil
	}
	ref := &domain.Ref{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}
