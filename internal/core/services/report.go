// internal/core/services/report.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

const (
	itemsSheetName  = "Items"
	reportPageLimit = 1000
)

// itemColumns is the workbook layout shared by export and import
var itemColumns = []string{
	"Name", "Description", "Asset ID", "Serial Number", "Model Number",
	"Manufacturer", "UPC", "Quantity", "Purchase Price", "Total Value",
	"Location", "Category", "Labels", "Archived", "Created At", "Updated At",
}

// ReportService renders item workbooks and parses uploaded ones
type ReportService struct {
	repo   ports.ItemRepository
	logger *slog.Logger
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a report service
func NewReportService(repo ports.ItemRepository, logger *slog.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger.With(slog.String("service", "reports")),
	}
}

// ItemsWorkbook writes every item matching filter to an xlsx workbook and
// returns the file with the number of item rows.
func (s *ReportService) ItemsWorkbook(ctx context.Context, filter domain.ItemFilter) ([]byte, int, error) {
	start := time.Now()

	var items []domain.Item
	for page := 1; ; page++ {
		batch, total, err := s.repo.List(ctx, ports.ListParams{
			Page:   page,
			Limit:  reportPageLimit,
			Sort:   domain.SortFieldName,
			Order:  domain.SortAsc,
			Filter: filter,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load items: %w", err)
		}
		items = append(items, batch...)
		if len(batch) < reportPageLimit || int64(len(items)) >= total {
			break
		}
	}

	data, err := WriteItemsWorkbook(items)
	if err != nil {
		return nil, 0, err
	}

	s.logger.InfoContext(ctx, "generated items workbook",
		slog.Int("rows", len(items)),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, len(items), nil
}

// WriteItemsWorkbook renders items into an xlsx file in memory
func WriteItemsWorkbook(items []domain.Item) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(itemsSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range itemColumns {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	totalQty := 0
	totalValue := decimal.Zero
	for i := range items {
		it := &items[i]
		row := sheet.AddRow()
		for _, v := range []string{it.Name, it.Description, it.AssetID, it.SerialNumber, it.ModelNumber, it.Manufacturer, it.UPCCode} {
			row.AddCell().Value = v
		}
		row.AddCell().SetInt(it.Quantity)
		row.AddCell().Value = it.PurchasePrice.StringFixed(2)
		row.AddCell().Value = it.TotalValue().StringFixed(2)
		row.AddCell().Value = refName(it.Location)
		row.AddCell().Value = refName(it.Category)
		row.AddCell().Value = labelNames(it.Labels)
		row.AddCell().Value = strconv.FormatBool(it.IsArchived)
		row.AddCell().Value = it.CreatedAt.UTC().Format(time.RFC3339)
		row.AddCell().Value = it.UpdatedAt.UTC().Format(time.RFC3339)

		totalQty += it.Quantity
		totalValue = totalValue.Add(it.TotalValue())
	}

	if len(items) > 0 {
		totals := sheet.AddRow()
		totals.AddCell().Value = "Total"
		for i := 1; i < 7; i++ {
			totals.AddCell()
		}
		totals.AddCell().SetInt(totalQty)
		totals.AddCell()
		totals.AddCell().Value = totalValue.StringFixed(2)
	}

	for i := range itemColumns {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

// importHeaders maps normalised header text to the item field it fills
var importHeaders = map[string]string{
	"name":           "name",
	"description":    "description",
	"asset id":       "asset_id",
	"serial":         "serial",
	"serial number":  "serial",
	"model":          "model",
	"model number":   "model",
	"manufacturer":   "manufacturer",
	"upc":            "upc",
	"upc code":       "upc",
	"quantity":       "quantity",
	"qty":            "quantity",
	"purchase price": "price",
	"price":          "price",
	"location":       "location",
	"category":       "category",
	"labels":         "labels",
	"archived":       "archived",
}

// ParseItemsWorkbook reads items from the first sheet of an xlsx file. The
// first row names the columns; unknown columns are ignored, so both the
// export layout and a hand-written import sheet parse. Rows without a name,
// including the export totals row, are skipped.
func ParseItemsWorkbook(data []byte) ([]domain.Item, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var (
		items   []domain.Item
		columns map[string]int
		rowIdx  int
	)
	sheet := file.Sheets[0]
	err = sheet.ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if columns == nil {
			columns = headerColumns(r, sheet.MaxCol)
			if _, ok := columns["name"]; !ok {
				return fmt.Errorf("header row has no Name column")
			}
			return nil
		}
		item, err := parseItemRow(r, columns)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowIdx, err)
		}
		if item != nil {
			items = append(items, *item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process Excel rows: %w", err)
	}

	return items, nil
}

func headerColumns(r *xlsx.Row, maxCol int) map[string]int {
	columns := map[string]int{}
	for i := 0; i < maxCol; i++ {
		c := r.GetCell(i)
		if c == nil {
			continue
		}
		header := strings.ToLower(strings.Join(strings.Fields(c.Value), " "))
		if field, ok := importHeaders[header]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	return columns
}

func parseItemRow(r *xlsx.Row, columns map[string]int) (*domain.Item, error) {
	get := func(field string) string {
		i, ok := columns[field]
		if !ok {
			return ""
		}
		c := r.GetCell(i)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(c.String())
	}

	name := get("name")
	if name == "" || name == "Total" {
		return nil, nil
	}

	qty := 1
	if s := get("quantity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q", s)
		}
		qty = n
	}

	price := decimal.Zero
	if s := strings.ReplaceAll(strings.TrimPrefix(get("price"), "$"), ",", ""); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid purchase price %q", s)
		}
		price = d
	}

	archived, _ := strconv.ParseBool(get("archived"))

	return &domain.Item{
		Name:          name,
		Description:   get("description"),
		AssetID:       get("asset_id"),
		SerialNumber:  get("serial"),
		ModelNumber:   get("model"),
		Manufacturer:  get("manufacturer"),
		UPCCode:       get("upc"),
		Location:      namedRef(get("location")),
		Category:      namedRef(get("category")),
		Labels:        parseLabels(get("labels")),
		Quantity:      qty,
		PurchasePrice: price,
		IsArchived:    archived,
	}, nil
}

// namedRef returns a reference resolved by name on save
func namedRef(name string) *domain.Ref {
	if name == "" {
		return nil
	}
	return &domain.Ref{Name: name}
}

func parseLabels(s string) []domain.Ref {
	labels := []domain.Ref{}
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			labels = append(labels, domain.Ref{Name: name})
		}
	}
	return labels
}

func refName(r *domain.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func labelNames(labels []domain.Ref) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}
