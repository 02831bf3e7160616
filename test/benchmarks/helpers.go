// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

var benchWords = []string{
	"drill", "router", "camera", "skillet", "tent", "lamp", "mixer",
	"sander", "speaker", "kayak", "shredder", "monitor", "grinder",
}

// benchmarkCorpus builds count items with a handful of shared references so
// filters hit a realistic share of the snapshot.
func benchmarkCorpus(count int) ([]domain.Item, uuid.UUID) {
	garage := &domain.Ref{ID: uuid.New(), Name: "Garage"}
	refs := []*domain.Ref{
		garage,
		{ID: uuid.New(), Name: "Basement"},
		{ID: uuid.New(), Name: "Attic"},
		{ID: uuid.New(), Name: "Office"},
	}
	power := domain.Ref{ID: uuid.New(), Name: "power"}

	items := make([]domain.Item, count)
	for i := range items {
		word := benchWords[i%len(benchWords)]
		items[i] = domain.Item{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("%s %d", strings.ToUpper(word[:1])+word[1:], i),
			Description:   fmt.Sprintf("benchmark %s number %d", word, i),
			AssetID:       fmt.Sprintf("%03d-%03d", i/1000, i%1000),
			SerialNumber:  fmt.Sprintf("SN-%06d", i),
			Manufacturer:  "Acme",
			Location:      refs[i%len(refs)],
			Labels:        []domain.Ref{},
			Quantity:      i%5 + 1,
			PurchasePrice: decimal.New(int64(1000+i), -2),
			IsArchived:    i%20 == 0,
		}
		if i%3 == 0 {
			items[i].Labels = append(items[i].Labels, power)
		}
	}
	return items, garage.ID
}

func filterCount(items []domain.Item, f domain.ItemFilter) int {
	n := 0
	for i := range items {
		if f.Matches(&items[i]) {
			n++
		}
	}
	return n
}
