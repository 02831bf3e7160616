package search_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/search"
)

// fakeSource answers queries from an in-memory item list kept in name order
type fakeSource struct {
	mu      sync.Mutex
	items   []domain.Item
	queries []search.Query
	hook    func(q search.Query) error
}

func newFakeSource(items []domain.Item) *fakeSource {
	return &fakeSource{items: items}
}

func (f *fakeSource) setHook(hook func(q search.Query) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

func (f *fakeSource) QueryItems(ctx context.Context, q search.Query) (*search.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(q); err != nil {
			return nil, err
		}
	}

	filter := domain.ItemFilter{
		Search:          q.Search,
		IncludeArchived: q.Archived,
		LocationID:      refPtr(q.Location),
		CategoryID:      refPtr(q.Category),
		LabelID:         refPtr(q.Label),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []domain.Item
	for i := range f.items {
		if filter.Matches(&f.items[i]) {
			matches = append(matches, f.items[i])
		}
	}
	if q.Order == domain.SortDesc {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	start := (q.Page - 1) * q.Limit
	if start > len(matches) {
		start = len(matches)
	}
	end := start + q.Limit
	if end > len(matches) {
		end = len(matches)
	}
	page := make([]domain.Item, end-start)
	copy(page, matches[start:end])
	return &search.Page{Items: page, Total: len(matches)}, nil
}

func (f *fakeSource) recorded() []search.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]search.Query(nil), f.queries...)
}

func (f *fakeSource) lastPageQuery() search.Query {
	qs := f.recorded()
	for i := len(qs) - 1; i >= 0; i-- {
		if !isCorpusQuery(qs[i]) && qs[i].Search == "" {
			return qs[i]
		}
	}
	return search.Query{}
}

func (f *fakeSource) count(match func(search.Query) bool) int {
	n := 0
	for _, q := range f.recorded() {
		if match(q) {
			n++
		}
	}
	return n
}

func isCorpusQuery(q search.Query) bool {
	return q.Limit == search.DefaultCorpusLimit && q.Search == ""
}

func isSearchQuery(q search.Query) bool {
	return q.Search != ""
}

func refPtr(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}

// memPrefs is an in-memory PreferenceStore
type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: map[string]string{}}
}

func (p *memPrefs) GetPreference(_ context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	if !ok {
		return "", domain.ErrPreferenceNotFound
	}
	return v, nil
}

func (p *memPrefs) SetPreference(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return p.setErr
	}
	p.values[key] = value
	return nil
}

// errorLog collects ErrorFunc calls
type errorLog struct {
	mu       sync.Mutex
	messages []string
	errs     []error
}

func (l *errorLog) record(message string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, message)
	l.errs = append(l.errs, err)
}

func (l *errorLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

var (
	toolsCategory  = uuid.MustParse("c0000000-0000-0000-0000-000000000001")
	garageLocation = uuid.MustParse("10000000-0000-0000-0000-000000000001")
)

// seedItems builds 250 items in name order. Seven active items match "drill",
// each through a different field, on pages 3, 9 and 25 of ten items.
func seedItems() []domain.Item {
	items := make([]domain.Item, 0, 250)
	for i := 1; i <= 250; i++ {
		it := domain.Item{
			ID:       uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", i)),
			Name:     fmt.Sprintf("Item %03d", i),
			Quantity: i % 7,
			Labels:   []domain.Ref{},
		}
		switch i {
		case 22:
			it.Name += " Cordless Drill"
		case 25:
			it.Description = "Hammer DRILL with case"
		case 28:
			it.ModelNumber = "DRILL-28"
		case 85:
			it.Manufacturer = "DrillCo"
		case 88:
			it.ModelNumber = "DRILL-88"
		case 241:
			it.AssetID = "DRILL-PRESS"
		case 247:
			it.SerialNumber = "SN-DRILL-247"
		}
		if i%30 == 0 {
			it.Category = &domain.Ref{ID: toolsCategory, Name: "Tools"}
		}
		if i%50 == 0 {
			it.Location = &domain.Ref{ID: garageLocation, Name: "Garage"}
		}
		if i == 249 {
			it.IsArchived = true
			it.Name += " Broken Drill"
		}
		items = append(items, it)
	}
	return items
}

func uuidOf(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}
