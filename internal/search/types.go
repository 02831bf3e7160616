// Package search keeps a single coherent item list view over two retrieval
// paths: paginated server queries while no search is active, and an in-memory
// snapshot of the whole collection for instant text search.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// ErrInvalidFilter is reported for unknown filter names
var ErrInvalidFilter = errors.New("invalid filter")

// Query is one request to the item query endpoint
type Query struct {
	Page     int // 1-based
	Limit    int
	Sort     string
	Order    domain.SortOrder
	Search   string
	Location string
	Category string
	Label    string
	Archived bool
}

// Values encodes the query as endpoint parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", string(q.Order))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Location != "" {
		v.Set(string(FilterLocation), q.Location)
	}
	if q.Category != "" {
		v.Set(string(FilterCategory), q.Category)
	}
	if q.Label != "" {
		v.Set(string(FilterLabel), q.Label)
	}
	if q.Archived {
		v.Set(string(FilterArchived), "true")
	}
	return v
}

// Page is one response from the item query endpoint
type Page struct {
	Items []domain.Item
	Total int
}

// ItemSource queries the remote item collection
type ItemSource interface {
	QueryItems(ctx context.Context, q Query) (*Page, error)
}

// PreferenceStore persists display preferences across sessions.
// GetPreference returns domain.ErrPreferenceNotFound for unset keys.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// AddressBar reads and replaces the query string of the current view.
// ReplaceQuery must replace the current history entry, never push a new one.
type AddressBar interface {
	Query() url.Values
	ReplaceQuery(values url.Values)
}

// ErrorFunc receives a human readable message for every failed operation
type ErrorFunc func(message string, err error)

// FilterName identifies a list filter
type FilterName string

const (
	FilterLocation FilterName = "location"
	FilterCategory FilterName = "category"
	FilterLabel    FilterName = "label"
	FilterArchived FilterName = "archived"
)

var filterNames = []FilterName{FilterLocation, FilterCategory, FilterLabel, FilterArchived}

// Filters is the active filter set. Reference filters hold IDs.
type Filters struct {
	Location string `json:"location,omitempty"`
	Category string `json:"category,omitempty"`
	Label    string `json:"label,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f Filters) IsEmpty() bool {
	return f == Filters{}
}

// With returns a copy of f with name set to value. An empty value removes the filter.
func (f Filters) With(name FilterName, value string) (Filters, error) {
	switch name {
	case FilterLocation:
		f.Location = value
	case FilterCategory:
		f.Category = value
	case FilterLabel:
		f.Label = value
	case FilterArchived:
		switch value {
		case "", "false":
			f.Archived = false
		case "true":
			f.Archived = true
		default:
			return f, fmt.Errorf("%w: archived must be true or false, got %q", ErrInvalidFilter, value)
		}
	default:
		return f, fmt.Errorf("%w: %q", ErrInvalidFilter, name)
	}
	return f, nil
}

// FiltersFromQuery reads the filter set mirrored into a query string
func FiltersFromQuery(v url.Values) Filters {
	return Filters{
		Location: v.Get(string(FilterLocation)),
		Category: v.Get(string(FilterCategory)),
		Label:    v.Get(string(FilterLabel)),
		Archived: v.Get(string(FilterArchived)) == "true",
	}
}

// ApplyToQuery returns a copy of v with the filter parameters set or removed.
// Unrelated parameters are preserved.
func (f Filters) ApplyToQuery(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	for _, name := range filterNames {
		out.Del(string(name))
	}
	if f.Location != "" {
		out.Set(string(FilterLocation), f.Location)
	}
	if f.Category != "" {
		out.Set(string(FilterCategory), f.Category)
	}
	if f.Label != "" {
		out.Set(string(FilterLabel), f.Label)
	}
	if f.Archived {
		out.Set(string(FilterArchived), "true")
	}
	return out
}

// itemFilter converts the set into a matcher for client-side search.
// IDs that do not parse match nothing.
func (f Filters) itemFilter(text string) domain.ItemFilter {
	return domain.ItemFilter{
		Search:          text,
		LocationID:      parseRef(f.Location),
		CategoryID:      parseRef(f.Category),
		LabelID:         parseRef(f.Label),
		IncludeArchived: f.Archived,
	}
}

func parseRef(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		id = uuid.Nil
	}
	return &id
}

// Mode tells which retrieval path produced the visible items
type Mode string

const (
	ModeServer  Mode = "server"  // server page, no search
	ModeClient  Mode = "client"  // search over the full corpus
	ModeRemote  Mode = "remote"  // server-side search fallback
	ModeInterim Mode = "interim" // search over the last server page while the corpus loads
)

// View is a consistent snapshot of the controller state
type View struct {
	Items               []domain.Item
	TotalItems          int
	PageIndex           int
	PageSize            int
	SortField           string
	SortDirection       domain.SortOrder
	Filters             Filters
	QueryText           string
	CommittedSearchText string
	Searching           bool
	Loading             bool
	Mode                Mode
	Corpus              CorpusStatus
	Error               string
}
