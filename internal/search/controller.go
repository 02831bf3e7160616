package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/romdo/go-debounce"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// Controller defaults
const (
	DefaultPageSize          = 10
	DefaultURLFilterPageSize = 50
	DefaultCorpusLimit       = 10000
	DefaultDebounceWait      = 800 * time.Millisecond
	DefaultSortField         = domain.SortFieldName

	maxCorpusPages = 100
)

// Option configures a Controller
type Option func(*Controller)

// WithErrorFunc sets the callback that receives failure messages
func WithErrorFunc(fn ErrorFunc) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithDebounce sets the quiet period before the server search fallback fires
func WithDebounce(wait time.Duration) Option {
	return func(c *Controller) { c.debounceWait = wait }
}

// WithPageSizes sets the default page size and the page size used when filters come from the URL
func WithPageSizes(defaultSize, urlFilterSize int) Option {
	return func(c *Controller) {
		c.defaultPageSize = defaultSize
		c.urlFilterPageSize = urlFilterSize
	}
}

// WithCorpusLimit sets the page size used to load the full corpus
func WithCorpusLimit(limit int) Option {
	return func(c *Controller) { c.corpusLimit = limit }
}

type state struct {
	pageIndex int
	pageSize  int
	sortField string
	sortDir   domain.SortOrder
	filters   Filters

	queryText       string
	committedSearch string

	serverPage  []domain.Item
	serverTotal int

	// server fallback results, valid only for searchText
	searchPage  []domain.Item
	searchTotal int
	searchText  string

	visible []domain.Item
	total   int
	mode    Mode

	loading       bool
	searchLoading bool
	lastError     string
}

// Controller owns the item list state: pagination, sorting, filters and search.
// All operations are safe for concurrent use. Failures are delivered to the
// ErrorFunc and never returned.
type Controller struct {
	source  ItemSource
	prefs   PreferenceStore
	address AddressBar
	onError ErrorFunc
	logger  *slog.Logger

	defaultPageSize   int
	urlFilterPageSize int
	corpusLimit       int
	debounceWait      time.Duration

	mu sync.RWMutex
	st state

	corpus       *corpusCache
	reportedLoad atomic.Int64

	pageSeq   atomic.Uint64
	searchSeq atomic.Uint64

	initOnce       sync.Once
	debounced      func()
	cancelDebounce func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController wires a controller to its collaborators
func NewController(source ItemSource, prefs PreferenceStore, address AddressBar, logger *slog.Logger, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:            source,
		prefs:             prefs,
		address:           address,
		onError:           func(string, error) {},
		logger:            logger.With(slog.String("component", "search_controller")),
		defaultPageSize:   DefaultPageSize,
		urlFilterPageSize: DefaultURLFilterPageSize,
		corpusLimit:       DefaultCorpusLimit,
		debounceWait:      DefaultDebounceWait,
		ctx:               ctx,
		cancel:            cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.st = state{
		pageSize:  c.defaultPageSize,
		sortField: DefaultSortField,
		sortDir:   domain.SortAsc,
		mode:      ModeServer,
	}
	c.corpus = newCorpusCache(c.loadCorpus)
	c.debounced, c.cancelDebounce = debounce.New(c.debounceWait, c.runServerSearch)
	return c
}

// Initialize reads filters from the address bar, fetches the first page and
// starts loading the full corpus in the background. Only the first call has
// any effect.
func (c *Controller) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		filters := FiltersFromQuery(c.address.Query())

		pageSize := c.urlFilterPageSize
		if filters.IsEmpty() {
			pageSize = c.preferredPageSize(ctx)
		}

		c.mu.Lock()
		c.st.filters = filters
		c.st.pageSize = pageSize
		c.st.pageIndex = 0
		c.mu.Unlock()

		c.logger.InfoContext(ctx, "initializing item search",
			slog.Int("page_size", pageSize),
			slog.Any("filters", filters))

		c.fetchPage(ctx)
		c.loadCorpusAsync(ctx)
	})
}

// ChangeSearchText filters immediately against whatever is held locally and
// schedules the debounced server fallback. Empty text clears the search.
func (c *Controller) ChangeSearchText(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		c.ClearSearch(ctx)
		return
	}

	c.mu.Lock()
	c.st.queryText = text
	c.st.pageIndex = 0
	c.recomputeLocked()
	servable := c.clientSearchableLocked()
	c.mu.Unlock()

	if !servable {
		c.loadCorpusAsync(ctx)
	}
	c.debounced()
}

// ClearSearch drops the search text and refetches the current server page
func (c *Controller) ClearSearch(ctx context.Context) {
	c.mu.Lock()
	c.st.queryText = ""
	c.st.committedSearch = ""
	c.dropSearchResultsLocked()
	c.recomputeLocked()
	c.mu.Unlock()

	c.fetchPage(ctx)
}

// ChangePage moves to a 0-based page index
func (c *Controller) ChangePage(ctx context.Context, index int) {
	if index < 0 {
		index = 0
	}
	c.mu.Lock()
	c.st.pageIndex = index
	c.mu.Unlock()

	c.fetchPage(ctx)
}

// ChangePageSize stores the new size as the user's preference and returns to the first page
func (c *Controller) ChangePageSize(ctx context.Context, size int) {
	if size <= 0 {
		c.report(ctx, MessageInvalidInput, fmt.Errorf("page size must be positive, got %d", size))
		return
	}

	if c.prefs != nil {
		if err := c.prefs.SetPreference(ctx, domain.PreferenceKeyPageSize, strconv.Itoa(size)); err != nil {
			c.report(ctx, failureMessage(MessageSaveFailed, err), err)
		}
	}

	c.mu.Lock()
	c.st.pageSize = size
	c.st.pageIndex = 0
	c.mu.Unlock()

	c.fetchPage(ctx)
}

// SetFilter sets or, with an empty value, removes one filter and mirrors it into the address bar
func (c *Controller) SetFilter(ctx context.Context, name FilterName, value string) {
	c.mu.Lock()
	filters, err := c.st.filters.With(name, value)
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, MessageInvalidInput, err)
		return
	}
	c.applyFiltersLocked(filters)
	c.mu.Unlock()

	c.syncAddress(filters)
	c.afterFilterChange(ctx)
}

// ClearFilters removes every filter from state and from the address bar
func (c *Controller) ClearFilters(ctx context.Context) {
	c.mu.Lock()
	c.applyFiltersLocked(Filters{})
	c.mu.Unlock()

	c.syncAddress(Filters{})
	c.afterFilterChange(ctx)
}

// SetSort flips the direction when field is already the sort field, otherwise
// sorts ascending by field
func (c *Controller) SetSort(ctx context.Context, field string) {
	if !domain.IsValidSortField(field) {
		c.report(ctx, MessageInvalidInput, fmt.Errorf("invalid sort field %q", field))
		return
	}

	c.mu.Lock()
	if c.st.sortField == field {
		if c.st.sortDir == domain.SortAsc {
			c.st.sortDir = domain.SortDesc
		} else {
			c.st.sortDir = domain.SortAsc
		}
	} else {
		c.st.sortField = field
		c.st.sortDir = domain.SortAsc
	}
	c.st.pageIndex = 0
	c.mu.Unlock()

	c.fetchPage(ctx)
}

// UpdateItemQuantity mirrors a successful external quantity update into every
// collection holding the item. It reports whether any copy was found.
func (c *Controller) UpdateItemQuantity(id uuid.UUID, quantity int) bool {
	set := func(it *domain.Item) {
		it.Quantity = quantity
		it.UpdatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	found := updateInPlace(c.st.serverPage, id, set)
	found = updateInPlace(c.st.searchPage, id, set) || found
	found = c.corpus.Update(id, set) || found
	if found {
		c.recomputeLocked()
	}
	return found
}

// InvalidateCorpus drops the full snapshot; the next search reloads it
func (c *Controller) InvalidateCorpus() {
	c.corpus.Invalidate()

	c.mu.Lock()
	c.recomputeLocked()
	c.mu.Unlock()
}

// DismissError clears the last reported message
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.st.lastError = ""
	c.mu.Unlock()
}

// Snapshot returns the visible state; items and total always belong together
func (c *Controller) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]domain.Item, len(c.st.visible))
	copy(items, c.st.visible)

	return View{
		Items:               items,
		TotalItems:          c.st.total,
		PageIndex:           c.st.pageIndex,
		PageSize:            c.st.pageSize,
		SortField:           c.st.sortField,
		SortDirection:       c.st.sortDir,
		Filters:             c.st.filters,
		QueryText:           c.st.queryText,
		CommittedSearchText: c.st.committedSearch,
		Searching:           strings.TrimSpace(c.st.queryText) != "",
		Loading:             c.st.loading || c.st.searchLoading,
		Mode:                c.st.mode,
		Corpus:              c.corpus.Status(),
		Error:               c.st.lastError,
	}
}

// CorpusLoads returns how many full corpus fetches were made
func (c *Controller) CorpusLoads() int64 {
	return c.corpus.Loads()
}

// Close cancels the pending server search and waits for background loads
func (c *Controller) Close() {
	c.cancelDebounce()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) preferredPageSize(ctx context.Context) int {
	if c.prefs == nil {
		return c.defaultPageSize
	}
	raw, err := c.prefs.GetPreference(ctx, domain.PreferenceKeyPageSize)
	if err != nil {
		if !errors.Is(err, domain.ErrPreferenceNotFound) {
			c.logger.WarnContext(ctx, "failed to read page size preference",
				slog.String("error", err.Error()))
		}
		return c.defaultPageSize
	}
	size, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || size <= 0 {
		c.logger.WarnContext(ctx, "ignoring invalid page size preference", slog.String("value", raw))
		return c.defaultPageSize
	}
	return size
}

func (c *Controller) applyFiltersLocked(filters Filters) {
	c.st.filters = filters
	c.st.pageIndex = 0
	c.dropSearchResultsLocked()
	c.recomputeLocked()
}

func (c *Controller) afterFilterChange(ctx context.Context) {
	c.mu.RLock()
	searching := strings.TrimSpace(c.st.queryText) != ""
	servable := c.clientSearchableLocked()
	c.mu.RUnlock()

	c.fetchPage(ctx)
	if searching && !servable {
		c.debounced()
	}
}

func (c *Controller) syncAddress(filters Filters) {
	if c.address == nil {
		return
	}
	c.address.ReplaceQuery(filters.ApplyToQuery(c.address.Query()))
}

func (c *Controller) dropSearchResultsLocked() {
	c.searchSeq.Add(1)
	c.st.searchPage = nil
	c.st.searchTotal = 0
	c.st.searchText = ""
	c.st.searchLoading = false
}

// clientSearchableLocked reports whether the corpus can answer searches under
// the current filters. The corpus never contains archived items.
func (c *Controller) clientSearchableLocked() bool {
	return !c.st.filters.Archived && c.corpus.Status() == CorpusReady
}

// recomputeLocked derives the visible items and their total in one step
func (c *Controller) recomputeLocked() {
	text := strings.TrimSpace(c.st.queryText)
	if text == "" {
		c.st.visible = c.st.serverPage
		c.st.total = c.st.serverTotal
		c.st.mode = ModeServer
		return
	}

	f := c.st.filters.itemFilter(text)
	if !c.st.filters.Archived {
		if items, ok := c.corpus.Filter(f); ok {
			c.st.visible = items
			c.st.total = len(items)
			c.st.mode = ModeClient
			c.st.committedSearch = text
			return
		}
	}

	if c.st.searchPage != nil && strings.EqualFold(c.st.searchText, text) {
		c.st.visible = c.st.searchPage
		c.st.total = c.st.searchTotal
		c.st.mode = ModeRemote
		return
	}

	items := filterItems(c.st.serverPage, f)
	c.st.visible = items
	c.st.total = len(items)
	c.st.mode = ModeInterim
}

func (c *Controller) pageQueryLocked() Query {
	return Query{
		Page:     c.st.pageIndex + 1,
		Limit:    c.st.pageSize,
		Sort:     c.st.sortField,
		Order:    c.st.sortDir,
		Location: c.st.filters.Location,
		Category: c.st.filters.Category,
		Label:    c.st.filters.Label,
		Archived: c.st.filters.Archived,
	}
}

// fetchPage loads the server page for the current state. Only the response to
// the latest issued request is applied.
func (c *Controller) fetchPage(ctx context.Context) {
	c.mu.Lock()
	seq := c.pageSeq.Add(1)
	q := c.pageQueryLocked()
	c.st.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if seq == c.pageSeq.Load() {
			c.st.loading = false
		}
		c.mu.Unlock()
	}()

	page, err := c.source.QueryItems(ctx, q)

	if seq != c.pageSeq.Load() {
		c.logger.DebugContext(ctx, "discarding stale page response",
			slog.Uint64("seq", seq),
			slog.Int("page", q.Page))
		return
	}
	if err != nil {
		c.report(ctx, failureMessage(MessageRequestFailed, err), err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.pageSeq.Load() {
		return
	}
	c.st.serverPage = page.Items
	c.st.serverTotal = page.Total
	c.recomputeLocked()
}

// runServerSearch is the debounced fallback. It does nothing once the corpus can serve the search.
func (c *Controller) runServerSearch() {
	ctx := c.ctx
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	text := strings.TrimSpace(c.st.queryText)
	if text == "" || c.clientSearchableLocked() {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "skipping server search", slog.String("search", text))
		return
	}
	seq := c.searchSeq.Add(1)
	q := c.pageQueryLocked()
	q.Page = 1
	q.Limit = c.corpusLimit
	q.Search = text
	c.st.committedSearch = text
	c.st.searchLoading = true
	c.mu.Unlock()

	page, err := c.source.QueryItems(ctx, q)

	c.mu.Lock()
	if seq != c.searchSeq.Load() {
		c.mu.Unlock()
		return
	}
	c.st.searchLoading = false
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, failureMessage(MessageRequestFailed, err), err)
		return
	}
	if strings.TrimSpace(c.st.queryText) == text {
		c.st.searchPage = page.Items
		c.st.searchTotal = page.Total
		c.st.searchText = text
		c.recomputeLocked()
	}
	c.mu.Unlock()
}

// loadCorpusAsync loads the full corpus in the background. Concurrent calls
// share a single fetch.
func (c *Controller) loadCorpusAsync(ctx context.Context) {
	if c.corpus.Status() == CorpusReady {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		loadCtx := context.WithoutCancel(ctx)
		if _, err := c.corpus.EnsureLoaded(loadCtx); err != nil {
			if errors.Is(err, errCorpusInvalidated) {
				return
			}
			var le *loadError
			if errors.As(err, &le) && c.reportedLoad.Swap(le.attempt) == le.attempt {
				return
			}
			c.report(loadCtx, failureMessage(MessageRequestFailed, err), err)
			return
		}

		c.mu.Lock()
		c.recomputeLocked()
		c.mu.Unlock()
	}()
}

// loadCorpus fetches every item, following pages when the server caps the limit
func (c *Controller) loadCorpus(ctx context.Context) ([]domain.Item, error) {
	all := make([]domain.Item, 0)
	for page := 1; page <= maxCorpusPages; page++ {
		res, err := c.source.QueryItems(ctx, Query{
			Page:  page,
			Limit: c.corpusLimit,
			Sort:  DefaultSortField,
			Order: domain.SortAsc,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load item corpus: %w", err)
		}
		all = append(all, res.Items...)
		if len(res.Items) < c.corpusLimit || len(all) >= res.Total {
			break
		}
	}

	c.logger.InfoContext(ctx, "item corpus loaded", slog.Int("items", len(all)))
	return all, nil
}

func (c *Controller) report(ctx context.Context, message string, err error) {
	c.logger.WarnContext(ctx, "item search operation failed",
		slog.String("message", message),
		slog.String("error", err.Error()))

	c.mu.Lock()
	c.st.lastError = message
	c.mu.Unlock()

	c.onError(message, err)
}
