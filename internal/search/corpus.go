package search

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// CorpusStatus is the load state of the full item snapshot
type CorpusStatus int

const (
	CorpusEmpty CorpusStatus = iota
	CorpusLoading
	CorpusReady
)

func (s CorpusStatus) String() string {
	switch s {
	case CorpusLoading:
		return "loading"
	case CorpusReady:
		return "ready"
	default:
		return "empty"
	}
}

type corpusLoader func(ctx context.Context) ([]domain.Item, error)

type pendingUpdate struct {
	id uuid.UUID
	fn func(*domain.Item)
}

// corpusCache holds the full item snapshot. EnsureLoaded is the only path from
// empty to ready, and concurrent callers share one in-flight load.
type corpusCache struct {
	mu         sync.RWMutex
	status     CorpusStatus
	items      []domain.Item
	generation uint64
	// updates made while a load is in flight, replayed on its result
	pending []pendingUpdate

	group singleflight.Group
	load  corpusLoader
	loads atomic.Int64
}

func newCorpusCache(load corpusLoader) *corpusCache {
	return &corpusCache{load: load}
}

// Status returns the current load state
func (c *corpusCache) Status() CorpusStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Loads returns how many times the loader actually ran
func (c *corpusCache) Loads() int64 {
	return c.loads.Load()
}

// EnsureLoaded returns the snapshot, loading it first when empty
func (c *corpusCache) EnsureLoaded(ctx context.Context) ([]domain.Item, error) {
	c.mu.RLock()
	if c.status == CorpusReady {
		items := c.items
		c.mu.RUnlock()
		return items, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return nil, errCorpusInvalidated
		}
		if c.status == CorpusReady {
			items := c.items
			c.mu.Unlock()
			return items, nil
		}
		c.status = CorpusLoading
		c.mu.Unlock()

		attempt := c.loads.Add(1)
		items, err := c.load(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return nil, errCorpusInvalidated
		}
		if err != nil {
			c.status = CorpusEmpty
			c.pending = nil
			return nil, &loadError{attempt: attempt, err: err}
		}
		if items == nil {
			items = []domain.Item{}
		}
		for _, u := range c.pending {
			updateInPlace(items, u.id, u.fn)
		}
		c.pending = nil
		c.items = items
		c.status = CorpusReady
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Item), nil
}

// Filter applies f to the snapshot. ok is false until the snapshot is ready.
func (c *corpusCache) Filter(f domain.ItemFilter) (items []domain.Item, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status != CorpusReady {
		return nil, false
	}
	return filterItems(c.items, f), true
}

// Update applies fn to the item with the given ID in place. While a load is
// in flight the update is also kept and applied to the loaded snapshot.
func (c *corpusCache) Update(id uuid.UUID, fn func(*domain.Item)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == CorpusLoading {
		c.pending = append(c.pending, pendingUpdate{id: id, fn: fn})
	}
	return updateInPlace(c.items, id, fn)
}

// Invalidate drops the snapshot. A load already in flight is discarded when it lands.
func (c *corpusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.status = CorpusEmpty
	c.items = nil
	c.pending = nil
}

// loadError tags a loader failure with its attempt number so waiters sharing
// one load can report it once
type loadError struct {
	attempt int64
	err     error
}

func (e *loadError) Error() string { return e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

func filterItems(items []domain.Item, f domain.ItemFilter) []domain.Item {
	out := make([]domain.Item, 0)
	for i := range items {
		if f.Matches(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func updateInPlace(items []domain.Item, id uuid.UUID, fn func(*domain.Item)) bool {
	found := false
	for i := range items {
		if items[i].ID == id {
			fn(&items[i])
			found = true
		}
	}
	return found
}
