package search

import (
	"fmt"
	"net/url"
	"sync"
)

// MemoryAddressBar is an AddressBar held in memory, used by terminal clients and tests
type MemoryAddressBar struct {
	mu           sync.Mutex
	u            *url.URL
	replacements int
}

var _ AddressBar = (*MemoryAddressBar)(nil)

// NewMemoryAddressBar starts at rawURL
func NewMemoryAddressBar(rawURL string) (*MemoryAddressBar, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address: %w", err)
	}
	return &MemoryAddressBar{u: u}, nil
}

// Query returns a copy of the current query parameters
func (a *MemoryAddressBar) Query() url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.u.Query()
}

// ReplaceQuery swaps the query string in place
func (a *MemoryAddressBar) ReplaceQuery(values url.Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.u.RawQuery = values.Encode()
	a.replacements++
}

// String returns the current address
func (a *MemoryAddressBar) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.u.String()
}

// Replacements counts ReplaceQuery calls
func (a *MemoryAddressBar) Replacements() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replacements
}
