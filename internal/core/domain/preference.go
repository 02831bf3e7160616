package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrPreferenceNotFound is returned when no value is stored for a key
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceKeyPageSize stores the preferred item list page size
const PreferenceKeyPageSize = "items.pageSize"

var preferenceKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// Preference is a durable display setting
type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidatePreferenceKey checks that key is safe to store and to put in a URL path
func ValidatePreferenceKey(key string) error {
	if !preferenceKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid preference key %q", key)
	}
	return nil
}

// Validate performs domain validation on the preference
func (p *Preference) Validate() error {
	if err := ValidatePreferenceKey(p.Key); err != nil {
		return err
	}
	if len(p.Value) > 4096 {
		return fmt.Errorf("preference value must be at most 4096 bytes")
	}
	return nil
}
