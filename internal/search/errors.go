package search

import (
	"context"
	"errors"
	"fmt"
)

// User facing messages passed to the ErrorFunc
const (
	MessageTimeout       = "The request timed out. The item collection may be too large to load at once; try narrowing your filters."
	MessageRequestFailed = "Failed to load items"
	MessageSaveFailed    = "Failed to save your page size preference"
	MessageInvalidInput  = "Invalid request"
)

var errCorpusInvalidated = errors.New("item corpus invalidated during load")

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func failureMessage(base string, err error) string {
	if IsTimeout(err) {
		return MessageTimeout
	}
	return fmt.Sprintf("%s: %s", base, err.Error())
}
