package feed

import (
	"errors"
	"strings"
)

// Typed failures every mutation can surface. Callers are expected to match
// with errors.Is; all wrapping inside this package preserves the sentinel.
var (
	// ErrNotFound: the referenced post or comment does not exist at
	// operation time.
	ErrNotFound = errors.New("feed: target not found")

	// ErrConflicted: a concurrent writer raced the same document and the
	// transaction could not commit within the retry budget. Never swallowed,
	// the caller decides whether to re-issue the operation.
	ErrConflicted = errors.New("feed: transaction conflicted")

	// ErrValidationFailed: empty content with no images, or empty comment
	// text.
	ErrValidationFailed = errors.New("feed: validation failed")
)

// retryable reports whether a store error is a transient concurrency
// failure worth re-running the transaction for. Postgres surfaces
// serialization and deadlock failures as SQLSTATE 40001/40P01; sqlite (used
// by tests) reports lock contention as "database is locked".
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
