// Package ratelimit implements fixed-window request counting keyed by
// (identity, category).
//
// The algorithm is a deliberate hard cutoff: counts accumulate inside a
// discrete window and reset abruptly at the boundary. Once a key reaches its
// limit the count is not incremented further, so the stored count never
// exceeds the limit. Callers needing smoother fairness must wrap the limiter,
// not change it.
package ratelimit

import (
	"context"
	"time"
)

// Entry is one fixed-window counter record.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Expired reports whether the entry's window has passed.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ResetAt)
}

// Store persists fixed-window entries. The in-memory implementation backs a
// single process; the Redis implementation shares state across instances.
type Store interface {
	// Get returns the entry for key if present. Implementations may drop
	// expired entries, so absence and expiry are equivalent to callers.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores the entry for key.
	Set(ctx context.Context, key string, e Entry) error

	// Delete removes the entry for key.
	Delete(ctx context.Context, key string) error

	// Hit runs one fixed-window check for key: create or reset the entry
	// when absent or expired, report limited without mutating once the
	// count reaches limit, otherwise increment. It must be atomic with
	// respect to concurrent hits on the same key. The returned entry
	// reflects the state after the operation.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Entry, bool, error)

	// Sweep removes expired entries and returns how many were dropped.
	Sweep(ctx context.Context) (int, error)
}
