// Package store defines the persistence port for rate-limit window records.
// Adapters live under ratelimit/adapters; the limiter only sees this
// interface.
package store

import (
	"context"
	"time"
)

// Record is one client's fixed counting window. Records are replaced, never
// merged, when a window rolls over.
type Record struct {
	// WindowStart is the instant the current window opened.
	WindowStart time.Time `json:"windowStart"`

	// Count is the number of requests seen in the current window.
	Count int `json:"count"`
}

// Expired reports whether the record's window has fully elapsed at now.
func (r Record) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(r.WindowStart.Add(window))
}

// Store persists rate-limit records keyed by hashed client key. The limiter
// serializes access per key, so implementations only need per-call
// consistency, not cross-call transactions.
type Store interface {
	// Get returns the record for a key, or (zero, false, nil) when absent.
	Get(ctx context.Context, key string) (Record, bool, error)

	// Put creates or replaces the record for a key.
	Put(ctx context.Context, key string, rec Record) error

	// Delete removes the record for a key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Sweep deletes every record whose window started before the cutoff
	// and returns how many were removed. Bounds storage growth.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
