// Package cache holds recently extracted results so repeated requests for
// the same URL skip the extraction chain entirely.
package cache

import (
	"sync"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

// Entry is a cached extraction result keyed by normalized URL.
type Entry struct {
	Items    []domain.MediaItem
	Platform domain.Platform
}

type record struct {
	entry    Entry
	storedAt time.Time
}

// Cache is a bounded TTL cache. When full, the oldest entry is evicted to
// make room. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]record
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// Option customizes cache construction.
type Option func(*Cache)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache with the given capacity and entry lifetime.
func New(maxEntries int, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]record),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for a key if present and not expired.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(rec.storedAt) > c.ttl {
		delete(c.entries, key)
		return Entry{}, false
	}
	return rec.entry, true
}

// Put stores an entry, evicting the oldest one if the cache is full.
func (c *Cache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = record{entry: entry, storedAt: c.now()}
}

// evictOldest removes the entry with the earliest storedAt. Caller holds the lock.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for key, rec := range c.entries {
		if first || rec.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = rec.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// CleanupExpired removes all expired entries and reports how many were
// dropped.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := c.now().Add(-c.ttl)
	for key, rec := range c.entries {
		if rec.storedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
