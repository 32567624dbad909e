// Package memory provides an in-memory rate-limit store. It does not
// survive restarts; it exists for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// Store keeps records in a plain map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]store.Record
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]store.Record),
	}
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	return rec, ok, nil
}

// Put creates or replaces the record for a key.
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = rec
	return nil
}

// Delete removes the record for a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Sweep deletes records whose window started before the cutoff.
func (s *Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if rec.WindowStart.Before(cutoff) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored records. Used by tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
