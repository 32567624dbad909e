// Package file provides a rate-limit store persisted to a single JSON
// record file. Records survive process restarts; every mutation rewrites
// the file atomically (temp file + rename).
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// Store mirrors the record set in memory and flushes it to disk on every
// change. Suitable for a single-instance deployment; multi-instance setups
// should use the redis or postgres store instead.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]store.Record
}

// NewStore opens (or creates) the record file at path and loads any
// existing records.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	s := &Store{
		path:    path,
		records: make(map[string]store.Record),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			// A corrupt record file only loses counter history; start
			// fresh rather than refusing to boot.
			s.records = make(map[string]store.Record)
		}
	}

	return s, nil
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	return rec, ok, nil
}

// Put creates or replaces the record for a key and flushes to disk.
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = rec
	return s.flushLocked()
}

// Delete removes the record for a key and flushes to disk.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return nil
	}

	delete(s.records, key)
	return s.flushLocked()
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

	if removed == 0 {
		return 0, nil
	}
	return removed, s.flushLocked()
}

// Ping verifies the record directory is writable.
func (s *Store) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("record directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("record path %s is not a directory", dir)
	}
	return nil
}

// Close flushes the current record set.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked writes the record set to a temp file and renames it over the
// record file. Callers must hold s.mu.
func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace record file: %w", err)
	}

	return nil
}
