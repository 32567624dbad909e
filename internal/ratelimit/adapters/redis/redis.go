// Package redis provides a rate-limit store backed by Redis. Records are
// stored as JSON values with a TTL of twice the window so Redis expires
// stale entries even without an explicit sweep.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

const keyPrefix = "snatch:ratelimit:"

// Store implements the rate-limit store port on a Redis client.
type Store struct {
	client *goredis.Client
	window time.Duration
}

// NewStore connects to Redis and verifies the connection.
func NewStore(addr, password string, db int, window time.Duration) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client, window: window}, nil
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return store.Record{}, false, nil
		}
		return store.Record{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.Record{}, false, fmt.Errorf("failed to decode record: %w", err)
	}

	return rec, true, nil
}

// Put creates or replaces the record for a key. The TTL is double the
// window so a record outlives its own expiry check but never lingers.
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+key, data, 2*s.window).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Delete removes the record for a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Sweep scans for expired records and removes them. Redis TTLs already
// bound growth; the sweep only reclaims records early.
func (s *Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()

		data, err := s.client.Get(ctx, fullKey).Bytes()
		if err != nil {
			continue
		}

		var rec store.Record
		if err := json.Unmarshal(data, &rec); err != nil || rec.WindowStart.Before(cutoff) {
			if err := s.client.Del(ctx, fullKey).Err(); err == nil {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}

	return removed, nil
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
