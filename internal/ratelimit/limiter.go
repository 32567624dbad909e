// Package ratelimit implements persistent fixed-window request counting per
// client key.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	// Allowed is false once the client exhausted its window quota.
	Allowed bool

	// Remaining is how many requests the client has left in the window.
	Remaining int

	// ResetAt is the instant the current window closes.
	ResetAt time.Time
}

// Limiter counts requests per hashed client key in fixed, non-overlapping
// windows backed by a durable store. The read-modify-write on a key's
// record is serialized through a striped per-key lock; different keys never
// contend.
type Limiter struct {
	store   store.Store
	max     int
	window  time.Duration
	locks   *xsync.Map[string, *sync.Mutex]
	now     func() time.Time
	logger  observability.Logger
	metrics observability.Metrics
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source. Tests use this to simulate
// window expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter allowing max requests per window against the given
// store.
func New(st store.Store, max int, window time.Duration, logger observability.Logger, metrics observability.Metrics, opts ...Option) *Limiter {
	l := &Limiter{
		store:   st,
		max:     max,
		window:  window,
		locks:   xsync.NewMap[string, *sync.Mutex](),
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// HashClientKey derives the persisted key from a caller-supplied identifier.
// Raw identifiers (addresses, tokens) never reach a store verbatim.
func HashClientKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Check records one request for the client and decides whether it is
// allowed. On the first request in a window a fresh record with count=1 is
// created; within a window the count increments until max is reached; once
// the window has elapsed the record is replaced regardless of prior count.
func (l *Limiter) Check(ctx context.Context, clientID string) (Decision, error) {
	key := HashClientKey(clientID)

	mu, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()

	now := l.now()

	rec, found, err := l.store.Get(ctx, key)
	if err != nil {
		l.metrics.RecordError("rate_limit_check", "store_get")
		return Decision{}, err
	}

	if !found || rec.Expired(now, l.window) {
		fresh := store.Record{WindowStart: now, Count: 1}
		if err := l.store.Put(ctx, key, fresh); err != nil {
			l.metrics.RecordError("rate_limit_check", "store_put")
			return Decision{}, err
		}

		return Decision{
			Allowed:   true,
			Remaining: l.max - 1,
			ResetAt:   now.Add(l.window),
		}, nil
	}

	resetAt := rec.WindowStart.Add(l.window)

	if rec.Count >= l.max {
		l.metrics.RecordError("rate_limit_check", "denied")
		l.logger.Warn(ctx, "Rate limit exceeded", observability.Fields{
			"client_key": key,
			"count":      rec.Count,
			"reset_at":   resetAt,
		})

		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	rec.Count++
	if err := l.store.Put(ctx, key, rec); err != nil {
		l.metrics.RecordError("rate_limit_check", "store_put")
		return Decision{}, err
	}

	l.metrics.RecordSuccess("rate_limit_check")
	return Decision{
		Allowed:   true,
		Remaining: l.max - rec.Count,
		ResetAt:   resetAt,
	}, nil
}

// SweepExpired deletes records whose window fully elapsed before now.
func (l *Limiter) SweepExpired(ctx context.Context) (int, error) {
	cutoff := l.now().Add(-l.window)
	removed, err := l.store.Sweep(ctx, cutoff)
	if err != nil {
		l.metrics.RecordError("rate_limit_sweep", "store_sweep")
		return 0, err
	}

	if removed > 0 {
		l.logger.Info(ctx, "Swept expired rate limit records", observability.Fields{
			"removed": removed,
		})
	}
	l.metrics.RecordSuccess("rate_limit_sweep")

	return removed, nil
}

// Healthy verifies the backing store is reachable.
func (l *Limiter) Healthy(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// Window returns the configured window size.
func (l *Limiter) Window() time.Duration {
	return l.window
}
