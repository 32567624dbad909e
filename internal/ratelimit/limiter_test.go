package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/observability/mocks"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/memory"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// simClock is a manually advanced time source.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock() *simClock {
	return &simClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, max int, window time.Duration, clock *simClock) (*Limiter, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	limiter := New(st, max, window, observability.NopLogger{}, observability.NopMetrics{},
		WithClock(clock.Now))
	return limiter, st
}

func TestHashClientKey(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, HashClientKey("10.0.0.1"), HashClientKey("10.0.0.1"))
	})

	t.Run("differs per client", func(t *testing.T) {
		assert.NotEqual(t, HashClientKey("10.0.0.1"), HashClientKey("10.0.0.2"))
	})

	t.Run("never echoes the raw identifier", func(t *testing.T) {
		hashed := HashClientKey("203.0.113.7")
		assert.NotContains(t, hashed, "203.0.113.7")
		assert.Len(t, hashed, 64)
	})
}

func TestLimiterCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to max requests in a window", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 10, time.Minute, clock)

		for i := 0; i < 10; i++ {
			decision, err := limiter.Check(ctx, "client-a")
			require.NoError(t, err)
			assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 9-i, decision.Remaining)
		}
	})

	t.Run("denies the eleventh request", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 10, time.Minute, clock)

		for i := 0; i < 10; i++ {
			_, err := limiter.Check(ctx, "client-a")
			require.NoError(t, err)
		}

		decision, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.Equal(t, clock.Now().Add(time.Minute), decision.ResetAt)
	})

	t.Run("window reset restores the full quota", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 10, time.Minute, clock)

		for i := 0; i < 11; i++ {
			limiter.Check(ctx, "client-a")
		}

		clock.Advance(61 * time.Second)

		decision, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 9, decision.Remaining)
	})

	t.Run("denied requests do not extend the window", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 2, time.Minute, clock)

		limiter.Check(ctx, "client-a")
		limiter.Check(ctx, "client-a")

		first, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		require.False(t, first.Allowed)

		clock.Advance(30 * time.Second)

		second, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		assert.False(t, second.Allowed)
		assert.Equal(t, first.ResetAt, second.ResetAt)
	})

	t.Run("clients are isolated", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 1, time.Minute, clock)

		a, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		require.True(t, a.Allowed)

		denied, err := limiter.Check(ctx, "client-a")
		require.NoError(t, err)
		require.False(t, denied.Allowed)

		b, err := limiter.Check(ctx, "client-b")
		require.NoError(t, err)
		assert.True(t, b.Allowed)
	})

	t.Run("concurrent checks never exceed the quota", func(t *testing.T) {
		clock := newSimClock()
		limiter, _ := newTestLimiter(t, 10, time.Minute, clock)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				decision, err := limiter.Check(ctx, "client-a")
				if err == nil && decision.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, allowed)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		clock := newSimClock()
		limiter := New(failingStore{}, 10, time.Minute,
			observability.NopLogger{}, observability.NopMetrics{}, WithClock(clock.Now))

		_, err := limiter.Check(ctx, "client-a")
		assert.Error(t, err)
	})
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	clock := newSimClock()
	limiter, st := newTestLimiter(t, 10, time.Minute, clock)

	for i := 0; i < 5; i++ {
		_, err := limiter.Check(ctx, fmt.Sprintf("client-%d", i))
		require.NoError(t, err)
	}
	require.Equal(t, 5, st.Len())

	// Nothing has expired yet.
	removed, err := limiter.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	clock.Advance(2 * time.Minute)

	removed, err = limiter.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, removed)
	assert.Zero(t, st.Len())
}

// failingStore always errors, for exercising the error paths.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (store.Record, bool, error) {
	return store.Record{}, false, errors.New("store unavailable")
}
func (failingStore) Put(context.Context, string, store.Record) error {
	return errors.New("store unavailable")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store unavailable") }
func (failingStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, errors.New("store unavailable")
}
func (failingStore) Ping(context.Context) error { return errors.New("store unavailable") }
func (failingStore) Close() error               { return nil }

func TestCheckObservability(t *testing.T) {
	clock := newSimClock()
	logger := &mocks.MockLogger{}
	metrics := &mocks.MockMetrics{}
	limiter := New(memory.NewStore(), 1, time.Minute, logger, metrics, WithClock(clock.Now))

	ctx := context.Background()
	hashed := HashClientKey("10.0.0.1")

	// First request opens a fresh window; nothing is logged about it.
	dec, err := limiter.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	metrics.On("RecordError", "rate_limit_check", "denied").Return()
	logger.On("Warn", mock.Anything, "Rate limit exceeded", mock.MatchedBy(func(fields observability.Fields) bool {
		return fields["client_key"] == hashed
	})).Return()

	dec, err = limiter.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)

	logger.AssertExpectations(t)
	metrics.AssertExpectations(t)

	t.Run("store failure is counted", func(t *testing.T) {
		metrics := &mocks.MockMetrics{}
		metrics.On("RecordError", "rate_limit_check", "store_get").Return()

		limiter := New(failingStore{}, 1, time.Minute, observability.NopLogger{}, metrics)
		_, err := limiter.Check(ctx, "10.0.0.1")
		require.Error(t, err)
		metrics.AssertExpectations(t)
	})
}
