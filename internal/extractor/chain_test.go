package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// stubStrategy is a scriptable strategy for chain tests.
type stubStrategy struct {
	name     string
	requires []Capability
	items    []domain.MediaItem
	err      error
	calls    int
}

func (s *stubStrategy) Name() string            { return s.name }
func (s *stubStrategy) Requires() []Capability  { return s.requires }
func (s *stubStrategy) Extract(ctx context.Context, target Target) ([]domain.MediaItem, error) {
	s.calls++
	return s.items, s.err
}

func fastRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:    0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func testTarget() Target {
	return Target{
		URL:       "https://www.tiktok.com/@u/video/123",
		ContentID: "123",
		Platform:  domain.PlatformTikTok,
	}
}

func realItem(id string) []domain.MediaItem {
	return []domain.MediaItem{
		{ID: id, DownloadURL: "https://cdn.example.com/" + id + ".mp4"},
	}
}

func newChain(strategies ...Strategy) *Chain {
	return NewChain(strategies, fastRetryConfig(), observability.NopLogger{}, observability.NopMetrics{})
}

func TestChainRun(t *testing.T) {
	ctx := context.Background()

	t.Run("first success wins", func(t *testing.T) {
		first := &stubStrategy{name: "first", items: realItem("a")}
		second := &stubStrategy{name: "second", items: realItem("b")}

		items := newChain(first, second, NewSyntheticStrategy()).Run(ctx, testTarget())

		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].ID)
		assert.Equal(t, 1, first.calls)
		assert.Zero(t, second.calls, "later strategies must not run after a success")
	})

	t.Run("failures fall through to the next strategy", func(t *testing.T) {
		failing := &stubStrategy{name: "failing", err: retry.Wrap(retry.KindPlatform, errors.New("post removed"))}
		working := &stubStrategy{name: "working", items: realItem("b")}

		items := newChain(failing, working, NewSyntheticStrategy()).Run(ctx, testTarget())

		require.Len(t, items, 1)
		assert.Equal(t, "b", items[0].ID)
		assert.Equal(t, 1, failing.calls)
	})

	t.Run("empty results fall through without an error", func(t *testing.T) {
		empty := &stubStrategy{name: "empty"}
		working := &stubStrategy{name: "working", items: realItem("b")}

		items := newChain(empty, working, NewSyntheticStrategy()).Run(ctx, testTarget())

		require.Len(t, items, 1)
		assert.Equal(t, "b", items[0].ID)
	})

	t.Run("synthetic terminal makes the chain total", func(t *testing.T) {
		failing := &stubStrategy{name: "failing", err: retry.Wrap(retry.KindPlatform, errors.New("post removed"))}
		empty := &stubStrategy{name: "empty"}

		items := newChain(failing, empty, NewSyntheticStrategy()).Run(ctx, testTarget())

		require.Len(t, items, 1)
		assert.True(t, items[0].Synthetic)
		assert.Equal(t, domain.SentinelOpenOriginal, items[0].DownloadURL)
		assert.Equal(t, domain.PlaceholderThumbnail, items[0].ThumbnailURL)
		assert.NotEmpty(t, items[0].Title)
	})

	t.Run("transient failures are retried within one strategy", func(t *testing.T) {
		cfg := fastRetryConfig()
		cfg.MaxRetries = 2

		flaky := &flakyStrategy{failures: 2}
		chain := NewChain([]Strategy{flaky, NewSyntheticStrategy()}, cfg,
			observability.NopLogger{}, observability.NopMetrics{})

		items := chain.Run(ctx, testTarget())

		require.Len(t, items, 1)
		assert.Equal(t, "flaky", items[0].ID)
		assert.Equal(t, 3, flaky.calls)
	})
}

// flakyStrategy fails with a transient error a fixed number of times.
type flakyStrategy struct {
	failures int
	calls    int
}

func (s *flakyStrategy) Name() string           { return "flaky" }
func (s *flakyStrategy) Requires() []Capability { return nil }
func (s *flakyStrategy) Extract(ctx context.Context, target Target) ([]domain.MediaItem, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, retry.Wrap(retry.KindNetwork, errors.New("connection refused"))
	}
	return []domain.MediaItem{{ID: "flaky", DownloadURL: "https://cdn.example.com/f.mp4"}}, nil
}

func TestSyntheticStrategy(t *testing.T) {
	t.Run("always yields exactly one flagged item", func(t *testing.T) {
		items, err := NewSyntheticStrategy().Extract(context.Background(), testTarget())

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].Synthetic)
		assert.Equal(t, "tiktok-123", items[0].ID)
		assert.Equal(t, testTarget().URL, items[0].SourceURL)
	})
}

func TestRegistry(t *testing.T) {
	caps := map[Capability]bool{CapabilityNetwork: true}

	newRegistry := func() *Registry {
		return NewRegistry(caps, fastRetryConfig(), observability.NopLogger{}, observability.NopMetrics{})
	}

	t.Run("filters strategies missing capabilities", func(t *testing.T) {
		registry := newRegistry()
		needsSubprocess := &stubStrategy{name: "sub", requires: []Capability{CapabilitySubprocess}}
		networkOnly := &stubStrategy{name: "net", requires: []Capability{CapabilityNetwork}, items: realItem("a")}

		registry.Register(domain.PlatformTikTok, needsSubprocess, networkOnly)

		chain, err := registry.Chain(domain.PlatformTikTok)
		require.NoError(t, err)

		// The filtered strategy plus the appended synthetic fallback.
		require.Len(t, chain.Strategies(), 2)
		assert.Equal(t, "net", chain.Strategies()[0].Name())

		chain.Run(context.Background(), testTarget())
		assert.Zero(t, needsSubprocess.calls)
	})

	t.Run("every chain ends with the synthetic fallback", func(t *testing.T) {
		registry := newRegistry()
		registry.Register(domain.PlatformTwitter)

		chain, err := registry.Chain(domain.PlatformTwitter)
		require.NoError(t, err)

		strategies := chain.Strategies()
		require.NotEmpty(t, strategies)
		assert.Equal(t, "synthetic-fallback", strategies[len(strategies)-1].Name())
	})

	t.Run("unknown platform errors", func(t *testing.T) {
		registry := newRegistry()

		_, err := registry.Chain(domain.PlatformInstagram)
		assert.Error(t, err)
	})

	t.Run("supported platforms follow registration", func(t *testing.T) {
		registry := newRegistry()
		registry.Register(domain.PlatformInstagram)
		registry.Register(domain.PlatformTikTok)

		platforms := registry.SupportedPlatforms()
		assert.Equal(t, []domain.Platform{domain.PlatformInstagram, domain.PlatformTikTok}, platforms)
	})
}
