package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/cache"
	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/memory"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// scriptedStrategy returns a fixed outcome for orchestrator tests.
type scriptedStrategy struct {
	items []domain.MediaItem
	err   error
	calls int
}

func (s *scriptedStrategy) Name() string                      { return "scripted" }
func (s *scriptedStrategy) Requires() []extractor.Capability  { return nil }
func (s *scriptedStrategy) Extract(ctx context.Context, target extractor.Target) ([]domain.MediaItem, error) {
	s.calls++
	return s.items, s.err
}

type engineOpts struct {
	maxRequests int
	strategies  []extractor.Strategy
}

func newEngine(t *testing.T, opts engineOpts) *Orchestrator {
	t.Helper()

	if opts.maxRequests == 0 {
		opts.maxRequests = 10
	}

	limiter := ratelimit.New(memory.NewStore(), opts.maxRequests, time.Minute,
		observability.NopLogger{}, observability.NopMetrics{})

	retryCfg := retry.Config{
		MaxRetries:    0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 2.0,
	}

	registry := extractor.NewRegistry(
		map[extractor.Capability]bool{extractor.CapabilityNetwork: true},
		retryCfg, observability.NopLogger{}, observability.NopMetrics{})
	for _, p := range domain.Platforms() {
		registry.Register(p, opts.strategies...)
	}

	return New(limiter, registry, cache.New(100, 5*time.Minute), 5*time.Second,
		observability.NopLogger{}, observability.NopMetrics{})
}

func request(url string) domain.DownloadRequest {
	return domain.DownloadRequest{URL: url, ClientID: "10.0.0.1"}
}

func TestDownloadValidation(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, engineOpts{})

	t.Run("rejects empty url", func(t *testing.T) {
		resp := engine.Download(ctx, request(""))

		assert.False(t, resp.Success)
		assert.Empty(t, resp.Results)
		assert.Equal(t, domain.CodeValidation, resp.ErrorCode)
	})

	t.Run("rejects dangerous characters", func(t *testing.T) {
		resp := engine.Download(ctx, request("https://tiktok.com/x; rm -rf /"))

		assert.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.ErrorCode)
	})

	t.Run("rejects unsupported platforms", func(t *testing.T) {
		resp := engine.Download(ctx, request("https://youtube.com/watch?v=abc"))

		assert.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.ErrorCode)
		assert.Contains(t, resp.Error, "unsupported platform")
	})

	t.Run("rejects urls without content", func(t *testing.T) {
		resp := engine.Download(ctx, request("https://www.instagram.com/someuser/"))

		assert.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.ErrorCode)
	})
}

func TestDownloadExtraction(t *testing.T) {
	ctx := context.Background()

	t.Run("returns real results from the first working strategy", func(t *testing.T) {
		strategy := &scriptedStrategy{items: []domain.MediaItem{{
			ID:          "tiktok-123-hd",
			Kind:        domain.MediaVideo,
			DownloadURL: "https://cdn.example.com/v.mp4",
			Title:       "A video",
			Platform:    domain.PlatformTikTok,
			Quality:     domain.QualityHD,
		}}}
		engine := newEngine(t, engineOpts{strategies: []extractor.Strategy{strategy}})

		resp := engine.Download(ctx, request("https://www.tiktok.com/@u/video/123"))

		require.True(t, resp.Success)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, domain.PlatformTikTok, resp.Platform)
		assert.False(t, resp.Results[0].Synthetic)
		assert.GreaterOrEqual(t, resp.ProcessingTimeMs, int64(0))
	})

	t.Run("falls back to a synthetic result when every strategy fails", func(t *testing.T) {
		failing := &scriptedStrategy{err: retry.Wrap(retry.KindPlatform, errors.New("post removed"))}
		engine := newEngine(t, engineOpts{strategies: []extractor.Strategy{failing}})

		resp := engine.Download(ctx, request("https://www.tiktok.com/@u/video/123"))

		require.True(t, resp.Success, "a valid URL must always succeed")
		require.Len(t, resp.Results, 1)
		assert.True(t, resp.Results[0].Synthetic)
		assert.Equal(t, domain.SentinelOpenOriginal, resp.Results[0].DownloadURL)
	})

	t.Run("sanitizes strategy output", func(t *testing.T) {
		strategy := &scriptedStrategy{items: []domain.MediaItem{
			{
				ID:          "x-1",
				DownloadURL: "https://cdn.example.com/v.mp4",
				Title:       "<b>A</b> title",
				Platform:    domain.PlatformTwitter,
			},
			{
				ID:          "x-2",
				DownloadURL: "file:///etc/passwd",
				Platform:    domain.PlatformTwitter,
			},
		}}
		engine := newEngine(t, engineOpts{strategies: []extractor.Strategy{strategy}})

		resp := engine.Download(ctx, request("https://x.com/u/status/1"))

		require.True(t, resp.Success)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "A title", resp.Results[0].Title)
		assert.Equal(t, domain.PlaceholderThumbnail, resp.Results[0].ThumbnailURL)
	})

	t.Run("caches real results", func(t *testing.T) {
		strategy := &scriptedStrategy{items: []domain.MediaItem{{
			ID:          "ig-1",
			DownloadURL: "https://cdn.example.com/v.mp4",
			Platform:    domain.PlatformInstagram,
		}}}
		engine := newEngine(t, engineOpts{strategies: []extractor.Strategy{strategy}})

		first := engine.Download(ctx, request("https://www.instagram.com/p/ABC123/"))
		second := engine.Download(ctx, request("https://www.instagram.com/p/ABC123/"))

		require.True(t, first.Success)
		require.True(t, second.Success)
		assert.Equal(t, first.Results, second.Results)
		assert.Equal(t, 1, strategy.calls, "second request should be served from cache")
	})

	t.Run("does not cache synthetic only results", func(t *testing.T) {
		failing := &scriptedStrategy{err: retry.Wrap(retry.KindPlatform, errors.New("post removed"))}
		engine := newEngine(t, engineOpts{strategies: []extractor.Strategy{failing}})

		engine.Download(ctx, request("https://www.tiktok.com/@u/video/123"))
		engine.Download(ctx, request("https://www.tiktok.com/@u/video/123"))

		assert.Equal(t, 2, failing.calls, "synthetic results must not be cached")
	})
}

func TestDownloadRateLimiting(t *testing.T) {
	ctx := context.Background()

	t.Run("denies the eleventh request in a window", func(t *testing.T) {
		strategy := &scriptedStrategy{items: []domain.MediaItem{{
			ID:          "t-1",
			DownloadURL: "https://cdn.example.com/v.mp4",
			Platform:    domain.PlatformTikTok,
		}}}
		engine := newEngine(t, engineOpts{maxRequests: 10, strategies: []extractor.Strategy{strategy}})

		for i := 0; i < 10; i++ {
			resp := engine.Download(ctx, domain.DownloadRequest{
				URL:      fmt.Sprintf("https://www.tiktok.com/@u/video/%d", i),
				ClientID: "10.0.0.1",
			})
			require.True(t, resp.Success, "request %d should pass", i+1)
		}

		resp := engine.Download(ctx, request("https://www.tiktok.com/@u/video/999"))

		assert.False(t, resp.Success)
		assert.Empty(t, resp.Results)
		assert.Equal(t, domain.CodeRateLimit, resp.ErrorCode)
		require.NotNil(t, resp.ResetAt)
		assert.True(t, resp.ResetAt.After(time.Now()))
	})

	t.Run("rate limits even malformed requests", func(t *testing.T) {
		engine := newEngine(t, engineOpts{maxRequests: 1})

		engine.Download(ctx, request("https://www.tiktok.com/@u/video/1"))
		resp := engine.Download(ctx, request("not even a url"))

		assert.Equal(t, domain.CodeRateLimit, resp.ErrorCode)
	})

	t.Run("other clients stay unaffected", func(t *testing.T) {
		engine := newEngine(t, engineOpts{maxRequests: 1})

		engine.Download(ctx, domain.DownloadRequest{URL: "https://www.tiktok.com/@u/video/1", ClientID: "a"})
		resp := engine.Download(ctx, domain.DownloadRequest{URL: "https://www.tiktok.com/@u/video/1", ClientID: "b"})

		assert.NotEqual(t, domain.CodeRateLimit, resp.ErrorCode)
	})
}

func TestRetryAfter(t *testing.T) {
	now := time.Now()

	assert.Equal(t, time.Minute, RetryAfter(now.Add(time.Minute), now))
	assert.Equal(t, time.Duration(0), RetryAfter(now.Add(-time.Second), now))
}
