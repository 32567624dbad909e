// Package orchestrator ties the engine together: rate limiting, URL
// validation, platform detection, cached extraction and sanitization, all
// under a single end-to-end deadline.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/cache"
	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit"
	"github.com/youming-ai/snatch-sub000/internal/sanitize"
	"github.com/youming-ai/snatch-sub000/internal/urlkit"
)

// Orchestrator executes download requests end to end.
type Orchestrator struct {
	limiter   *ratelimit.Limiter
	registry  *extractor.Registry
	cache     *cache.Cache
	sanitizer *sanitize.Sanitizer
	timeout   time.Duration
	logger    observability.Logger
	metrics   observability.Metrics
}

// New creates an orchestrator. timeout is the total budget for one call,
// covering every strategy and retry within it.
func New(
	limiter *ratelimit.Limiter,
	registry *extractor.Registry,
	resultCache *cache.Cache,
	timeout time.Duration,
	logger observability.Logger,
	metrics observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		limiter:   limiter,
		registry:  registry,
		cache:     resultCache,
		sanitizer: sanitize.New(),
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Download processes one request. The returned response is always usable:
// failures are reported through Success=false and an error code, never a
// panic or a half-filled result.
func (o *Orchestrator) Download(ctx context.Context, req domain.DownloadRequest) domain.DownloadResponse {
	start := time.Now()
	o.metrics.StartOperation("download")
	defer o.metrics.EndOperation("download")

	resp := o.process(ctx, req)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()

	if resp.Success {
		o.metrics.RecordSuccess("download")
	} else {
		o.metrics.RecordError("download", resp.ErrorCode)
	}
	o.metrics.RecordDuration("download", time.Since(start).Seconds())

	return resp
}

func (o *Orchestrator) process(ctx context.Context, req domain.DownloadRequest) domain.DownloadResponse {
	// Rate limiting happens before any validation so abusive clients pay
	// for malformed requests too. A store failure fails open: limiting is
	// protective, not load-bearing.
	decision, err := o.limiter.Check(ctx, req.ClientID)
	if err != nil {
		o.logger.Warn(ctx, "rate limit check failed, allowing request", observability.Fields{
			"error": err.Error(),
		})
	} else if !decision.Allowed {
		resetAt := decision.ResetAt
		return domain.DownloadResponse{
			Success:   false,
			Error:     "too many requests, try again later",
			ErrorCode: domain.CodeRateLimit,
			ResetAt:   &resetAt,
		}
	}

	normalized, err := urlkit.Validate(req.URL)
	if err != nil {
		return domain.DownloadResponse{
			Success:   false,
			Error:     err.Error(),
			ErrorCode: domain.CodeValidation,
		}
	}

	platform, ok := urlkit.Detect(normalized)
	if !ok {
		return domain.DownloadResponse{
			Success:   false,
			Error:     "unsupported platform: " + normalized.Host,
			ErrorCode: domain.CodeValidation,
		}
	}

	contentID, ok := urlkit.ExtractContentID(normalized, platform)
	if !ok {
		return domain.DownloadResponse{
			Success:   false,
			Error:     "url does not point to downloadable content",
			ErrorCode: domain.CodeValidation,
		}
	}

	cacheKey := normalized.String()
	if entry, hit := o.cache.Get(cacheKey); hit {
		o.logger.Debug(ctx, "cache hit", observability.Fields{
			"platform": string(entry.Platform),
		})
		return domain.DownloadResponse{
			Success:  true,
			Results:  entry.Items,
			Platform: entry.Platform,
		}
	}

	chain, err := o.registry.Chain(platform)
	if err != nil {
		return domain.DownloadResponse{
			Success:   false,
			Error:     "unsupported platform: " + string(platform),
			ErrorCode: domain.CodeValidation,
		}
	}

	target := extractor.Target{
		URL:       normalized.String(),
		ContentID: contentID,
		Platform:  platform,
	}

	items, err := o.extract(ctx, chain, target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.DownloadResponse{
				Success:   false,
				Error:     "extraction did not finish in time",
				ErrorCode: domain.CodeTimeout,
				Platform:  platform,
			}
		}
		return domain.DownloadResponse{
			Success:   false,
			Error:     "extraction failed",
			ErrorCode: domain.CodeInternal,
			Platform:  platform,
		}
	}

	results := o.sanitizer.Sanitize(items)
	if len(results) == 0 {
		// Sanitization can only shrink results; the synthetic fallback
		// always survives it, so this indicates a registry bug.
		return domain.DownloadResponse{
			Success:   false,
			Error:     "extraction produced no usable results",
			ErrorCode: domain.CodeInternal,
			Platform:  platform,
		}
	}

	resp := domain.DownloadResponse{
		Success:  true,
		Results:  results,
		Platform: platform,
	}

	// Synthetic-only responses are not cached; a later attempt may find a
	// real link once the platform recovers.
	if !resp.SyntheticOnly() {
		o.cache.Put(cacheKey, cache.Entry{Items: results, Platform: platform})
	}

	return resp
}

// extract runs the chain under the orchestrator's deadline.
func (o *Orchestrator) extract(ctx context.Context, chain *extractor.Chain, target extractor.Target) ([]domain.MediaItem, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan []domain.MediaItem, 1)
	go func() {
		done <- chain.Run(runCtx, target)
	}()

	select {
	case items := <-done:
		return items, nil
	case <-runCtx.Done():
		return nil, runCtx.Err()
	}
}

// SupportedPlatforms exposes the registry's platforms for health and
// discovery endpoints.
func (o *Orchestrator) SupportedPlatforms() []string {
	platforms := o.registry.SupportedPlatforms()
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return names
}

// Healthy reports whether the engine's dependencies are reachable.
func (o *Orchestrator) Healthy(ctx context.Context) error {
	return o.limiter.Healthy(ctx)
}

// RetryAfter derives the Retry-After duration for a denied request.
func RetryAfter(resetAt time.Time, now time.Time) time.Duration {
	d := resetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
