package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config holds the retry policy for a single network-bound operation.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay each retry.
	BackoffFactor float64

	// AttemptTimeout bounds each individual attempt so one slow strategy
	// cannot exhaust the entire request budget. Zero disables it.
	AttemptTimeout time.Duration
}

// DefaultConfig mirrors the engine defaults: 3 retries, 1s initial delay
// doubling up to 30s.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// DelayFor returns the backoff delay before retry n (1-indexed):
// min(InitialDelay * BackoffFactor^(n-1), MaxDelay).
func DelayFor(cfg Config, n int) time.Duration {
	if n < 1 {
		n = 1
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(n-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// Classifier maps an operation error to a Kind.
type Classifier func(error) Kind

// Do runs op, retrying transient failures with exponential backoff. Only
// errors classified as network or timeout are retried; all other kinds
// propagate immediately. After MaxRetries are exhausted the last error is
// surfaced. The returned error is always an *Error carrying the final
// classification.
func Do[T any](ctx context.Context, cfg Config, classify Classifier, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if classify == nil {
		classify = Classify
	}

	var lastErr error
	var lastKind Kind

	for attempt := 0; ; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}

		result, err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return result, nil
		}

		lastErr = err
		lastKind = classify(err)

		if !lastKind.Retryable() {
			return zero, Wrap(lastKind, err)
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		// The caller's deadline takes precedence over the backoff sleep.
		select {
		case <-ctx.Done():
			return zero, Wrap(KindTimeout, ctx.Err())
		case <-time.After(DelayFor(cfg, attempt+1)):
		}
	}

	return zero, Wrap(lastKind, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr))
}
