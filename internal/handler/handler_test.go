package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/observability"
)

var testHandlerConfig = config.HandlerConfig{
	Platform:       "http",
	MaxRequestSize: 10 * 1024,
}

// orderWorker records whether Process was called.
type orderWorker struct {
	called    bool
	healthErr error
}

func (w *orderWorker) Name() string { return "test" }
func (w *orderWorker) Process(ctx context.Context, req Request) (Response, error) {
	w.called = true
	return NewSuccessResponse(req.ID, nil)
}
func (w *orderWorker) Health(ctx context.Context) error { return w.healthErr }

func TestFactoryCreate(t *testing.T) {
	provider := observability.NewNopProvider()

	t.Run("http platform pins the adapter type", func(t *testing.T) {
		h := NewFactory(&orderWorker{}, provider).
			WithHandlerConfig(testHandlerConfig).
			CreateHTTP()

		assert.Equal(t, "http", h.Config().Platform)
	})

	t.Run("lambda platform pins the adapter type", func(t *testing.T) {
		h := NewFactory(&orderWorker{}, provider).
			WithHandlerConfig(testHandlerConfig).
			CreateLambda()

		assert.Equal(t, "lambda", h.Config().Platform)
	})

	t.Run("auto platform falls back to http outside lambda", func(t *testing.T) {
		cfg := testHandlerConfig
		cfg.Platform = "auto"

		h := NewFactory(&orderWorker{}, provider).
			WithHandlerConfig(cfg).
			Create()

		assert.Equal(t, "http", h.Config().Platform)
	})
}

func TestNewErrorResponseRetryability(t *testing.T) {
	rateLimited := NewErrorResponse("id", "RATE_LIMITED", "slow down", "")
	assert.True(t, rateLimited.Error.Retryable)

	timedOut := NewErrorResponse("id", "TIMEOUT", "too slow", "")
	assert.True(t, timedOut.Error.Retryable)

	invalid := NewErrorResponse("id", "VALIDATION_ERROR", "bad url", "")
	assert.False(t, invalid.Error.Retryable)

	internal := NewErrorResponse("id", "INTERNAL_ERROR", "oops", "")
	assert.False(t, internal.Error.Retryable)
}
