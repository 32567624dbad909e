package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/observability/mocks"
	"github.com/youming-ai/snatch-sub000/internal/observability/types"
)

func TestTimeoutMiddleware(t *testing.T) {
	timeout := 100 * time.Millisecond
	middleware := TimeoutMiddleware(timeout)

	t.Run("success within timeout", func(t *testing.T) {
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			time.Sleep(10 * time.Millisecond)
			return NewSuccessResponse(req.ID, nil)
		})

		resp, err := next(context.Background(), Request{ID: "test-123"})

		assert.NoError(t, err)
		assert.True(t, resp.Success)
	})

	t.Run("timeout exceeded", func(t *testing.T) {
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			time.Sleep(200 * time.Millisecond)
			return NewSuccessResponse(req.ID, nil)
		})

		resp, err := next(context.Background(), Request{ID: "test-123"})

		assert.Error(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, domain.CodeTimeout, resp.Error.Code)
		assert.True(t, resp.Error.Retryable)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	middleware := RecoveryMiddleware(observability.NewNopProvider())

	t.Run("passes through normal responses", func(t *testing.T) {
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			return NewSuccessResponse(req.ID, nil)
		})

		resp, err := next(context.Background(), Request{ID: "test-123"})

		assert.NoError(t, err)
		assert.True(t, resp.Success)
	})

	t.Run("recovers from panics", func(t *testing.T) {
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			panic("boom")
		})

		resp, err := next(context.Background(), Request{ID: "test-123"})

		require.Error(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, domain.CodeInternal, resp.Error.Code)
		// Panic details stay out of the client-facing message.
		assert.NotContains(t, resp.Error.Message, "boom")
	})
}

func TestTracingMiddleware(t *testing.T) {
	middleware := TracingMiddleware()

	t.Run("generates a trace id when absent", func(t *testing.T) {
		var seenTraceID string
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			seenTraceID, _ = ctx.Value("trace_id").(string)
			return NewSuccessResponse(req.ID, nil)
		})

		resp, err := next(context.Background(), Request{ID: "test-123"})

		require.NoError(t, err)
		assert.NotEmpty(t, seenTraceID)
		assert.Equal(t, seenTraceID, resp.Metadata["trace_id"])
	})

	t.Run("propagates an existing trace id", func(t *testing.T) {
		next := middleware(func(ctx context.Context, req Request) (Response, error) {
			return NewSuccessResponse(req.ID, nil)
		})

		req := Request{ID: "test-123", Metadata: map[string]string{"trace_id": "trace-42"}}
		resp, err := next(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "trace-42", resp.Metadata["trace_id"])
	})
}

func TestHandlerChainOrder(t *testing.T) {
	provider := observability.NewNopProvider()

	worker := &orderWorker{}
	h := NewHandler(worker, provider, &testHandlerConfig)

	var order []string
	h.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			order = append(order, "outer")
			return next(ctx, req)
		}
	})
	h.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			order = append(order, "inner")
			return next(ctx, req)
		}
	})

	_, err := h.Handle(context.Background(), Request{ID: "test-123"})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.True(t, worker.called)
}

func TestHandlerHealth(t *testing.T) {
	provider := observability.NewNopProvider()

	t.Run("healthy worker", func(t *testing.T) {
		h := NewHandler(&orderWorker{}, provider, &testHandlerConfig)
		assert.NoError(t, h.Health(context.Background()))
	})

	t.Run("unhealthy worker", func(t *testing.T) {
		h := NewHandler(&orderWorker{healthErr: errors.New("store down")}, provider, &testHandlerConfig)
		assert.Error(t, h.Health(context.Background()))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	newLogged := func(logger *mocks.MockLogger) Middleware {
		provider := &mocks.MockProvider{}
		provider.On("Logger", "handler").Return(logger)
		return LoggingMiddleware(provider)
	}

	t.Run("failure logs the error code", func(t *testing.T) {
		logger := &mocks.MockLogger{}
		logger.On("WithFields", mock.Anything).Return(logger)
		logger.On("Info", mock.Anything, "Processing request", mock.Anything).Return()
		logger.On("Warn", mock.Anything, "Request completed with failure", mock.MatchedBy(func(fields types.Fields) bool {
			return fields["error_code"] == domain.CodeValidation
		})).Return()

		next := newLogged(logger)(func(ctx context.Context, req Request) (Response, error) {
			return NewErrorResponse(req.ID, domain.CodeValidation, "invalid url", ""), nil
		})

		resp, err := next(context.Background(), Request{ID: "test-123", Type: "download"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		logger.AssertExpectations(t)
	})

	t.Run("failure without error detail does not panic", func(t *testing.T) {
		logger := &mocks.MockLogger{}
		logger.On("WithFields", mock.Anything).Return(logger)
		logger.On("Info", mock.Anything, "Processing request", mock.Anything).Return()
		logger.On("Warn", mock.Anything, "Request completed with failure", mock.MatchedBy(func(fields types.Fields) bool {
			return fields["error_code"] == "unknown_error"
		})).Return()

		next := newLogged(logger)(func(ctx context.Context, req Request) (Response, error) {
			return Response{ID: req.ID, Success: false}, nil
		})

		assert.NotPanics(t, func() {
			resp, err := next(context.Background(), Request{ID: "test-123", Type: "download"})
			require.NoError(t, err)
			assert.False(t, resp.Success)
		})
		logger.AssertExpectations(t)
	})
}
