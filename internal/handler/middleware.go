package handler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/observability/types"
)

// LoggingMiddleware adds structured logging to request processing.
func LoggingMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			logger := provider.Logger("handler")

			workerName, _ := ctx.Value("worker").(string)
			platform, _ := ctx.Value("platform").(string)

			requestLogger := logger.WithFields(types.Fields{
				"request_id": req.ID,
				"type":       req.Type,
				"source":     req.Source,
				"worker":     workerName,
				"platform":   platform,
			})

			requestLogger.Info(ctx, "Processing request", types.Fields{
				"payload_size": len(req.Payload),
			})

			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			if err != nil {
				requestLogger.Error(ctx, "Request failed with error", err, types.Fields{
					"duration_ms": duration.Milliseconds(),
				})
			} else if !resp.Success {
				fields := types.Fields{
					"error_code":  "unknown_error",
					"duration_ms": duration.Milliseconds(),
				}
				if resp.Error != nil {
					fields["error_code"] = resp.Error.Code
					fields["error_msg"] = resp.Error.Message
				}
				requestLogger.Warn(ctx, "Request completed with failure", fields)
			} else {
				requestLogger.Info(ctx, "Request completed successfully", types.Fields{
					"duration_ms": duration.Milliseconds(),
				})
			}

			resp.Duration = duration
			return resp, err
		}
	}
}

// MetricsMiddleware records request metrics per worker.
func MetricsMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			metrics := provider.Metrics("handler")

			workerName, _ := ctx.Value("worker").(string)
			if workerName == "" {
				workerName = "unknown"
			}

			metrics.StartOperation(workerName)
			defer metrics.EndOperation(workerName)

			start := time.Now()
			resp, err := next(ctx, req)
			metrics.RecordDuration(workerName, time.Since(start).Seconds())

			if err != nil {
				metrics.RecordError(workerName, "processing_error")
			} else if !resp.Success {
				errorType := "unknown_error"
				if resp.Error != nil {
					errorType = resp.Error.Code
				}
				metrics.RecordError(workerName, errorType)
			} else {
				metrics.RecordSuccess(workerName)
			}

			return resp, err
		}
	}
}

// RecoveryMiddleware recovers from panics and returns an error response.
// It should be the outermost layer. Panics are forwarded to Sentry when a
// DSN is configured.
func RecoveryMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (resp Response, err error) {
			logger := provider.Logger("handler")
			metrics := provider.Metrics("handler")

			defer func() {
				if r := recover(); r != nil {
					panicErr := fmt.Errorf("%v", r)

					logger.Error(ctx, "Panic recovered", panicErr, types.Fields{
						"request_id": req.ID,
						"worker":     ctx.Value("worker"),
						"stack":      string(debug.Stack()),
					})
					metrics.RecordError("panic", "panic_recovered")
					sentry.CaptureException(panicErr)

					// Don't expose panic details to the client
					resp = NewErrorResponse(
						req.ID,
						domain.CodeInternal,
						"An internal error occurred",
						"",
					)
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}

// TracingMiddleware ensures each request carries a trace ID that survives
// into logs and the response metadata.
func TracingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			traceID := req.Metadata["trace_id"]
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx = context.WithValue(ctx, "trace_id", traceID)

			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}
			req.Metadata["trace_id"] = traceID

			resp, err := next(ctx, req)

			if resp.Metadata == nil {
				resp.Metadata = make(map[string]string)
			}
			resp.Metadata["trace_id"] = traceID

			return resp, err
		}
	}
}

// TimeoutMiddleware enforces a deadline on request processing.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				resp Response
				err  error
			}
			resultChan := make(chan result, 1)

			go func() {
				resp, err := next(timeoutCtx, req)
				resultChan <- result{resp, err}
			}()

			select {
			case res := <-resultChan:
				return res.resp, res.err
			case <-timeoutCtx.Done():
				return NewErrorResponse(
					req.ID,
					domain.CodeTimeout,
					"Request processing timed out",
					fmt.Sprintf("Exceeded timeout of %v", timeout),
				), timeoutCtx.Err()
			}
		}
	}
}
