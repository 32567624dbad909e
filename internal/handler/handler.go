// Package handler wraps a Worker with a middleware chain and adapts it to
// the runtime platform (plain HTTP or AWS Lambda).
package handler

import (
	"context"
	"os"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/observability"
)

// Handler wraps a Worker with cross-cutting concerns: recovery, timeouts,
// tracing, metrics and logging.
type Handler struct {
	worker      Worker
	obs         observability.Provider
	middlewares []Middleware
	config      *config.HandlerConfig
}

// Middleware wraps a handler function to add cross-cutting behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// HandlerFunc is the core processing signature middlewares wrap.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// NewHandler creates a handler around a worker. Most callers should use
// the Factory instead.
func NewHandler(worker Worker, provider observability.Provider, cfg *config.HandlerConfig) *Handler {
	return &Handler{
		worker:      worker,
		obs:         provider,
		config:      cfg,
		middlewares: []Middleware{},
	}
}

// Use appends middleware to the chain. Middleware runs in the order added.
func (h *Handler) Use(middleware Middleware) {
	h.middlewares = append(h.middlewares, middleware)
}

// Handle processes a request through the middleware chain and worker.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	next := h.buildHandlerChain()

	ctx = context.WithValue(ctx, "request_id", req.ID)
	ctx = context.WithValue(ctx, "worker", h.worker.Name())
	ctx = context.WithValue(ctx, "platform", h.config.Platform)

	return next(ctx, req)
}

// buildHandlerChain applies middleware in reverse order so the first one
// added is the outermost layer.
func (h *Handler) buildHandlerChain() HandlerFunc {
	next := h.workerHandler
	for i := len(h.middlewares) - 1; i >= 0; i-- {
		next = h.middlewares[i](next)
	}
	return next
}

func (h *Handler) workerHandler(ctx context.Context, req Request) (Response, error) {
	return h.worker.Process(ctx, req)
}

// Health checks the health of the underlying worker.
func (h *Handler) Health(ctx context.Context) error {
	return h.worker.Health(ctx)
}

// Config returns the handler configuration.
func (h *Handler) Config() *config.HandlerConfig {
	return h.config
}

// Worker returns the underlying worker.
func (h *Handler) Worker() Worker {
	return h.worker
}

// GracefulShutdown logs final metrics and exits. Called from the signal
// handler in main.
func GracefulShutdown(logger observability.Logger, metrics observability.Metrics, startTime time.Time) {
	ctx := context.Background()

	metrics.RecordSuccess("shutdown_initiated")

	logger.Info(ctx, "Shutting down gracefully", observability.Fields{
		"uptime_seconds": time.Since(startTime).Seconds(),
	})

	metrics.RecordDuration("service_uptime", time.Since(startTime).Seconds())
	metrics.RecordSuccess("shutdown_complete")

	// Give time for final metrics to be scraped or pushed
	time.Sleep(2 * time.Second)

	os.Exit(0)
}
