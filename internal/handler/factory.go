package handler

import (
	"os"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/observability"
)

// Factory assembles handlers with the standard middleware stack. This is
// the recommended way to create handlers.
type Factory struct {
	worker     Worker
	provider   observability.Provider
	handlerCfg config.HandlerConfig
}

// NewFactory creates a factory with default handler configuration.
func NewFactory(worker Worker, provider observability.Provider) *Factory {
	return &Factory{
		worker:     worker,
		provider:   provider,
		handlerCfg: config.DefaultConfig().Handler,
	}
}

// WithHandlerConfig sets custom handler configuration.
func (f *Factory) WithHandlerConfig(cfg config.HandlerConfig) *Factory {
	f.handlerCfg = cfg
	return f
}

// Create builds a handler for the detected or configured platform.
func (f *Factory) Create() *Handler {
	if f.handlerCfg.Platform == "" || f.handlerCfg.Platform == "auto" {
		f.handlerCfg.Platform = DetectPlatform()
	}

	h := NewHandler(f.worker, f.provider, &f.handlerCfg)
	f.applyDefaultMiddleware(h)
	return h
}

// CreateHTTP builds a handler pinned to the HTTP platform.
func (f *Factory) CreateHTTP() *Handler {
	f.handlerCfg.Platform = "http"
	return f.Create()
}

// CreateLambda builds a handler pinned to AWS Lambda.
func (f *Factory) CreateLambda() *Handler {
	f.handlerCfg.Platform = "lambda"
	return f.Create()
}

// applyDefaultMiddleware adds the standard stack. Recovery is outermost so
// it catches panics from every other layer.
func (f *Factory) applyDefaultMiddleware(h *Handler) {
	h.Use(RecoveryMiddleware(f.provider))

	if f.handlerCfg.Timeout > 0 {
		h.Use(TimeoutMiddleware(f.handlerCfg.Timeout))
	}

	h.Use(TracingMiddleware())

	if f.handlerCfg.EnableMetrics {
		h.Use(MetricsMiddleware(f.provider))
	}

	h.Use(LoggingMiddleware(f.provider))
}

// DetectPlatform detects the runtime platform from the environment.
func DetectPlatform() string {
	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		return "lambda"
	}
	if _, exists := os.LookupEnv("AWS_LAMBDA_RUNTIME_API"); exists {
		return "lambda"
	}
	return "http"
}
