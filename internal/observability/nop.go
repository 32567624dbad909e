package observability

import (
	"context"

	"github.com/youming-ai/snatch-sub000/internal/observability/types"
)

// NopLogger is a Logger that discards everything. Useful in tests where log
// output is irrelevant and setting mock expectations would be noise.
type NopLogger struct{}

func (NopLogger) Info(ctx context.Context, msg string, fields types.Fields)             {}
func (NopLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {}
func (NopLogger) Warn(ctx context.Context, msg string, fields types.Fields)             {}
func (NopLogger) Debug(ctx context.Context, msg string, fields types.Fields)            {}
func (n NopLogger) WithFields(fields types.Fields) types.Logger                         { return n }

// NopMetrics is a Metrics collector that records nothing. It avoids touching
// the global Prometheus registry, which matters in tests that construct
// multiple providers in one process.
type NopMetrics struct{}

func (NopMetrics) RecordSuccess(operation string)                  {}
func (NopMetrics) RecordError(operation, errorType string)         {}
func (NopMetrics) RecordDuration(operation string, seconds float64) {}
func (NopMetrics) RecordSize(mediaType string, bytes float64)      {}
func (NopMetrics) StartOperation(operation string)                 {}
func (NopMetrics) EndOperation(operation string)                   {}

type nopProvider struct{}

func (nopProvider) Logger(component string) Logger   { return NopLogger{} }
func (nopProvider) Metrics(component string) Metrics { return NopMetrics{} }
func (nopProvider) Close() error                     { return nil }

// NewNopProvider returns a Provider whose loggers and metrics do nothing.
func NewNopProvider() Provider {
	return nopProvider{}
}
