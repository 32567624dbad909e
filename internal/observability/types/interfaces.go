// Package types defines the contracts for structured logging and metrics
// collection used throughout the download engine.
//
// Design Patterns:
//   - Provider Pattern: Manages instances and configuration
//   - Dependency Inversion: Core depends on interfaces, not implementations
package types

import (
	"context"
	"io"
)

// Fields represents structured key-value pairs attached to log entries.
type Fields map[string]interface{}

// Logger defines the contract for structured logging.
// Implementations should emit JSON suitable for log aggregation systems
// like Loki. All methods are context-aware so request and trace identifiers
// can be correlated across components.
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs an error message with the associated error.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a potentially harmful situation that does not prevent
	// operation.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs detailed information useful during development.
	// Typically filtered out in production.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a logger that includes the given fields in
	// every entry it emits.
	WithFields(fields Fields) Logger
}

// Metrics defines the contract for metrics collection.
// Implementations are expected to be Prometheus-compatible.
type Metrics interface {
	// RecordSuccess increments the success counter for an operation type.
	RecordSuccess(operation string)

	// RecordError increments the error counters for an operation,
	// broken down by error type.
	RecordError(operation, errorType string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordSize records the size in bytes of a processed media payload.
	RecordSize(mediaType string, bytes float64)

	// StartOperation increments the in-progress gauge for an operation.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	EndOperation(operation string)
}

// Config holds observability configuration shared by loggers and metrics.
type Config struct {
	// ServiceName identifies the service in log entries and metric names.
	ServiceName string

	// Environment is the deployment environment (development, production).
	Environment string

	// LogLevel is the minimum level emitted ("debug", "info", "warn", "error").
	LogLevel string

	// LogOutput is where log entries are written. Defaults to os.Stdout.
	LogOutput io.Writer

	// AdditionalFields are included in every log entry.
	AdditionalFields Fields
}

// Provider manages Logger and Metrics instances for named components.
type Provider interface {
	// Logger returns the Logger for the given component, creating it on
	// first access.
	Logger(component string) Logger

	// Metrics returns the Metrics collector for the given component,
	// creating it on first access.
	Metrics(component string) Metrics

	// Close releases resources held by the provider.
	Close() error
}
