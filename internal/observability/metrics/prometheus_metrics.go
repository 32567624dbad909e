// Package metrics provides Prometheus-compatible metrics collection for the
// download engine. Metric names follow Prometheus conventions with the
// component name as a prefix.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using the Prometheus
// client library. All metrics are registered with the default registry.
type PrometheusMetrics struct {
	mu          sync.RWMutex
	serviceName string

	// processedTotal tracks processed operations by status and type.
	processedTotal *prometheus.CounterVec
	// errorsTotal tracks errors by error type and operation.
	errorsTotal *prometheus.CounterVec
	// durationSeconds tracks operation latency.
	durationSeconds *prometheus.HistogramVec
	// mediaSizeBytes tracks reported media sizes with exponential buckets.
	mediaSizeBytes *prometheus.HistogramVec
	// inProgress tracks operations currently in flight.
	inProgress *prometheus.GaugeVec
}

// New creates a PrometheusMetrics instance with pre-configured metrics:
//
//   - {serviceName}_processed_total: counter by status and operation type
//   - {serviceName}_errors_total: counter by error type and operation
//   - {serviceName}_duration_seconds: histogram of operation durations
//   - {serviceName}_media_size_bytes: histogram of media sizes
//   - {serviceName}_in_progress: gauge of concurrent operations
//
// Panics if registration fails (e.g. duplicate metric names).
func New(serviceName string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		serviceName: serviceName,
	}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", serviceName),
			Help: fmt.Sprintf("Total processed items by %s", serviceName),
		},
		[]string{"status", "type"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", serviceName),
			Help: fmt.Sprintf("Total errors in %s", serviceName),
		},
		[]string{"error_type", "operation"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", serviceName),
			Help:    fmt.Sprintf("Operation duration in %s", serviceName),
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Buckets: 100KB, 1MB, 10MB, 50MB, 100MB, 500MB
	m.mediaSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_media_size_bytes", serviceName),
			Help: fmt.Sprintf("Media sizes reported by %s", serviceName),
			Buckets: []float64{
				102400,
				1048576,
				10485760,
				52428800,
				104857600,
				524288000,
			},
		},
		[]string{"media_type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", serviceName),
			Help: fmt.Sprintf("Operations in progress in %s", serviceName),
		},
		[]string{"operation"},
	)

	prometheus.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.mediaSizeBytes,
		m.inProgress,
	)

	return m
}

// RecordSuccess increments the success counter for an operation type.
func (m *PrometheusMetrics) RecordSuccess(operation string) {
	m.processedTotal.WithLabelValues("success", operation).Inc()
}

// RecordError increments both the processed counter (status="error") and the
// detailed error counter. This provides high-level failure rates as well as
// per-type breakdowns.
func (m *PrometheusMetrics) RecordError(operation, errorType string) {
	m.processedTotal.WithLabelValues("error", operation).Inc()
	m.errorsTotal.WithLabelValues(errorType, operation).Inc()
}

// RecordDuration records an operation duration in seconds.
func (m *PrometheusMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordSize records the size in bytes of a processed media payload.
func (m *PrometheusMetrics) RecordSize(mediaType string, bytes float64) {
	m.mediaSizeBytes.WithLabelValues(mediaType).Observe(bytes)
}

// StartOperation increments the in-progress gauge for an operation.
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge for an operation.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
