// Package observability provides a centralized provider for the logging and
// metrics components used throughout the download engine.
package observability

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/youming-ai/snatch-sub000/internal/observability/logger"
	"github.com/youming-ai/snatch-sub000/internal/observability/metrics"
	"github.com/youming-ai/snatch-sub000/internal/observability/types"
)

// Logger is a type alias for the Logger interface from the types package.
type Logger = types.Logger

// Metrics is a type alias for the Metrics interface from the types package.
type Metrics = types.Metrics

// Fields is a type alias for structured logging fields.
type Fields = types.Fields

// Config is a type alias for the observability configuration.
type Config = types.Config

// Provider is a type alias for the Provider interface from the types package.
type Provider = types.Provider

// DefaultProvider implements the Provider interface. It manages Logger and
// Metrics instances per component with lazy initialization and thread-safe
// singleton behavior.
type DefaultProvider struct {
	config  *Config
	loggers map[string]Logger
	metrics map[string]Metrics
	mu      sync.RWMutex
}

// NewProvider creates a new observability provider. If LogOutput is not set
// it defaults to os.Stdout.
//
// Example:
//
//	provider := NewProvider(&Config{
//		ServiceName: "snatch",
//		Environment: "production",
//		LogLevel:    "info",
//	})
//	log := provider.Logger("orchestrator")
func NewProvider(config *Config) Provider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}

	return &DefaultProvider{
		config:  config,
		loggers: make(map[string]Logger),
		metrics: make(map[string]Metrics),
	}
}

// Logger returns the Logger for the given component. The logger carries a
// "component" field plus any AdditionalFields from the provider config, and
// a service name of the form "{ServiceName}.{component}".
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, exists := p.loggers[component]; exists {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if l, exists := p.loggers[component]; exists {
		return l
	}

	fields := make(Fields)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	serviceName := fmt.Sprintf("%s.%s", p.config.ServiceName, component)

	l := logger.New(
		serviceName,
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)

	var loggerInterface Logger = l
	p.loggers[component] = loggerInterface

	return loggerInterface
}

// Metrics returns the Metrics collector for the given component.
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.RLock()
	if m, exists := p.metrics[component]; exists {
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if m, exists := p.metrics[component]; exists {
		return m
	}

	m := metrics.New(component)

	var metricsInterface Metrics = m
	p.metrics[component] = metricsInterface

	return metricsInterface
}

// Close shuts down the provider. It closes the LogOutput if it implements
// io.Closer, except for os.Stdout and os.Stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}

	return nil
}
