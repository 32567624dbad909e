package extractor

import (
	"fmt"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// Registry maps platforms to their extraction chains. Chains are assembled
// once at startup; strategies whose capabilities the runtime lacks are
// filtered out at registration, and every chain ends with the synthetic
// fallback.
type Registry struct {
	chains       map[domain.Platform]*Chain
	capabilities map[Capability]bool
	retryCfg     retry.Config
	logger       observability.Logger
	metrics      observability.Metrics
}

// NewRegistry creates an empty registry bound to the runtime's capabilities.
func NewRegistry(caps map[Capability]bool, retryCfg retry.Config, logger observability.Logger, metrics observability.Metrics) *Registry {
	return &Registry{
		chains:       make(map[domain.Platform]*Chain),
		capabilities: caps,
		retryCfg:     retryCfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// Register installs the chain for a platform. Strategies the runtime cannot
// support are dropped with a log line; the synthetic fallback is appended
// unconditionally so the chain is never empty.
func (r *Registry) Register(platform domain.Platform, strategies ...Strategy) {
	usable := make([]Strategy, 0, len(strategies)+1)
	for _, s := range strategies {
		if !hasCapabilities(s, r.capabilities) {
			r.logger.Info(nil, "strategy unavailable on this runtime", observability.Fields{
				"platform": string(platform),
				"strategy": s.Name(),
			})
			continue
		}
		usable = append(usable, s)
	}
	usable = append(usable, NewSyntheticStrategy())

	r.chains[platform] = NewChain(usable, r.retryCfg, r.logger, r.metrics)
}

// Chain returns the chain for a platform.
func (r *Registry) Chain(platform domain.Platform) (*Chain, error) {
	chain, ok := r.chains[platform]
	if !ok {
		return nil, fmt.Errorf("no extraction chain registered for platform %s", platform)
	}
	return chain, nil
}

// SupportedPlatforms lists every platform with a registered chain.
func (r *Registry) SupportedPlatforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(r.chains))
	for _, p := range domain.Platforms() {
		if _, ok := r.chains[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}
