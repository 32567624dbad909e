package extractor

import (
	"context"
	"time"

	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// Chain runs strategies in registration order and returns the first
// non-empty result. Strategy failures are logged and counted, never
// propagated: the final strategy in every chain is the synthetic fallback,
// which cannot fail, so Run always yields at least one item for a valid
// target.
type Chain struct {
	strategies []Strategy
	retryCfg   retry.Config
	logger     observability.Logger
	metrics    observability.Metrics
}

// NewChain builds a chain over the given strategies. Order matters: earlier
// strategies are preferred.
func NewChain(strategies []Strategy, retryCfg retry.Config, logger observability.Logger, metrics observability.Metrics) *Chain {
	return &Chain{
		strategies: strategies,
		retryCfg:   retryCfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Strategies returns the chain's strategies in execution order.
func (c *Chain) Strategies() []Strategy {
	return c.strategies
}

// Run executes the chain. Each strategy is retried per the retry policy
// before the chain moves on. The name of the winning strategy is recorded
// for observability.
func (c *Chain) Run(ctx context.Context, target Target) []domain.MediaItem {
	for _, strat := range c.strategies {
		start := time.Now()

		items, err := retry.Do(ctx, c.retryCfg, retry.Classify,
			func(attemptCtx context.Context) ([]domain.MediaItem, error) {
				return strat.Extract(attemptCtx, target)
			})

		elapsed := time.Since(start)

		if err != nil {
			c.logger.Warn(ctx, "extraction strategy failed", observability.Fields{
				"strategy": strat.Name(),
				"platform": string(target.Platform),
				"error":    err.Error(),
				"elapsed":  elapsed.String(),
			})
			c.metrics.RecordError("extract", strat.Name())
			continue
		}

		if len(items) == 0 {
			c.logger.Debug(ctx, "extraction strategy found nothing", observability.Fields{
				"strategy": strat.Name(),
				"platform": string(target.Platform),
			})
			continue
		}

		c.logger.Info(ctx, "extraction succeeded", observability.Fields{
			"strategy": strat.Name(),
			"platform": string(target.Platform),
			"items":    len(items),
			"elapsed":  elapsed.String(),
		})
		c.metrics.RecordSuccess("extract")
		c.metrics.RecordDuration("extract", elapsed.Seconds())

		return items
	}

	// Unreachable when the chain is built through the registry, which
	// always appends the synthetic fallback.
	return nil
}
