package ratelimit

import (
	"context"
	"fmt"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/file"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/memory"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/postgres"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/redis"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/adapters/s3"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// NewStoreFromConfig is the only place that knows about concrete store
// implementations. The selected backend is logged so operators can tell
// at startup whether counters survive a restart.
func NewStoreFromConfig(cfg *config.Config, logger observability.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.RateLimit.Store {
	case "memory":
		st = memory.NewStore()
	case "file":
		st, err = file.NewStore(cfg.RateLimit.FilePath)
	case "redis":
		st, err = redis.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RateLimit.Window)
	case "postgres":
		st, err = postgres.NewStore(cfg.Database.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	case "s3":
		st, err = s3.NewStore(cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported rate limit store: %s", cfg.RateLimit.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s rate limit store: %w", cfg.RateLimit.Store, err)
	}

	logger.Info(context.Background(), "rate limit store initialized", observability.Fields{
		"store":        cfg.RateLimit.Store,
		"max_requests": cfg.RateLimit.MaxRequests,
		"window":       cfg.RateLimit.Window.String(),
	})

	return st, nil
}
