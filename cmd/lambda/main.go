package main

import (
	"context"
	"log"

	"github.com/getsentry/sentry-go"

	"github.com/youming-ai/snatch-sub000/internal/cache"
	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/domain"
	"github.com/youming-ai/snatch-sub000/internal/extractor"
	"github.com/youming-ai/snatch-sub000/internal/extractor/instagram"
	"github.com/youming-ai/snatch-sub000/internal/extractor/tiktok"
	"github.com/youming-ai/snatch-sub000/internal/extractor/twitter"
	"github.com/youming-ai/snatch-sub000/internal/handler"
	"github.com/youming-ai/snatch-sub000/internal/handler/platforms"
	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/orchestrator"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit"
	"github.com/youming-ai/snatch-sub000/internal/retry"
)

// Lambda entrypoint. No subprocess extraction here: the runtime cannot
// spawn external binaries, so chains fall back to network strategies and
// the synthetic terminal. Rate-limit state lives in a durable store (S3 by
// default) because execution environments are recycled between invocations.
func main() {
	config.MustLoad()
	cfg := config.MustGet()

	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})

	logger := provider.Logger("main")
	ctx := context.Background()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Warn(ctx, "Failed to initialize error reporting", observability.Fields{
				"error": err.Error(),
			})
		}
	}

	st, err := ratelimit.NewStoreFromConfig(cfg, provider.Logger("ratelimit"))
	if err != nil {
		logger.Error(ctx, "Failed to create rate limit store", err, nil)
		log.Fatalf("failed to create rate limit store: %v", err)
	}

	limiter := ratelimit.New(st, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window,
		provider.Logger("ratelimit"), provider.Metrics("ratelimit"))

	registry := buildRegistry(cfg, provider)
	resultCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	orch := orchestrator.New(limiter, registry, resultCache, cfg.Handler.Timeout,
		provider.Logger("orchestrator"), provider.Metrics("orchestrator"))

	worker := orchestrator.NewDownloadWorker(orch)
	h := handler.NewFactory(worker, provider).
		WithHandlerConfig(cfg.Handler).
		CreateLambda()

	logger.Info(ctx, "Starting Lambda runtime", observability.Fields{
		"environment": cfg.Environment,
		"store":       cfg.RateLimit.Store,
	})

	platforms.NewLambdaAdapter(h, cfg.HTTP.AllowedOrigins).Start()
}

func buildRegistry(cfg *config.Config, provider observability.Provider) *extractor.Registry {
	caps := extractor.DetectCapabilities(cfg.Extract.SubprocessBinary)

	retryCfg := retry.Config{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialDelay:   cfg.Retry.InitialDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		BackoffFactor:  cfg.Retry.BackoffFactor,
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}

	registry := extractor.NewRegistry(caps, retryCfg,
		provider.Logger("extractor"), provider.Metrics("extractor"))

	fetcher := extractor.NewHTTPFetcher(cfg.HTTP.ClientTimeout, cfg.HTTP.UserAgent)

	igStrategies := []extractor.Strategy{}
	if cfg.Extract.InstagramAccessToken != "" {
		igStrategies = append(igStrategies, instagram.NewOEmbedStrategy(fetcher, cfg.Extract.InstagramAccessToken))
	}
	igStrategies = append(igStrategies, instagram.NewEmbedScrapeStrategy(fetcher))
	registry.Register(domain.PlatformInstagram, igStrategies...)

	registry.Register(domain.PlatformTikTok,
		tiktok.NewResolverStrategy(fetcher),
		tiktok.NewOEmbedStrategy(fetcher),
	)

	twStrategies := []extractor.Strategy{
		twitter.NewSyndicationStrategy(fetcher),
	}
	if cfg.Extract.TwitterBearerToken != "" {
		twStrategies = append(twStrategies, twitter.NewAPIStrategy(fetcher, cfg.Extract.TwitterBearerToken))
	}
	registry.Register(domain.PlatformTwitter, twStrategies...)

	return registry
}

