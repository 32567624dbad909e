package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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
	"github.com/youming-ai/snatch-sub000/internal/sweeper"
)

func main() {
	startTime := time.Now()

	config.MustLoad()
	cfg := config.MustGet()

	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})
	defer provider.Close()

	logger := provider.Logger("main")
	ctx := context.Background()

	logger.Info(ctx, "Starting download engine", observability.Fields{
		"environment": cfg.Environment,
		"addr":        cfg.HTTP.Addr,
	})

	initSentry(cfg, logger)

	// Rate limiting
	st, err := ratelimit.NewStoreFromConfig(cfg, provider.Logger("ratelimit"))
	if err != nil {
		logger.Error(ctx, "Failed to create rate limit store", err, nil)
		log.Fatalf("failed to create rate limit store: %v", err)
	}
	defer st.Close()

	limiter := ratelimit.New(st, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window,
		provider.Logger("ratelimit"), provider.Metrics("ratelimit"))

	// Extraction
	registry := buildRegistry(cfg, provider)
	resultCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	orch := orchestrator.New(limiter, registry, resultCache, cfg.Handler.Timeout,
		provider.Logger("orchestrator"), provider.Metrics("orchestrator"))

	// Maintenance
	sw := sweeper.New(provider.Logger("sweeper"), provider.Metrics("sweeper"), 30*time.Second)
	if err := sw.Add(cfg.RateLimit.SweepInterval, sweeper.Task{
		Name: "rate-limit-windows",
		Run:  limiter.SweepExpired,
	}); err != nil {
		logger.Error(ctx, "Failed to schedule sweep task", err, observability.Fields{
			"task": "rate-limit-windows",
		})
		log.Fatalf("failed to schedule sweep task: %v", err)
	}
	if err := sw.Add(cfg.Cache.TTL, sweeper.Task{
		Name: "result-cache",
		Run: func(context.Context) (int, error) {
			return resultCache.CleanupExpired(), nil
		},
	}); err != nil {
		logger.Error(ctx, "Failed to schedule sweep task", err, observability.Fields{
			"task": "result-cache",
		})
		log.Fatalf("failed to schedule sweep task: %v", err)
	}
	sw.Start()
	defer sw.Stop()

	// Handler and HTTP server
	worker := orchestrator.NewDownloadWorker(orch)
	h := handler.NewFactory(worker, provider).
		WithHandlerConfig(cfg.Handler).
		CreateHTTP()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", platforms.NewHTTPAdapter(h, cfg.HTTP.AllowedOrigins))

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", observability.Fields{
			"addr": cfg.HTTP.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "HTTP server failed", err, nil)
			log.Fatalf("http server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", err, nil)
	}

	handler.GracefulShutdown(logger, provider.Metrics("main"), startTime)
}

// initSentry enables error reporting when a DSN is configured.
func initSentry(cfg *config.Config, logger observability.Logger) {
	if cfg.Sentry.DSN == "" {
		return
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		logger.Warn(context.Background(), "Failed to initialize error reporting", observability.Fields{
			"error": err.Error(),
		})
	}
}

// buildRegistry assembles the per-platform strategy chains. Strategies
// requiring credentials are registered only when their token is present.
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
	subprocess := extractor.NewSubprocessStrategy(cfg.Extract.SubprocessBinary,
		cfg.Extract.SubprocessTimeout, cfg.Extract.MaxVariantsPerItem)

	igStrategies := []extractor.Strategy{}
	if cfg.Extract.InstagramAccessToken != "" {
		igStrategies = append(igStrategies, instagram.NewOEmbedStrategy(fetcher, cfg.Extract.InstagramAccessToken))
	}
	igStrategies = append(igStrategies,
		instagram.NewEmbedScrapeStrategy(fetcher),
		subprocess,
	)
	registry.Register(domain.PlatformInstagram, igStrategies...)

	registry.Register(domain.PlatformTikTok,
		tiktok.NewResolverStrategy(fetcher),
		subprocess,
		tiktok.NewOEmbedStrategy(fetcher),
	)

	twStrategies := []extractor.Strategy{
		twitter.NewSyndicationStrategy(fetcher),
	}
	if cfg.Extract.TwitterBearerToken != "" {
		twStrategies = append(twStrategies, twitter.NewAPIStrategy(fetcher, cfg.Extract.TwitterBearerToken))
	}
	twStrategies = append(twStrategies, subprocess)
	registry.Register(domain.PlatformTwitter, twStrategies...)

	return registry
}
