package config

import "time"

// DefaultConfig returns a complete configuration with sensible defaults.
// This is useful for testing or when starting from defaults and overriding
// specific parts.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		ServiceName: "snatch",
		LogLevel:    "info",
		Version:     "1.0.0",

		HTTP: HTTPConfig{
			Addr:          ":8080",
			ClientTimeout: 15 * time.Second,
			UserAgent:     "snatch-downloader/1.0",
		},
		Handler: HandlerConfig{
			Timeout:        30 * time.Second,
			MaxRequestSize: 10 * 1024,
			EnableHealth:   true,
			EnableMetrics:  true,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialDelay:   time.Second,
			MaxDelay:       30 * time.Second,
			BackoffFactor:  2.0,
			AttemptTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:   10,
			Window:        time.Minute,
			Store:         "memory",
			FilePath:      "data/ratelimit.json",
			SweepInterval: 5 * time.Minute,
		},
		Cache: CacheConfig{
			MaxEntries: 100,
			TTL:        5 * time.Minute,
		},
		Extract: ExtractConfig{
			SubprocessBinary:   "yt-dlp",
			SubprocessTimeout:  30 * time.Second,
			MaxVariantsPerItem: 3,
		},
	}
}

// applyDefaults applies environment-specific defaults after parsing.
func (c *Config) applyDefaults() {
	// Pick a rate-limit store that fits the runtime when none is set:
	// Lambda has no writable working directory worth trusting, so durable
	// state goes to S3 there; everywhere else a local record file is enough.
	if c.RateLimit.Store == "" {
		if IsLambda() {
			c.RateLimit.Store = "s3"
		} else {
			c.RateLimit.Store = "file"
		}
	}

	if c.IsProduction() {
		// More conservative settings for production
		if c.Retry.MaxRetries < 3 {
			c.Retry.MaxRetries = 3
		}
		c.Handler.EnableMetrics = true
	}

	if c.IsLocal() && !IsLambda() {
		// Local runs should work without any AWS credentials configured
		if c.RateLimit.Store == "s3" && c.S3.Bucket == "" {
			c.RateLimit.Store = "file"
		}
	}
}
