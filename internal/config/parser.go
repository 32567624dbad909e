package config

import "strings"

// parse reads configuration from environment variables
func parse() (*Config, error) {
	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "snatch"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Version:     getEnv("SERVICE_VERSION", "1.0.0"),

		// HTTP Configuration
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			ClientTimeout:  getDuration("HTTP_CLIENT_TIMEOUT", "15s"),
			UserAgent:      getEnv("HTTP_USER_AGENT", "snatch-downloader/1.0"),
			AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "")),
		},

		// Handler Configuration
		Handler: HandlerConfig{
			Timeout:        getDuration("HANDLER_TIMEOUT", "30s"),
			MaxRequestSize: int64(getInt("HANDLER_MAX_REQUEST_SIZE", 10*1024)),
			EnableHealth:   getBool("HANDLER_ENABLE_HEALTH", true),
			EnableMetrics:  getBool("HANDLER_ENABLE_METRICS", true),
			Platform:       getEnv("HANDLER_PLATFORM", ""),
		},

		// Retry Configuration
		Retry: RetryConfig{
			MaxRetries:     getInt("RETRY_MAX_RETRIES", 3),
			InitialDelay:   getDuration("RETRY_INITIAL_DELAY", "1s"),
			MaxDelay:       getDuration("RETRY_MAX_DELAY", "30s"),
			BackoffFactor:  getFloat64("RETRY_BACKOFF_FACTOR", 2.0),
			AttemptTimeout: getDuration("RETRY_ATTEMPT_TIMEOUT", "10s"),
		},

		// Rate Limiting Configuration
		RateLimit: RateLimitConfig{
			MaxRequests:   getInt("RATE_LIMIT_MAX_REQUESTS", 10),
			Window:        getDuration("RATE_LIMIT_WINDOW", "60s"),
			Store:         getEnv("RATE_LIMIT_STORE", ""),
			FilePath:      getEnv("RATE_LIMIT_FILE", "data/ratelimit.json"),
			SweepInterval: getDuration("RATE_LIMIT_SWEEP_INTERVAL", "5m"),
		},

		// Redis Configuration
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},

		// Database Configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getInt("DB_PORT", 5432),
			Database: getEnv("DB_NAME", "snatch"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),

			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 5),
		},

		// S3 Configuration
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-2"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "ratelimit/"),
		},

		// Result Cache Configuration
		Cache: CacheConfig{
			MaxEntries: getInt("CACHE_MAX_ENTRIES", 100),
			TTL:        getDuration("CACHE_TTL", "5m"),
		},

		// Extraction Configuration
		Extract: ExtractConfig{
			SubprocessBinary:     getEnv("EXTRACT_SUBPROCESS_BINARY", "yt-dlp"),
			SubprocessTimeout:    getDuration("EXTRACT_SUBPROCESS_TIMEOUT", "30s"),
			MaxVariantsPerItem:   getInt("EXTRACT_MAX_VARIANTS", 3),
			InstagramAccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			TwitterBearerToken:   getEnv("TWITTER_BEARER_TOKEN", ""),
		},

		// Sentry Configuration
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
	}

	return cfg, nil
}

// splitAndTrim splits a comma-separated env value into trimmed entries,
// dropping empties.
func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
