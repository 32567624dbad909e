package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string
	Version     string

	// Component configurations
	HTTP      HTTPConfig
	Handler   HandlerConfig
	Retry     RetryConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	S3        S3Config
	Cache     CacheConfig
	Extract   ExtractConfig
	Sentry    SentryConfig
}

// HTTPConfig holds HTTP server and client configuration
type HTTPConfig struct {
	// Addr is the server listen address for HTTP mode
	Addr string

	// ClientTimeout bounds outbound requests made by extraction strategies
	ClientTimeout time.Duration

	// UserAgent is sent on every outbound request
	UserAgent string

	// AllowedOrigins for CORS; empty means permissive (development mode)
	AllowedOrigins []string
}

// HandlerConfig holds handler configuration
type HandlerConfig struct {
	// Timeout is the end-to-end budget for a single download call
	Timeout time.Duration

	// MaxRequestSize in bytes
	MaxRequestSize int64

	EnableHealth  bool
	EnableMetrics bool

	// Platform identifier (http, lambda); auto-detected if empty
	Platform string
}

// RetryConfig holds retry policy configuration
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	AttemptTimeout time.Duration
}

// RateLimitConfig holds fixed-window rate limiting configuration
type RateLimitConfig struct {
	// MaxRequests allowed per client key per window
	MaxRequests int

	// Window is the fixed counting window
	Window time.Duration

	// Store selects the backing store: memory, file, redis, postgres, s3
	Store string

	// FilePath is the record file used by the file store
	FilePath string

	// SweepInterval between expired-window sweeps
	SweepInterval time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN builds a lib/pq connection string from the configuration.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Database, d.Username, d.Password, d.SSLMode,
	)
}

// S3Config holds S3 store configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	KeyPrefix       string
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// ExtractConfig holds extraction strategy configuration
type ExtractConfig struct {
	// SubprocessBinary is the external extractor binary (yt-dlp)
	SubprocessBinary string

	// SubprocessTimeout bounds a single subprocess invocation
	SubprocessTimeout time.Duration

	// MaxVariantsPerItem caps how many quality variants one post yields
	MaxVariantsPerItem int

	// Platform credentials; a strategy requiring credentials is skipped
	// entirely when its token is empty.
	InstagramAccessToken string
	TwitterBearerToken   string
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN string
}

// IsProduction returns whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// IsLocal returns whether the service runs locally.
func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development"
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errs []string

	if c.ServiceName == "" {
		errs = append(errs, "SERVICE_NAME is required")
	}

	if c.Handler.Timeout <= 0 {
		errs = append(errs, "HANDLER_TIMEOUT must be positive")
	}
	if c.Handler.MaxRequestSize <= 0 {
		errs = append(errs, "HANDLER_MAX_REQUEST_SIZE must be positive")
	}
	if c.HTTP.ClientTimeout <= 0 {
		errs = append(errs, "HTTP_CLIENT_TIMEOUT must be positive")
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "RETRY_MAX_RETRIES cannot be negative")
	}
	if c.Retry.BackoffFactor < 1.0 {
		errs = append(errs, "RETRY_BACKOFF_FACTOR must be >= 1.0")
	}
	if c.Retry.InitialDelay <= 0 {
		errs = append(errs, "RETRY_INITIAL_DELAY must be positive")
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, "RETRY_MAX_DELAY must be >= RETRY_INITIAL_DELAY")
	}

	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, "RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW must be positive")
	}
	switch c.RateLimit.Store {
	case "memory", "file", "redis", "postgres", "s3":
	default:
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_STORE %q is not one of memory, file, redis, postgres, s3", c.RateLimit.Store))
	}

	if c.Cache.MaxEntries < 0 {
		errs = append(errs, "CACHE_MAX_ENTRIES cannot be negative")
	}

	// Production-specific validations
	if c.IsProduction() {
		if c.RateLimit.Store == "memory" {
			errs = append(errs, "RATE_LIMIT_STORE must be durable in production (file, redis, postgres or s3)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
