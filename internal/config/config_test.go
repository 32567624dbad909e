package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "snatch", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Handler.Timeout)
	assert.Equal(t, int64(10*1024), cfg.Handler.MaxRequestSize)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2.0, cfg.Retry.BackoffFactor)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "25")
	t.Setenv("RATE_LIMIT_WINDOW", "90s")
	t.Setenv("HANDLER_TIMEOUT", "45s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 90*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 45*time.Second, cfg.Handler.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
}

func TestApplyDefaultsPicksStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Store = ""
	cfg.applyDefaults()
	assert.Equal(t, "file", cfg.RateLimit.Store)

	// Local run with s3 selected but no bucket falls back to file.
	cfg = DefaultConfig()
	cfg.RateLimit.Store = "s3"
	cfg.applyDefaults()
	assert.Equal(t, "file", cfg.RateLimit.Store)

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "snatch-download")

	cfg = DefaultConfig()
	cfg.RateLimit.Store = ""
	cfg.applyDefaults()
	assert.Equal(t, "s3", cfg.RateLimit.Store)

	// On Lambda the environment still defaults to a local-looking value,
	// but a recycled execution environment cannot trust the filesystem,
	// so the s3 store must survive even without a bucket configured yet.
	cfg = DefaultConfig()
	cfg.RateLimit.Store = "s3"
	cfg.applyDefaults()
	assert.Equal(t, "s3", cfg.RateLimit.Store)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantErr: "SERVICE_NAME",
		},
		{
			name:    "backoff factor below one",
			mutate:  func(c *Config) { c.Retry.BackoffFactor = 0.5 },
			wantErr: "RETRY_BACKOFF_FACTOR",
		},
		{
			name:    "max delay below initial delay",
			mutate:  func(c *Config) { c.Retry.MaxDelay = c.Retry.InitialDelay / 2 },
			wantErr: "RETRY_MAX_DELAY",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.RateLimit.Store = "etcd" },
			wantErr: "RATE_LIMIT_STORE",
		},
		{
			name: "memory store rejected in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.RateLimit.Store = "memory"
			},
			wantErr: "durable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSingleton(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Load())
	assert.True(t, IsLoaded())

	cfg := MustGet()
	require.NotNil(t, cfg)

	// Second load is a no-op and keeps the same instance.
	require.NoError(t, Load())
	assert.Same(t, cfg, MustGet())
}
