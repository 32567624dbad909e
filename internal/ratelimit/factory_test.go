package ratelimit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/observability"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.RateLimit.Store = "memory"

		st, err := NewStoreFromConfig(cfg, observability.NopLogger{})
		require.NoError(t, err)
		require.NotNil(t, st)
		t.Cleanup(func() { st.Close() })
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.RateLimit.Store = "file"
		cfg.RateLimit.FilePath = filepath.Join(t.TempDir(), "ratelimit.json")

		st, err := NewStoreFromConfig(cfg, observability.NopLogger{})
		require.NoError(t, err)
		require.NotNil(t, st)
		t.Cleanup(func() { st.Close() })
	})

	t.Run("unknown store is rejected", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.RateLimit.Store = "etcd"

		st, err := NewStoreFromConfig(cfg, observability.NopLogger{})
		require.Error(t, err)
		assert.Nil(t, st)
		assert.Contains(t, err.Error(), "etcd")
	})
}
