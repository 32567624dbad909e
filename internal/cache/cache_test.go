package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/domain"
)

func entry(id string) Entry {
	return Entry{
		Items: []domain.MediaItem{
			{ID: id, DownloadURL: "https://cdn.example.com/" + id + ".mp4"},
		},
		Platform: domain.PlatformTikTok,
	}
}

func TestCache(t *testing.T) {
	t.Run("returns stored entries", func(t *testing.T) {
		c := New(10, time.Minute)
		c.Put("k", entry("a"))

		got, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, entry("a"), got)
	})

	t.Run("misses unknown keys", func(t *testing.T) {
		c := New(10, time.Minute)

		_, ok := c.Get("nope")
		assert.False(t, ok)
	})

	t.Run("expires entries after the ttl", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		c := New(10, time.Minute, WithClock(func() time.Time { return now }))

		c.Put("k", entry("a"))

		now = now.Add(59 * time.Second)
		_, ok := c.Get("k")
		assert.True(t, ok)

		now = now.Add(2 * time.Second)
		_, ok = c.Get("k")
		assert.False(t, ok)
	})

	t.Run("overwrites existing keys", func(t *testing.T) {
		c := New(10, time.Minute)
		c.Put("k", entry("a"))
		c.Put("k", entry("b"))

		got, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "b", got.Items[0].ID)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("evicts the oldest entry when full", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		c := New(3, time.Hour, WithClock(func() time.Time { return now }))

		for i := 0; i < 3; i++ {
			c.Put(fmt.Sprintf("k%d", i), entry(fmt.Sprintf("e%d", i)))
			now = now.Add(time.Second)
		}

		c.Put("k3", entry("e3"))

		assert.Equal(t, 3, c.Len())
		_, ok := c.Get("k0")
		assert.False(t, ok, "oldest entry should be evicted")
		_, ok = c.Get("k3")
		assert.True(t, ok)
	})

	t.Run("cleanup removes only expired entries", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		c := New(10, time.Minute, WithClock(func() time.Time { return now }))

		c.Put("old", entry("a"))
		now = now.Add(2 * time.Minute)
		c.Put("fresh", entry("b"))

		removed := c.CleanupExpired()

		assert.Equal(t, 1, removed)
		assert.Equal(t, 1, c.Len())
		_, ok := c.Get("fresh")
		assert.True(t, ok)
	})
}
