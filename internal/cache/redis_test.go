package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkodi/alias-shortener/internal/config"
)

func setupTestCache(t *testing.T) *RedisCache {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	c, err := NewRedisCache(&config.RedisConfig{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	alias := "cache-test-" + time.Now().Format("150405.000000")

	_, err := c.Get(ctx, alias)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, alias, "https://example.com"))

	got, err := c.Get(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)

	require.NoError(t, c.Delete(ctx, alias))

	_, err = c.Get(ctx, alias)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(&config.RedisConfig{Addr: "127.0.0.1:1", TTL: time.Minute})
	assert.Error(t, err)
}
