package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkodi/alias-shortener/internal/config"
)

const (
	keyPrefix   = "alias:"
	pingTimeout = 5 * time.Second
)

// ErrMiss is returned by Get when the alias is not cached
var ErrMiss = errors.New("cache miss")

// RedisCache caches alias -> full URL lookups for redirects
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and checks the connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, alias string) (string, error) {
	val, err := c.client.Get(ctx, keyPrefix+alias).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache: %w", err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, alias, fullURL string) error {
	return c.client.Set(ctx, keyPrefix+alias, fullURL, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, alias string) error {
	return c.client.Del(ctx, keyPrefix+alias).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
