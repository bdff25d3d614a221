// Package redis wraps a go-redis client behind the application cache contract.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMissingHost = errors.New("redis host is required")

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

func (c *Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(strings.TrimSpace(c.Host), port)
}

// RedisCache stores string values and exposes the client for scripted operations.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache builds a client without dialing; call Ping to verify connectivity.
func NewRedisCache(cfg *Config) (*RedisCache, error) {
	if cfg == nil || strings.TrimSpace(cfg.Host) == "" {
		return nil, ErrMissingHost
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &RedisCache{client: client}, nil
}

// Get returns ("", nil) for a missing key.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache get %q: %w", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetClient() *redis.Client {
	return c.client
}
