// Package factory hands out inbound rate limiters for gateway routes. Every limiter it creates uses
// the same backend: Redis when the application cache exposes a client, process memory otherwise.
package factory

import (
	"context"
	"time"

	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   ratelimit.Logger
}

type RateLimiterFactory interface {
	// CreateRateLimiter returns a limiter with the default budget.
	CreateRateLimiter() ratelimit.RateLimiter
	// CreateRateLimiterWith returns a limiter with a route budget. A non-positive requests or
	// window falls back to the default budget.
	CreateRateLimiterWith(requests int, window time.Duration) ratelimit.RateLimiter
	// Distributed reports whether limiters are backed by Redis.
	Distributed() bool
}

type DefaultRateLimiterFactory struct {
	base ratelimit.RateLimitConfig
}

func NewDefaultRateLimiterFactory(requests int, window time.Duration, cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	base := ratelimit.RateLimitConfig{Requests: requests, Window: window, Logger: logger}
	if provider, ok := cache.(RedisClientProvider); ok {
		base.Redis = provider.GetClient()
	}
	return &DefaultRateLimiterFactory{base: base}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	cfg := f.base
	return ratelimit.NewRateLimiter(&cfg)
}

func (f *DefaultRateLimiterFactory) CreateRateLimiterWith(requests int, window time.Duration) ratelimit.RateLimiter {
	if requests <= 0 || window <= 0 {
		return f.CreateRateLimiter()
	}
	cfg := f.base
	cfg.Requests, cfg.Window = requests, window
	return ratelimit.NewRateLimiter(&cfg)
}

func (f *DefaultRateLimiterFactory) Distributed() bool {
	return f.base.Redis != nil
}

// FactoryContainer groups the factories domain controllers are built with.
type FactoryContainer struct {
	RateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(rateLimitConfig *RateLimitConfig, cache Cache) *FactoryContainer {
	cfg := RateLimitConfig{}
	if rateLimitConfig != nil {
		cfg = *rateLimitConfig
	}
	return &FactoryContainer{
		RateLimiterFactory: NewDefaultRateLimiterFactory(cfg.Requests, cfg.Window, cache, cfg.Logger),
	}
}
