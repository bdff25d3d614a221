package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter is the inbound strategy used by the gateway to throttle its own clients.
// It is independent from the WindowLimiter that gates calls to the registration service.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// InMemoryRateLimiter keeps one token bucket per client key.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "__anonymous__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		every := r.window / time.Duration(r.requests)
		k = &keyedLimiter{limiter: rate.NewLimiter(rate.Every(every), r.requests)}
		r.limiters[key] = k
	}
	k.lastSeen = now

	// Sweep idle clients every 1024 calls so the map does not grow without bound.
	r.ops++
	if r.ops%1024 == 0 {
		cutoff := now.Add(-2 * r.window)
		for kKey, kVal := range r.limiters {
			if kVal.lastSeen.Before(cutoff) {
				delete(r.limiters, kKey)
			}
		}
	}

	return !k.limiter.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expire = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, expire)

return 0
`

// RedisRateLimiter is a sliding-window limiter shared by every gateway replica.
type RedisRateLimiter struct {
	client    *redis.Client
	script    *redis.Script
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		script:    redis.NewScript(slidingWindowScript),
		requests:  requests,
		window:    window,
		keyPrefix: "crpt-gateway:ratelimit:",
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	fullKey := key
	if !strings.HasPrefix(key, r.keyPrefix) {
		fullKey = r.keyPrefix + key
	}

	now := time.Now().UnixMilli()
	result, err := r.script.Run(ctx, r.client, []string{fullKey},
		now,
		r.window.Milliseconds(),
		r.requests,
		(2 * r.window).Milliseconds(),
		uuid.NewString(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter redis error: %w", err)
	}

	return result == 1, nil
}

// Close is a no-op: the Redis client is owned by the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // nil selects the in-memory strategy
	Logger   Logger
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
