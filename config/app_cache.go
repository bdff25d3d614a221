package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	pkgredis "github.com/akeren/crpt-gateway/pkg/redis"
	"github.com/akeren/crpt-gateway/pkg/retry"
	"github.com/akeren/crpt-gateway/pkg/utils"
	"github.com/go-redis/redis/v8"
)

const cachePingTimeout = 3 * time.Second

// Cache backs the receipt lookup cache and, through its Redis client, the distributed rate limiters.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Retry    *retry.Config
}

// NewCacheConfig reads REDIS_URL when set, otherwise REDIS_HOST, REDIS_PORT, REDIS_PASSWORD and
// REDIS_DB. REDIS_POOL_SIZE applies to both forms.
func NewCacheConfig() (*CacheConfig, error) {
	cc := &CacheConfig{}
	if n, err := utils.EnvPositiveInt("REDIS_POOL_SIZE", 0); err == nil {
		cc.PoolSize = n
	}

	if raw := utils.GetEnvTrimmed("REDIS_URL"); raw != "" {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		host, port, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL address %q: %w", opts.Addr, err)
		}
		cc.Host, cc.Port, cc.Password, cc.DB = host, port, opts.Password, opts.DB
		return cc, nil
	}

	cc.Host = utils.GetEnvTrimmed("REDIS_HOST")
	cc.Port = utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379")
	cc.Password = utils.GetEnvTrimmed("REDIS_PASSWORD")
	if raw := utils.GetEnvTrimmed("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return nil, fmt.Errorf("invalid REDIS_DB %q", raw)
		}
		cc.DB = db
	}
	return cc, nil
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc != nil && cc.Host != ""
}

// NewCache dials Redis, retrying transient failures, and closes the client if it never answers.
func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	redisCfg := &pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
		PoolSize: cc.PoolSize,
	}
	cache, err := pkgredis.NewRedisCache(redisCfg)
	if err != nil {
		return nil, err
	}

	err = retry.NewExponentialBackoff(cc.Retry).Execute(context.Background(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
		defer cancel()
		return cache.Ping(pingCtx)
	})
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("redis at %s is unreachable: %w", redisCfg.Addr(), err)
	}

	logger.Info("Cache (Redis) connected", "addr", redisCfg.Addr(), "db", cc.DB)
	return cache, nil
}

// LoadCacheOrNil treats Redis as optional: without it receipts are read from the database and
// rate limits stay per process.
func LoadCacheOrNil(logger *log.Logger) Cache {
	cc, err := NewCacheConfig()
	if err != nil {
		logger.Error("Invalid cache configuration; proceeding without external cache", "error", err)
		return nil
	}
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to connect cache (Redis); proceeding without external cache", "error", err)
		return nil
	}
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}
	logger.Info("Cache connection closed")
	return nil
}
