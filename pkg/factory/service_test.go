package factory

import (
	"context"
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingOnlyCache struct{}

func (pingOnlyCache) Ping(context.Context) error { return nil }

func TestDefaultRateLimiterFactory_InMemoryWithoutRedis(t *testing.T) {
	f := NewDefaultRateLimiterFactory(5, time.Minute, pingOnlyCache{}, nil)
	assert.False(t, f.Distributed())

	limiter := f.CreateRateLimiter()
	defer limiter.Close()

	_, ok := limiter.(*ratelimit.InMemoryRateLimiter)
	require.True(t, ok)

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 5, requests)
	assert.Equal(t, time.Minute, window)
}

func TestDefaultRateLimiterFactory_RouteSpecificBudget(t *testing.T) {
	container := NewFactoryContainer(&RateLimitConfig{Requests: 100, Window: time.Minute}, nil)

	limiter := container.RateLimiterFactory.CreateRateLimiterWith(2, time.Hour)
	defer limiter.Close()

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 2, requests)
	assert.Equal(t, time.Hour, window)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		limited, err := limiter.IsLimited(ctx, "client")
		require.NoError(t, err)
		assert.False(t, limited)
	}
	limited, err := limiter.IsLimited(ctx, "client")
	require.NoError(t, err)
	assert.True(t, limited)

	defaultRequests, _ := container.RateLimiterFactory.CreateRateLimiter().GetLimitDetails()
	assert.Equal(t, 100, defaultRequests, "route budgets do not change the default")
}

func TestDefaultRateLimiterFactory_InvalidRouteBudgetUsesDefault(t *testing.T) {
	f := NewDefaultRateLimiterFactory(7, time.Minute, nil, nil)

	for _, budget := range []struct {
		requests int
		window   time.Duration
	}{{0, time.Second}, {3, 0}, {-1, -time.Second}} {
		requests, window := f.CreateRateLimiterWith(budget.requests, budget.window).GetLimitDetails()
		assert.Equal(t, 7, requests)
		assert.Equal(t, time.Minute, window)
	}
}

func TestNewFactoryContainer_NilConfig(t *testing.T) {
	container := NewFactoryContainer(nil, nil)
	require.NotNil(t, container.RateLimiterFactory)
	assert.False(t, container.RateLimiterFactory.Distributed())
	assert.NotNil(t, container.RateLimiterFactory.CreateRateLimiter())
}
