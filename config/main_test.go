package config

import (
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, constants.DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, constants.DefaultReceiptRetention, cfg.ReceiptRetention)
	assert.Equal(t, "@daily", cfg.ReceiptPruneSchedule)
}

func TestNewAppConfig_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "25")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("RECEIPT_RETENTION", "0")
	t.Setenv("RECEIPT_PRUNE_SCHEDULE", " 0 3 * * * ")

	cfg := NewAppConfig()

	assert.Equal(t, 25, cfg.RateLimitRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.ReceiptRetention)
	assert.Equal(t, "0 3 * * *", cfg.ReceiptPruneSchedule)
}

func TestNewAppConfig_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "-3")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := NewAppConfig()

	assert.Equal(t, constants.DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, constants.DefaultRateLimitWindow(), cfg.RateLimitWindow)
}

func TestApplicationConfig_CleanupRunsHooksInReverse(t *testing.T) {
	var order []int
	ac := &ApplicationConfig{Logger: quietLogger()}
	ac.OnCleanup(func() { order = append(order, 1) })
	ac.OnCleanup(func() { order = append(order, 2) })

	ac.Cleanup()

	assert.Equal(t, []int{2, 1}, order)
}
