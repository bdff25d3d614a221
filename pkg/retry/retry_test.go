package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) *Config {
	return &Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestExponentialBackoff_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := NewExponentialBackoff(fastConfig(3)).Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExponentialBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("password authentication failed")
	err := NewExponentialBackoff(fastConfig(5)).Execute(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := NewExponentialBackoff(fastConfig(2)).Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("i/o timeout")
	})

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.Contains(t, err.Error(), "i/o timeout")
	assert.Equal(t, 2, calls)
}

func TestExponentialBackoff_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := NewExponentialBackoff(&Config{MaxAttempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour})

	err := policy.Execute(ctx, func(context.Context) error {
		cancel()
		return errors.New("connection reset by peer")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponentialBackoff_DelayIsCapped(t *testing.T) {
	eb := NewExponentialBackoff(&Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, eb.delay(1))
	assert.Equal(t, 200*time.Millisecond, eb.delay(2))
	assert.Equal(t, 300*time.Millisecond, eb.delay(3))
}
