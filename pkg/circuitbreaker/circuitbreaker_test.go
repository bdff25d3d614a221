package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errUpstream = errors.New("connection refused")

func failing(context.Context) error    { return errUpstream }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	now := time.Now()
	cb := newCircuitBreaker(&Config{FailureThreshold: 2, RecoveryTimeout: time.Minute}, func() time.Time { return now })
	ctx := context.Background()

	assert.ErrorIs(t, cb.Call(ctx, failing), errUpstream)
	assert.Equal(t, Closed, cb.State())
	assert.ErrorIs(t, cb.Call(ctx, failing), errUpstream)
	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the guarded call")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	var transitions []string
	cb := newCircuitBreaker(&Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Second,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}, clock)
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	assert.Equal(t, Open, cb.State())

	now = now.Add(time.Second)
	assert.NoError(t, cb.Call(ctx, succeeding))
	assert.Equal(t, Closed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Second}, func() time.Time { return now })
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	now = now.Add(2 * time.Second)
	_ = cb.Call(ctx, failing)

	m := cb.Metrics()
	assert.Equal(t, Open, m.State)
	assert.Equal(t, "open", m.StateName)
	assert.Equal(t, now.Add(time.Second), m.NextAttempt)
}

func TestCircuitBreaker_CancellationIsNotAFailure(t *testing.T) {
	cb := NewCircuitBreaker(&Config{FailureThreshold: 1})

	err := cb.Call(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, cb.State())
	assert.Equal(t, 0, cb.Metrics().FailureCount)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(&Config{FailureThreshold: 1})
	_ = cb.Call(context.Background(), failing)
	assert.Equal(t, Open, cb.State())

	cb.Reset()
	assert.Equal(t, Closed, cb.State())
	assert.NoError(t, cb.Call(context.Background(), succeeding))
}

func TestCircuitBreaker_AllowTracksRecoveryWindow(t *testing.T) {
	now := time.Now()
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Minute}, func() time.Time { return now })

	assert.True(t, cb.Allow())
	_ = cb.Call(context.Background(), failing)
	assert.False(t, cb.Allow())
	assert.Equal(t, Open, cb.State())

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, Open, cb.State(), "Allow must not transition the circuit")
}
