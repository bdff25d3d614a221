package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewWindowLimiter_RejectsInvalidConfig(t *testing.T) {
	for _, limit := range []int{0, -1, -100} {
		limiter, err := NewWindowLimiter(time.Second, limit)
		assert.Nil(t, limiter)
		assert.ErrorIs(t, err, ErrInvalidConfig, "limit %d", limit)
	}

	limiter, err := NewWindowLimiter(0, 5)
	assert.Nil(t, limiter)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWindowLimiter_NeverExceedsLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for round := 0; round < 5; round++ {
		limit := rng.Intn(6) + 1
		callers := limit*3 + rng.Intn(limit+1)

		limiter, err := NewWindowLimiter(15*time.Millisecond, limit)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		var (
			wg       sync.WaitGroup
			current  int64
			peak     int64
			admitted int64
		)
		for i := 0; i < callers; i++ {
			hold := time.Duration(rng.Intn(3000)) * time.Microsecond
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Acquire(ctx); err != nil {
					return
				}
				n := atomic.AddInt64(&current, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				atomic.AddInt64(&admitted, 1)
				time.Sleep(hold)
				atomic.AddInt64(&current, -1)
				limiter.Release()
			}()
		}
		wg.Wait()
		cancel()

		assert.LessOrEqual(t, peak, int64(limit), "round %d: peak concurrency over limit", round)
		assert.Equal(t, int64(callers), admitted, "round %d: every caller should eventually be admitted", round)
		assert.Equal(t, 0, limiter.Snapshot().InFlight)
	}
}

func TestWindowLimiter_WindowBudget(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewWindowLimiter(time.Minute, 3, WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.TryAcquire(), "acquire %d", i+1)
		limiter.Release()
	}

	assert.False(t, limiter.TryAcquire(), "window budget is spent even though nothing is in flight")

	clock.Advance(59 * time.Second)
	assert.False(t, limiter.TryAcquire())

	clock.Advance(time.Second)
	assert.True(t, limiter.TryAcquire(), "budget resets at the window boundary")

	snap := limiter.Snapshot()
	assert.Equal(t, 1, snap.Admitted)
	assert.Equal(t, 1, snap.InFlight)
	assert.Equal(t, clock.Now().Add(time.Minute), snap.WindowResetsAt)
}

func TestWindowLimiter_ReleaseWakesWaiter(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewWindowLimiter(time.Hour, 1, WithClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, limiter.Acquire(context.Background()))
	clock.Advance(time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(context.Background())
	}()

	require.Eventually(t, func() bool { return limiter.Snapshot().Waiting == 1 }, time.Second, time.Millisecond)

	limiter.Release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not admitted after release")
	}

	snap := limiter.Snapshot()
	assert.Equal(t, 1, snap.InFlight)
	assert.Equal(t, 0, snap.Waiting)
}

func TestWindowLimiter_SecondCallerWaitsOneWindow(t *testing.T) {
	const window = 120 * time.Millisecond

	limiter, err := NewWindowLimiter(window, 1)
	require.NoError(t, err)

	start := time.Now()
	admittedAt := make(chan time.Duration, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, limiter.Acquire(context.Background())) {
				return
			}
			admittedAt <- time.Since(start)
			limiter.Release()
		}()
	}
	wg.Wait()
	close(admittedAt)

	var waits []time.Duration
	for d := range admittedAt {
		waits = append(waits, d)
	}
	require.Len(t, waits, 2)

	first, second := waits[0], waits[1]
	if second < first {
		first, second = second, first
	}
	assert.Less(t, first, window, "first caller is admitted immediately")
	assert.GreaterOrEqual(t, second, window, "second caller waits for the next window")
}

func TestWindowLimiter_AcquireHonoursContext(t *testing.T) {
	limiter, err := NewWindowLimiter(time.Hour, 1)
	require.NoError(t, err)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	snap := limiter.Snapshot()
	assert.Equal(t, 1, snap.InFlight)
	assert.Equal(t, 0, snap.Waiting)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	assert.ErrorIs(t, limiter.Acquire(cancelled), context.Canceled)
}

func TestWindowLimiter_ReleaseWithoutAcquireIsNoop(t *testing.T) {
	limiter, err := NewWindowLimiter(time.Second, 2)
	require.NoError(t, err)

	limiter.Release()
	limiter.Release()

	assert.Equal(t, 0, limiter.Snapshot().InFlight)
	assert.True(t, limiter.TryAcquire())
	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())
}
