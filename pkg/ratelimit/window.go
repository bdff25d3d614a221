package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfig is returned when a limiter is constructed with a non-positive limit or window.
var ErrInvalidConfig = errors.New("ratelimit: invalid configuration")

// WindowLimiter gates outgoing calls: at most limit slots may be outstanding at once and at most
// limit slots may be admitted within one fixed window.
//
// A window opens with the first admission after the previous one has expired and lasts for the
// configured duration. A caller that finds no capacity waits until a slot is released or the
// window rolls over, whichever comes first, and never longer than one window before re-checking.
type WindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu          sync.Mutex
	inFlight    int
	admitted    int
	windowStart time.Time
	waiters     int
	changed     chan struct{}
}

// WindowSnapshot is a point-in-time view of a WindowLimiter.
type WindowSnapshot struct {
	Limit          int           `json:"limit"`
	Window         time.Duration `json:"window"`
	InFlight       int           `json:"in_flight"`
	Admitted       int           `json:"admitted"`
	Waiting        int           `json:"waiting"`
	WindowResetsAt time.Time     `json:"window_resets_at,omitempty"`
}

type WindowOption func(*WindowLimiter)

// WithClock overrides the time source; intended for tests.
func WithClock(now func() time.Time) WindowOption {
	return func(l *WindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

func NewWindowLimiter(window time.Duration, limit int, opts ...WindowOption) (*WindowLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: request limit must be greater than 0, got %d", ErrInvalidConfig, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, window)
	}

	l := &WindowLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Acquire blocks until a slot can be reserved or ctx is done. Every successful Acquire must be
// paired with exactly one Release.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ratelimit: acquire: %w", err)
	}

	waiting := false
	defer func() {
		if waiting {
			l.mu.Lock()
			l.waiters--
			l.mu.Unlock()
		}
	}()

	for {
		l.mu.Lock()
		now := l.now()
		if l.admitLocked(now) {
			l.mu.Unlock()
			return nil
		}
		if !waiting {
			waiting = true
			l.waiters++
		}
		wait := l.waitLocked(now)
		changed := l.changed
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("ratelimit: acquire: %w", ctx.Err())
		case <-changed:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// TryAcquire reserves a slot without blocking and reports whether it succeeded.
func (l *WindowLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admitLocked(l.now())
}

// Release frees one reserved slot. Releasing with nothing in flight is a no-op.
func (l *WindowLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight == 0 {
		return
	}
	l.inFlight--
	l.broadcastLocked()
}

func (l *WindowLimiter) Limit() int {
	return l.limit
}

func (l *WindowLimiter) Window() time.Duration {
	return l.window
}

func (l *WindowLimiter) Snapshot() WindowSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked(l.now())

	snap := WindowSnapshot{
		Limit:    l.limit,
		Window:   l.window,
		InFlight: l.inFlight,
		Admitted: l.admitted,
		Waiting:  l.waiters,
	}
	if !l.windowStart.IsZero() {
		snap.WindowResetsAt = l.windowStart.Add(l.window)
	}
	return snap
}

// admitLocked is the single test-and-increment step; l.mu must be held.
func (l *WindowLimiter) admitLocked(now time.Time) bool {
	l.rollLocked(now)

	if l.inFlight >= l.limit || l.admitted >= l.limit {
		return false
	}
	if l.windowStart.IsZero() {
		l.windowStart = now
	}
	l.inFlight++
	l.admitted++
	return true
}

func (l *WindowLimiter) rollLocked(now time.Time) {
	if l.windowStart.IsZero() || now.Before(l.windowStart.Add(l.window)) {
		return
	}
	l.windowStart = time.Time{}
	if l.admitted > 0 {
		l.admitted = 0
		l.broadcastLocked()
	}
}

// waitLocked returns how long a blocked caller sleeps before re-checking, bounded by one window.
func (l *WindowLimiter) waitLocked(now time.Time) time.Duration {
	wait := l.window
	if l.admitted >= l.limit && !l.windowStart.IsZero() {
		if untilReset := l.windowStart.Add(l.window).Sub(now); untilReset < wait {
			wait = untilReset
		}
	}
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait
}

func (l *WindowLimiter) broadcastLocked() {
	close(l.changed)
	l.changed = make(chan struct{})
}
