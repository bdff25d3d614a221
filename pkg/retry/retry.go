package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"syscall"
	"time"
)

// Policy runs an operation until it succeeds, fails permanently, or runs out of attempts.
type Policy interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64

	// Retryable overrides the default classification of transient errors.
	Retryable func(error) bool
}

// DefaultConfig returns the backoff used for startup connectivity checks.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// ExponentialBackoff retries with exponentially growing delays capped at MaxDelay.
type ExponentialBackoff struct {
	config Config
}

func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	cfg := *DefaultConfig()
	if config != nil {
		if config.MaxAttempts > 0 {
			cfg.MaxAttempts = config.MaxAttempts
		}
		if config.BaseDelay > 0 {
			cfg.BaseDelay = config.BaseDelay
		}
		if config.MaxDelay > 0 {
			cfg.MaxDelay = config.MaxDelay
		}
		if config.Multiplier >= 1 {
			cfg.Multiplier = config.Multiplier
		}
		cfg.Retryable = config.Retryable
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsTransient
	}
	return &ExponentialBackoff{config: cfg}
}

func (eb *ExponentialBackoff) Execute(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= eb.config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == eb.config.MaxAttempts || !eb.config.Retryable(err) {
			break
		}

		timer := time.NewTimer(eb.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if !eb.config.Retryable(lastErr) {
		return lastErr
	}
	return &MaxRetriesExceededError{LastError: lastErr, MaxAttempts: eb.config.MaxAttempts}
}

func (eb *ExponentialBackoff) delay(attempt int) time.Duration {
	d := float64(eb.config.BaseDelay) * math.Pow(eb.config.Multiplier, float64(attempt-1))
	if d > float64(eb.config.MaxDelay) {
		d = float64(eb.config.MaxDelay)
	}
	return time.Duration(d)
}

// IsTransient reports whether err looks like a connectivity failure worth retrying.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"no such host",
		"the database system is starting up",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// MaxRetriesExceededError indicates that all retry attempts were exhausted.
type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return "max retries exceeded: " + e.LastError.Error()
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
