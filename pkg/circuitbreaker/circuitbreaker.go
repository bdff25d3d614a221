package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed lets calls through
	Closed CircuitState = iota
	// Open rejects calls until the recovery timeout elapses
	Open
	// HalfOpen lets trial calls through to test recovery
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to a remote dependency and fails fast after repeated failures.
type CircuitBreaker interface {
	Call(ctx context.Context, fn func(context.Context) error) error
	// Allow reports whether Call would currently let a call through, without changing state.
	Allow() bool
	State() CircuitState
	Metrics() Metrics
	Reset()
}

type Config struct {
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // time spent open before a trial call
	SuccessThreshold int           // successful probes needed to close again

	// IsFailure decides whether an error counts against the circuit. Defaults to err != nil
	// excluding context cancellation, which says nothing about the dependency.
	IsFailure func(error) bool

	// OnStateChange is called outside the lock after every transition. Concurrent transitions may
	// be delivered out of order; read State() for the current value.
	OnStateChange func(from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 1,
	}
}

type Metrics struct {
	State        CircuitState `json:"-"`
	StateName    string       `json:"state"`
	FailureCount int          `json:"failure_count"`
	SuccessCount int          `json:"success_count"`
	LastFailure  time.Time    `json:"last_failure,omitempty"`
	NextAttempt  time.Time    `json:"next_attempt,omitempty"`
}

type circuitBreaker struct {
	config      Config
	now         func() time.Time
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
	nextAttempt time.Time
	mutex       sync.Mutex
}

// NewCircuitBreaker returns a circuit breaker and applies defaults for nil or zero settings.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	cfg := *DefaultConfig()
	if config != nil {
		if config.FailureThreshold > 0 {
			cfg.FailureThreshold = config.FailureThreshold
		}
		if config.RecoveryTimeout > 0 {
			cfg.RecoveryTimeout = config.RecoveryTimeout
		}
		if config.SuccessThreshold > 0 {
			cfg.SuccessThreshold = config.SuccessThreshold
		}
		cfg.IsFailure = config.IsFailure
		cfg.OnStateChange = config.OnStateChange
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = defaultIsFailure
	}

	return &circuitBreaker{config: cfg, now: now, state: Closed}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (cb *circuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	cb.mutex.Lock()
	from := cb.state
	if cb.state == Open && !cb.now().Before(cb.nextAttempt) {
		cb.state = HalfOpen
		cb.successes = 0
	}
	allowed := cb.state != Open
	to := cb.state
	cb.mutex.Unlock()
	cb.notify(from, to)

	if !allowed {
		return ErrCircuitOpen
	}

	// fn runs without the lock held.
	err := fn(ctx)

	cb.mutex.Lock()
	from = cb.state
	if cb.config.IsFailure(err) {
		cb.recordFailure()
	} else if err == nil {
		cb.recordSuccess()
	}
	to = cb.state
	cb.mutex.Unlock()
	cb.notify(from, to)

	return err
}

func (cb *circuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state != Open || !cb.now().Before(cb.nextAttempt)
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mutex.Lock()
	from := cb.state
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
	cb.mutex.Unlock()
	cb.notify(from, Closed)
}

func (cb *circuitBreaker) Metrics() Metrics {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return Metrics{
		State:        cb.state,
		StateName:    cb.state.String(),
		FailureCount: cb.failures,
		SuccessCount: cb.successes,
		LastFailure:  cb.lastFailure,
		NextAttempt:  cb.nextAttempt,
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.open()
		}
	case HalfOpen:
		cb.open()
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = Closed
			cb.successes = 0
		}
	}
}

func (cb *circuitBreaker) open() {
	cb.state = Open
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
