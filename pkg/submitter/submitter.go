// Package submitter sends signed documents to the registration service while keeping the
// outgoing request rate inside a fixed window budget.
package submitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/pkg/circuitbreaker"
	"github.com/akeren/crpt-gateway/pkg/constants"
	"github.com/akeren/crpt-gateway/pkg/document"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/crpt-gateway/pkg/submitter"

// errServerError marks a 5xx reply so the circuit breaker counts it; it never reaches callers.
var errServerError = errors.New("upstream server error")

// Logger is the subset of the application logger the submitter writes to.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Endpoint        string
	TimeUnit        time.Duration
	RequestLimit    int
	Timeout         time.Duration
	SignatureHeader string

	// Breaker enables fail-fast on repeated transport failures. Nil disables it.
	Breaker *circuitbreaker.Config
}

// Result describes one completed exchange with the registration service.
type Result struct {
	StatusCode int           `json:"status_code"`
	Status     string        `json:"status"`
	Waited     time.Duration `json:"waited"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Succeeded reports a 2xx reply.
func (r *Result) Succeeded() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

type Option func(*options)

type options struct {
	client     *http.Client
	logger     Logger
	registerer prometheus.Registerer
	limiter    *ratelimit.WindowLimiter
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer registers submission metrics. Without it metrics are kept on a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLimiter shares an existing limiter; TimeUnit and RequestLimit are then ignored.
func WithLimiter(limiter *ratelimit.WindowLimiter) Option {
	return func(o *options) { o.limiter = limiter }
}

type Submitter struct {
	endpoint string
	header   string
	client   *http.Client
	limiter  *ratelimit.WindowLimiter
	breaker  circuitbreaker.CircuitBreaker
	logger   Logger
	metrics  *metrics
	tracer   trace.Tracer
}

// New validates cfg and builds a submitter. A non-positive request limit or time unit is a
// configuration error and no submitter is returned.
func New(cfg Config, opts ...Option) (*Submitter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	limiter := o.limiter
	if limiter == nil {
		var err error
		limiter, err = ratelimit.NewWindowLimiter(cfg.TimeUnit, cfg.RequestLimit)
		if err != nil {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("request limit must be positive (got %d per %s)", cfg.RequestLimit, cfg.TimeUnit), err)
		}
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = constants.DefaultDocumentsCreateURL
	}
	header := strings.TrimSpace(cfg.SignatureHeader)
	if header == "" {
		header = constants.DefaultSignatureHeader
	}

	client := o.client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultSubmitHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := o.logger
	if logger == nil {
		logger = nopLogger{}
	}

	reg := o.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Submitter{
		endpoint: endpoint,
		header:   header,
		client:   client,
		limiter:  limiter,
		logger:   logger,
		metrics:  newMetrics(reg, limiter),
		tracer:   otel.Tracer(tracerName),
	}

	if cfg.Breaker != nil {
		breakerCfg := *cfg.Breaker
		breakerCfg.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		breakerCfg.OnStateChange = func(from, to circuitbreaker.CircuitState) {
			s.metrics.breakerState.Set(float64(s.breaker.State()))
			s.logger.Info("Submission circuit breaker state changed", "from", from.String(), "to", to.String())
		}
		s.breaker = circuitbreaker.NewCircuitBreaker(&breakerCfg)
	}

	return s, nil
}

// Limiter exposes the outgoing request limiter.
func (s *Submitter) Limiter() *ratelimit.WindowLimiter {
	return s.limiter
}

// Breaker returns nil when the circuit breaker is disabled.
func (s *Submitter) Breaker() circuitbreaker.CircuitBreaker {
	return s.breaker
}

// SubmitDocument serializes doc and submits it.
func (s *Submitter) SubmitDocument(ctx context.Context, doc *document.Document, signature string) (*Result, error) {
	body, err := document.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewInvalidRequestError("document could not be serialized", err)
	}
	return s.Submit(ctx, body, signature)
}

// Submit blocks until a slot is available, posts body with the signature header and releases the
// slot on every path. A non-2xx reply is returned as a Result with a nil error. While the circuit
// breaker is open, Submit fails fast without waiting for a slot.
func (s *Submitter) Submit(ctx context.Context, body []byte, signature string) (*Result, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperrors.NewInvalidRequestError("document body is empty", nil)
	}
	if strings.TrimSpace(signature) == "" {
		return nil, apperrors.NewInvalidRequestError("signature is required", nil)
	}

	ctx, span := s.tracer.Start(ctx, "crpt.documents.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", s.endpoint),
			attribute.Int("crpt.body_bytes", len(body)),
		))
	defer span.End()

	// An open circuit rejects before taking a slot, so it neither waits nor spends window budget.
	if s.breaker != nil && !s.breaker.Allow() {
		s.metrics.outcomes.WithLabelValues(outcomeCircuitOpen).Inc()
		span.RecordError(circuitbreaker.ErrCircuitOpen)
		span.SetStatus(codes.Error, "circuit open")
		return nil, apperrors.NewTransportError("registration service is unreachable", circuitbreaker.ErrCircuitOpen)
	}

	start := time.Now()
	if err := s.limiter.Acquire(ctx); err != nil {
		s.metrics.outcomes.WithLabelValues(outcomeCancelled).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "slot wait cancelled")
		return nil, apperrors.NewRequestTimeoutError("gave up waiting for a submission slot", err)
	}
	defer s.limiter.Release()

	waited := time.Since(start)
	s.metrics.wait.Observe(waited.Seconds())
	span.SetAttributes(attribute.Int64("crpt.slot_wait_ms", waited.Milliseconds()))

	sent := time.Now()
	code, status, err := s.exchange(ctx, body, signature)
	s.metrics.latency.Observe(time.Since(sent).Seconds())

	if err != nil {
		s.metrics.outcomes.WithLabelValues(outcomeTransportError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		s.logger.Error("Document submission failed", "endpoint", s.endpoint, "error", err)
		return nil, apperrors.NewTransportError("registration service is unreachable", err)
	}

	result := &Result{
		StatusCode: code,
		Status:     status,
		Waited:     waited,
		Elapsed:    time.Since(start),
	}

	span.SetAttributes(attribute.Int("http.response.status_code", code))
	if result.Succeeded() {
		s.metrics.outcomes.WithLabelValues(outcomeAccepted).Inc()
	} else {
		s.metrics.outcomes.WithLabelValues(outcomeRejected).Inc()
		span.SetStatus(codes.Error, status)
	}

	s.logger.Info("Document submitted",
		"status", code,
		"status_text", status,
		"waited_ms", waited.Milliseconds(),
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)

	return result, nil
}

// exchange performs the HTTP call, through the circuit breaker when one is configured.
func (s *Submitter) exchange(ctx context.Context, body []byte, signature string) (int, string, error) {
	if s.breaker == nil {
		return s.send(ctx, body, signature)
	}

	var code int
	var status string
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var sendErr error
		code, status, sendErr = s.send(ctx, body, signature)
		if sendErr != nil {
			return sendErr
		}
		if code >= http.StatusInternalServerError {
			return errServerError
		}
		return nil
	})
	if errors.Is(err, errServerError) {
		err = nil
	}
	return code, status, err
}

func (s *Submitter) send(ctx context.Context, body []byte, signature string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(s.header, signature)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode, resp.Status, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
