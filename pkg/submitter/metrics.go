package submitter

import (
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAccepted       = "accepted"
	outcomeRejected       = "rejected"
	outcomeTransportError = "transport_error"
	outcomeCancelled      = "cancelled"
	outcomeCircuitOpen    = "circuit_open"
)

type metrics struct {
	outcomes     *prometheus.CounterVec
	latency      prometheus.Histogram
	wait         prometheus.Histogram
	breakerState prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, limiter *ratelimit.WindowLimiter) *metrics {
	factory := promauto.With(reg)

	m := &metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crpt_submissions_total",
			Help: "Document submissions by outcome.",
		}, []string{"outcome"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crpt_submission_duration_seconds",
			Help:    "Time spent in the HTTP exchange with the registration service.",
			Buckets: prometheus.DefBuckets,
		}),
		wait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crpt_submission_slot_wait_seconds",
			Help:    "Time spent waiting for a rate limiter slot.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		breakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crpt_submission_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crpt_submission_slots_in_flight",
		Help: "Submission slots currently reserved.",
	}, func() float64 {
		return float64(limiter.Snapshot().InFlight)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crpt_submission_slots_waiting",
		Help: "Callers blocked waiting for a submission slot.",
	}, func() float64 {
		return float64(limiter.Snapshot().Waiting)
	})

	return m
}
