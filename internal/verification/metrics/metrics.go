package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	Outcomes *prometheus.CounterVec
	Latency  prometheus.Histogram
}

// New creates a new Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certifynow_verifications_total",
			Help: "Total number of verification requests by outcome reason and method",
		}, []string{"reason", "method"}),
		Latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certifynow_verification_duration_seconds",
			Help:    "Time spent resolving and checking a certificate",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveOutcome records one finished verification.
func (m *Metrics) ObserveOutcome(reason, method string) {
	if m != nil {
		m.Outcomes.WithLabelValues(reason, method).Inc()
	}
}

// ObserveDuration records how long a verification took.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.Latency.Observe(d.Seconds())
	}
}
