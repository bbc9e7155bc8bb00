package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Release outcomes.
const (
	ReleaseOutcomeReleased = "released"
	ReleaseOutcomeConflict = "conflict"
	ReleaseOutcomeNotFound = "not_found"
	ReleaseOutcomeInvalid  = "invalid"
	ReleaseOutcomeError    = "error"
)

// DepositReleaseMetrics tracks deposit hand-backs.
type DepositReleaseMetrics struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewDepositReleaseMetrics(reg prometheus.Registerer) *DepositReleaseMetrics {
	if reg == nil {
		return &DepositReleaseMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deposit_releases_total",
		Help:      "Deposit release attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "deposit_release_duration_seconds",
		Help:      "Time spent releasing a deposit, lock included.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	reg.MustRegister(total, duration)
	return &DepositReleaseMetrics{total: total, duration: duration}
}

// Observe records one release attempt.
func (m *DepositReleaseMetrics) Observe(outcome string, took time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}
