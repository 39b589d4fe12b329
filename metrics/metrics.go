// Package metrics exposes Prometheus counters for tracking outcomes and relay
// calls. Relay failures are never shown to visitors, so these metrics are the
// only place they surface.
//
// Exported at /metrics:
//   - matomo_outcomes_total{outcome,reason}
//   - matomo_relay_failures_total{cause}
//   - matomo_relay_duration_seconds
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	Outcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matomo_outcomes_total",
			Help: "Page renders by tracking outcome",
		},
		[]string{"outcome", "reason"},
	)

	RelayFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matomo_relay_failures_total",
			Help: "Server-side tracking requests that failed",
		},
		[]string{"cause"},
	)

	RelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matomo_relay_duration_seconds",
			Help:    "Duration of server-side tracking requests",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// RecordOutcome counts one render. reason is empty unless the render was suppressed.
func RecordOutcome(outcome, reason string) {
	Outcomes.WithLabelValues(outcome, reason).Inc()
}

// RecordRelay observes one relay call and counts it as a failure when err is set.
func RecordRelay(d time.Duration, err error) {
	RelayDuration.Observe(d.Seconds())
	if err == nil {
		return
	}
	RelayFailures.WithLabelValues(relayCause(err)).Inc()
}

func relayCause(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
