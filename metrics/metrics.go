// Package metrics exposes Prometheus collectors for curve construction.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fallback kinds recorded by RecordFallback.
const (
	FallbackColdRetry    = "cold_retry"
	FallbackJointResolve = "joint_resolve"
)

// Quote update outcomes recorded by RecordQuoteUpdates.
const (
	QuoteApplied   = "applied"
	QuoteUnchanged = "unchanged"
	QuoteRejected  = "rejected"
)

var (
	// Registry holds the curve construction collectors.
	Registry = prometheus.NewRegistry()

	bootstraps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratecurve",
			Name:      "bootstrap_total",
			Help:      "Total number of curve bootstraps by outcome.",
		},
		[]string{"representation", "status"},
	)

	solverEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratecurve",
			Name:      "solver_evaluations_total",
			Help:      "Total number of implied quote evaluations performed by node solvers.",
		},
		[]string{"representation"},
	)

	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratecurve",
			Name:      "bootstrap_fallbacks_total",
			Help:      "Total number of cold retries and joint re-solves.",
		},
		[]string{"kind"},
	)

	bootstrapDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ratecurve",
			Name:      "bootstrap_duration_seconds",
			Help:      "Duration of curve bootstraps.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
		},
	)

	quoteUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratecurve",
			Subsystem: "feed",
			Name:      "quote_updates_total",
			Help:      "Total number of quote values read from the feed by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		bootstraps,
		solverEvaluations,
		fallbacks,
		bootstrapDuration,
		quoteUpdates,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordBootstrap records one finished bootstrap.
func RecordBootstrap(representation string, err error, duration time.Duration, evaluations int) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	bootstraps.WithLabelValues(representation, status).Inc()
	solverEvaluations.WithLabelValues(representation).Add(float64(evaluations))
	bootstrapDuration.Observe(duration.Seconds())
}

// RecordFallback records a cold retry or a joint re-solve.
func RecordFallback(kind string) {
	fallbacks.WithLabelValues(kind).Inc()
}

// RecordQuoteUpdates records quote values applied to, or rejected by, the feed.
func RecordQuoteUpdates(status string, n int) {
	if n <= 0 {
		return
	}
	quoteUpdates.WithLabelValues(status).Add(float64(n))
}
