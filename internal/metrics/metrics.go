// Package metrics holds the Prometheus instruments of the query engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// queriesTotal counts processed queries.
	// Labels: query_type (COUNTRY, STATE, AMBIGUOUS, OUT_OF_SCOPE), outcome (success, OUT_OF_SCOPE, UNKNOWN_ENTITY, AMBIGUOUS_ENTITY)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capitals",
		Subsystem: "engine",
		Name:      "queries_total",
		Help:      "Total processed queries by query type and outcome",
	}, []string{"query_type", "outcome"})

	queryDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "capitals",
		Subsystem: "engine",
		Name:      "query_duration_seconds",
		Help:      "End-to-end query processing latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// classifierCallsTotal counts language-model calls.
	// Labels: provider, result (ok, error, timeout)
	classifierCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capitals",
		Subsystem: "classifier",
		Name:      "calls_total",
		Help:      "Language-model classification calls by provider and result",
	}, []string{"provider", "result"})

	classifierLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "capitals",
		Subsystem: "classifier",
		Name:      "latency_seconds",
		Help:      "Language-model classification call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
	}, []string{"provider"})

	// classifierFallbackTotal counts heuristic fallbacks.
	// Labels: cause (unavailable, timeout, model_error, invalid_reply)
	classifierFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capitals",
		Subsystem: "classifier",
		Name:      "fallback_total",
		Help:      "Heuristic fallbacks by cause",
	}, []string{"cause"})
)

func RecordQuery(queryType, outcome string, d time.Duration) {
	queriesTotal.WithLabelValues(queryType, outcome).Inc()
	queryDurationSeconds.Observe(d.Seconds())
}

func RecordClassifierCall(provider, result string, d time.Duration) {
	classifierCallsTotal.WithLabelValues(provider, result).Inc()
	classifierLatencySeconds.WithLabelValues(provider).Observe(d.Seconds())
}

func RecordFallback(cause string) {
	classifierFallbackTotal.WithLabelValues(cause).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
