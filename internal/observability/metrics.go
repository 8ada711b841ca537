// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Enrichment pass metrics
	PassesTotal    *prometheus.CounterVec
	PassDuration   prometheus.Histogram
	TokensEnriched prometheus.Counter
	TokensDegraded prometheus.Counter

	// Scoring outcome metrics
	HoneypotsFlagged prometheus.Gauge
	ValidTokens      prometheus.Gauge

	// Aggregator client metrics
	SourceCallLatency *prometheus.HistogramVec
	SourceCallErrors  *prometheus.CounterVec

	// Store metrics
	StoreOperationErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPass prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the default registry. Call once per process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cardano_token_metrics"
	}

	return &Metrics{
		PassesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "passes_total",
			Help:      "Total number of enrichment passes by status",
		}, []string{"status"}),
		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "pass_duration_seconds",
			Help:      "Enrichment pass duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		TokensEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "tokens_enriched_total",
			Help:      "Total number of tokens enriched",
		}),
		TokensDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "tokens_degraded_total",
			Help:      "Total number of tokens that produced degraded records",
		}),
		HoneypotsFlagged: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "honeypots_flagged",
			Help:      "Honeypots flagged in the latest pass",
		}),
		ValidTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "valid_tokens",
			Help:      "Tokens in the valid ranking after the latest pass",
		}),
		SourceCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "call_latency_seconds",
			Help:      "Aggregator call latency in seconds by endpoint",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		SourceCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "call_errors_total",
			Help:      "Total aggregator call errors by endpoint",
		}, []string{"endpoint"}),
		StoreOperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Total store operation errors by operation",
		}, []string{"operation"}),
		LastSuccessfulPass: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "last_successful_pass_timestamp",
			Help:      "Unix timestamp of the last successful enrichment pass",
		}),
	}
}

// ObserveSourceCall records one aggregator call.
func (m *Metrics) ObserveSourceCall(endpoint string, d time.Duration, err error) {
	m.SourceCallLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	if err != nil {
		m.SourceCallErrors.WithLabelValues(endpoint).Inc()
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
