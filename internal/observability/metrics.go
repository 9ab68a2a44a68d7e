// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the watcher.
type Metrics struct {
	// Ingestion metrics
	EventsAdmitted   *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec
	ProcessingErrors *prometheus.CounterVec

	// Detection metrics
	AlertsEmitted     *prometheus.CounterVec
	InsidersFlagged   prometheus.Counter
	TokensTracked     prometheus.Gauge
	CreationFallbacks prometheus.Counter

	// Latency metrics
	EventProcessingLatency prometheus.Histogram
	RPCCallLatency         *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastEventProcessed prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "whale_watch"
	}

	return &Metrics{
		EventsAdmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_admitted_total",
			Help:      "Total number of events admitted past deduplication, by kind",
		}, []string{"kind"}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped, by reason",
		}, []string{"reason"}),
		ProcessingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "processing_errors_total",
			Help:      "Total number of contained per-event processing errors, by stage",
		}, []string{"stage"}),

		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts emitted, by kind",
		}, []string{"kind"}),
		InsidersFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "insiders_flagged_total",
			Help:      "Total number of wallets newly flagged as insiders",
		}),
		TokensTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "tokens_tracked",
			Help:      "Number of tokens with a cached creation time",
		}),
		CreationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "creation_time_fallbacks_total",
			Help:      "Times creation-time resolution failed and the event timestamp was used as anchor",
		}),

		EventProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "event_processing_latency_seconds",
			Help:      "Per-event processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastEventProcessed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_event_processed_timestamp",
			Help:      "Unix timestamp of the last fully processed event",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventAdmitted increments the admitted counter for an event kind.
func RecordEventAdmitted(kind string) {
	DefaultMetrics.EventsAdmitted.WithLabelValues(kind).Inc()
}

// RecordEventDropped increments the dropped counter for a reason.
func RecordEventDropped(reason string) {
	DefaultMetrics.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordProcessingError records a contained per-event failure.
func RecordProcessingError(stage string) {
	DefaultMetrics.ProcessingErrors.WithLabelValues(stage).Inc()
}

// RecordAlert increments the alert counter for a kind.
func RecordAlert(kind string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(kind).Inc()
}

// RecordInsiderFlagged increments the flagged-insider counter.
func RecordInsiderFlagged() {
	DefaultMetrics.InsidersFlagged.Inc()
}

// RecordCreationFallback increments the fallback-anchor counter.
func RecordCreationFallback() {
	DefaultMetrics.CreationFallbacks.Inc()
}

// SetTokensTracked updates the tracked-token gauge.
func SetTokensTracked(n int) {
	DefaultMetrics.TokensTracked.Set(float64(n))
}

// RecordEventLatency records one event's processing latency.
func RecordEventLatency(seconds float64) {
	DefaultMetrics.EventProcessingLatency.Observe(seconds)
	DefaultMetrics.LastEventProcessed.SetToCurrentTime()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
