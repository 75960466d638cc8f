// Package metrics provides Prometheus metrics export for the chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Turn metrics
	turnLatency  *prometheus.HistogramVec
	turnRequests *prometheus.CounterVec
	turnsActive  prometheus.Gauge

	// Operation execution metrics
	operationCalls   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	// LLM metrics
	llmCalls      *prometheus.CounterVec
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec

	// Response cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{
		registry: registry,
	}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adsight",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Conversation turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"domain", "outcome"},
	)

	e.turnRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "chat",
			Name:      "turn_requests_total",
			Help:      "Total number of conversation turns",
		},
		[]string{"domain", "outcome"},
	)

	e.turnsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "adsight",
			Subsystem: "chat",
			Name:      "turns_active",
			Help:      "Number of turns currently in flight",
		},
	)

	e.operationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "executor",
			Name:      "operation_calls_total",
			Help:      "Total number of upstream operation executions",
		},
		[]string{"operation", "status"},
	)

	e.operationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adsight",
			Subsystem: "executor",
			Name:      "operation_latency_seconds",
			Help:      "Upstream operation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"operation"},
	)

	e.llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM calls",
		},
		[]string{"stage", "status"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"stage", "type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adsight",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Response cache hits",
		},
		[]string{"operation"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsight",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Response cache misses",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turnRequests,
		e.turnsActive,
		e.operationCalls,
		e.operationLatency,
		e.llmCalls,
		e.llmTokensUsed,
		e.llmLatency,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveTurn records a completed conversation turn.
func (e *PrometheusExporter) ObserveTurn(domain, outcome string, duration time.Duration) {
	e.turnLatency.WithLabelValues(domain, outcome).Observe(duration.Seconds())
	e.turnRequests.WithLabelValues(domain, outcome).Inc()
}

// TurnStarted increments the in-flight gauge.
func (e *PrometheusExporter) TurnStarted() { e.turnsActive.Inc() }

// TurnFinished decrements the in-flight gauge.
func (e *PrometheusExporter) TurnFinished() { e.turnsActive.Dec() }

// ObserveOperation records an upstream operation execution.
func (e *PrometheusExporter) ObserveOperation(operation, status string, duration time.Duration) {
	e.operationCalls.WithLabelValues(operation, status).Inc()
	e.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLLMCall records an LLM call for a pipeline stage.
func (e *PrometheusExporter) ObserveLLMCall(stage, status string, promptTokens, completionTokens int, duration time.Duration) {
	e.llmCalls.WithLabelValues(stage, status).Inc()
	e.llmLatency.WithLabelValues(stage).Observe(duration.Seconds())
	if promptTokens > 0 {
		e.llmTokensUsed.WithLabelValues(stage, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		e.llmTokensUsed.WithLabelValues(stage, "completion").Add(float64(completionTokens))
	}
}

// ObserveCacheHit records a response cache hit.
func (e *PrometheusExporter) ObserveCacheHit(operation string) {
	e.cacheHits.WithLabelValues(operation).Inc()
}

// ObserveCacheMiss records a response cache miss.
func (e *PrometheusExporter) ObserveCacheMiss(operation string) {
	e.cacheMisses.WithLabelValues(operation).Inc()
}
