// Package middleware provides cross-cutting concerns for the generation
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-copyforge/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of provider latency,
// pipeline drop rates, budget consumption, and score distributions for
// the generation pipeline.
type PrometheusMetrics struct {
	providerLatency  *prometheus.HistogramVec
	pipelineCounters *prometheus.CounterVec
	budgetCounters   *prometheus.CounterVec
	scoreHistogram   *prometheus.HistogramVec
	countHistogram   *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		providerLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_provider_duration_seconds",
				Help:    "Latency of LLM provider completion calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		pipelineCounters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_pipeline_events_total",
				Help: "Pipeline stage events: parse failures, dropped texts, threshold failures.",
			},
			[]string{"event", "provider"},
		),
		budgetCounters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_budget_rejections_total",
				Help: "Provider calls refused by budget limits.",
			},
			[]string{"limit_type", "scope"},
		),
		scoreHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_headline_score",
				Help:    "Distribution of heuristic CTR scores across headlines.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"provider"},
		),
		countHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_texts_per_candidate",
				Help:    "Surviving headline and description counts per candidate.",
				Buckets: prometheus.LinearBuckets(0, 2, 11),
			},
			[]string{"metric", "provider"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "generation_system_state",
				Help: "Current system state values: budget usage, in-flight work.",
			},
			[]string{"metric", "scope"},
		),
	}
}

// providerOrScope extracts the best available label from a metric's label
// map, falling back to "unknown".
func providerOrScope(labels map[string]string) string {
	if v, ok := labels["provider"]; ok {
		return v
	}
	if v, ok := labels["scope"]; ok {
		return v
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.providerLatency.WithLabelValues(operation, providerOrScope(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Budget rejections route to their own family; every
// other counter is a pipeline event.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	if metric == "budget_exceeded_total" {
		pm.budgetCounters.WithLabelValues(labels["limit_type"], providerOrScope(labels)).Add(value)
		return
	}
	pm.pipelineCounters.WithLabelValues(metric, providerOrScope(labels)).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, providerOrScope(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by routing
// values to the matching histogram family.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "headline_score", "pipeline_batch_success_rate":
		pm.scoreHistogram.WithLabelValues(providerOrScope(labels)).Observe(value)
	default:
		pm.countHistogram.WithLabelValues(metric, providerOrScope(labels)).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
