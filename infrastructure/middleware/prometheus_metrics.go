// Package middleware provides cross-cutting concerns for the quiz engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-compass/internal/ports"
)

// Metric names with a dedicated Prometheus series. Any other name recorded
// through the collector lands in the generic series of its kind.
const (
	MetricRecommendations = "recommendations_total"
	MetricBlendedScore    = "domain_blended_score"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks unit and evaluation latency, operation outcomes, how often a
// reference row was matched, and the distribution of blended domain scores.
type PrometheusMetrics struct {
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	recommendations  *prometheus.CounterVec
	blendedScore     *prometheus.HistogramVec
	observations     *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// its metrics with reg. A nil reg means the global default registerer.
// Registering twice with the same registerer panics, as with promauto.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "compass",
				Name:      "execution_duration_seconds",
				Help:      "Execution time of pipeline units and whole evaluations.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"operation", "unit", "status"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compass",
				Name:      "operations_total",
				Help:      "Total number of operations by outcome.",
			},
			[]string{"operation", "unit", "status"},
		),
		recommendations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compass",
				Name:      "recommendations_total",
				Help:      "Resolved recommendations by variant and whether a reference row matched.",
			},
			[]string{"variant", "matched"},
		),
		blendedScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "compass",
				Name:      "domain_blended_score",
				Help:      "Blended psychometric and academic score per domain.",
				Buckets:   prometheus.LinearBuckets(0, 5, 16),
			},
			[]string{"domain"},
		),
		observations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "compass",
				Name:      "observations",
				Help:      "Values recorded under names without a dedicated series.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric", "unit"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "compass",
				Name:      "system_state",
				Help:      "Current values such as the last top domain score.",
			},
			[]string{"metric", "unit"},
		),
	}
}

func unitLabel(labels map[string]string) string {
	if unit := labels["unit"]; unit != "" {
		return unit
	}
	return "unknown"
}

func statusLabel(labels map[string]string) string {
	if status := labels["status"]; status != "" {
		return status
	}
	return "success"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, unitLabel(labels), statusLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricRecommendations:
		matched := labels["matched"]
		if matched == "" {
			matched = "false"
		}
		pm.recommendations.WithLabelValues(labels["variant"], matched).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, unitLabel(labels), statusLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, unitLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricBlendedScore:
		pm.blendedScore.WithLabelValues(labels["domain"]).Observe(value)
	default:
		pm.observations.WithLabelValues(metric, unitLabel(labels)).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
