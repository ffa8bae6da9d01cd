package testutils

import (
	"maps"
	"sync"
	"time"

	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.MetricsCollector = (*RecordingMetrics)(nil)

// MetricCall is one recorded collector call.
type MetricCall struct {
	Kind   string
	Name   string
	Value  float64
	Labels map[string]string
}

// RecordingMetrics is a ports.MetricsCollector that keeps every call for
// later assertions. It is safe for concurrent use.
type RecordingMetrics struct {
	mu    sync.Mutex
	calls []MetricCall
}

func (r *RecordingMetrics) add(kind, name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, MetricCall{Kind: kind, Name: name, Value: value, Labels: maps.Clone(labels)})
}

// RecordLatency implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	r.add("latency", operation, d.Seconds(), labels)
}

// RecordCounter implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	r.add("counter", metric, value, labels)
}

// RecordGauge implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	r.add("gauge", metric, value, labels)
}

// RecordHistogram implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.add("histogram", metric, value, labels)
}

// Calls returns the recorded calls named name, in order.
func (r *RecordingMetrics) Calls(name string) []MetricCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []MetricCall
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Counter sums the counter calls named name whose labels include every
// entry of match.
func (r *RecordingMetrics) Counter(name string, match map[string]string) float64 {
	var total float64
	for _, c := range r.Calls(name) {
		if c.Kind != "counter" {
			continue
		}
		ok := true
		for k, v := range match {
			if c.Labels[k] != v {
				ok = false
				break
			}
		}
		if ok {
			total += c.Value
		}
	}
	return total
}
