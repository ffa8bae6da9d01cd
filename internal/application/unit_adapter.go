package application

import (
	"context"
	"time"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.Executable = (*UnitAdapter)(nil)

// UnitAdapter wraps a ports.Unit so it can run inside a Pipeline, and
// reports each execution's latency and outcome when a metrics collector
// is attached.
type UnitAdapter struct {
	// unit performs the actual work when Execute is called.
	unit ports.Unit
	// id is the identifier of the adapter within its pipeline.
	id string
	// metrics is optional.
	metrics ports.MetricsCollector
}

// NewUnitAdapter creates a new adapter around unit.
func NewUnitAdapter(unit ports.Unit, id string) *UnitAdapter {
	return &UnitAdapter{
		unit: unit,
		id:   id,
	}
}

// WithMetrics returns a copy of the adapter that records unit latency and
// outcome counts to metrics.
func (ua *UnitAdapter) WithMetrics(metrics ports.MetricsCollector) *UnitAdapter {
	cp := *ua
	cp.metrics = metrics
	return &cp
}

// Execute delegates to the wrapped unit, keeping its semantics for errors
// and context cancellation.
func (ua *UnitAdapter) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if ua.metrics == nil {
		return ua.unit.Execute(ctx, state)
	}

	start := time.Now()
	next, err := ua.unit.Execute(ctx, state)
	status := "success"
	if err != nil {
		status = "error"
	}
	labels := map[string]string{"unit": ua.id, "status": status}
	ua.metrics.RecordLatency("unit_execute", time.Since(start), labels)
	ua.metrics.RecordCounter("unit_executions_total", 1, labels)
	return next, err
}

// ID returns the adapter's identifier.
func (ua *UnitAdapter) ID() string { return ua.id }

// Unit returns the wrapped unit.
func (ua *UnitAdapter) Unit() ports.Unit { return ua.unit }
