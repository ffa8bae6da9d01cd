package ports

import (
	"context"
	"io"
	"time"

	"github.com/ahrav/go-compass/internal/domain"
)

// CatalogSource produces a validated question catalog. Implementations read
// YAML files, tabular CSV files or embedded defaults.
type CatalogSource interface {
	// Load reads and validates the catalog. Malformed input fails with an
	// error matching domain.ErrMalformedCatalog.
	Load(ctx context.Context) (*domain.Catalog, error)
}

// ReferenceStore serves the read-only reference table.
type ReferenceStore interface {
	// Lookup returns the row stored under key by exact match.
	Lookup(key domain.ReferenceKey) (domain.ReferenceRow, bool)

	// Fallback returns the generic guidance for a variant, rendered when no
	// row matches.
	Fallback(variant domain.Variant) domain.ReferenceRow
}

// ReportRenderer turns a computed result into a report document.
type ReportRenderer interface {
	// Format names the output, e.g. "text" or "pdf".
	Format() string

	// Extension is the file extension including the dot.
	Extension() string

	// Render writes the report for result to w.
	Render(ctx context.Context, w io.Writer, result domain.Result) error
}

// ReportSink persists rendered reports. It is the only state that outlives
// a session.
type ReportSink interface {
	// Write stores the rendered report and returns where it was stored.
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations integrate with observability platforms like Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, such as a blended
	// domain score.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
