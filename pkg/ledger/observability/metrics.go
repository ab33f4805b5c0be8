package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records causal ledger metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordIngestion records one ingestEvent call: its outcome, the
	// event type ingested, and the wall-clock duration.
	RecordIngestion(ctx context.Context, eventType string, duration time.Duration, err error)

	// RecordCycleCheck records a hasCycleWithProposedAdditions probe
	// and whether it rejected the proposed ingestion.
	RecordCycleCheck(ctx context.Context, rejected bool)

	// RecordQuery records a query operation's name and latency.
	RecordQuery(ctx context.Context, operation string, duration time.Duration)

	// RecordGraphSize records the current vertex and edge counts,
	// sampled after ingestion commits.
	RecordGraphSize(ctx context.Context, vertices, edges int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	ingestions     metric.Int64Counter
	ingestLatency  metric.Float64Histogram
	ingestErrors   metric.Int64Counter
	cycleChecks    metric.Int64Counter
	cyclesBlocked  metric.Int64Counter
	queryLatency   metric.Float64Histogram
	graphVertices  metric.Int64Gauge
	graphEdges     metric.Int64Gauge
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("causalledger")

	ingestions, err := meter.Int64Counter("ledger.ingest.count",
		metric.WithDescription("Number of ingestEvent calls"),
	)
	if err != nil {
		return nil, err
	}

	ingestLatency, err := meter.Float64Histogram("ledger.ingest.latency_ms",
		metric.WithDescription("ingestEvent latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	ingestErrors, err := meter.Int64Counter("ledger.ingest.errors",
		metric.WithDescription("Number of failed ingestEvent calls"),
	)
	if err != nil {
		return nil, err
	}

	cycleChecks, err := meter.Int64Counter("ledger.cycle_checks.count",
		metric.WithDescription("Number of hasCycleWithProposedAdditions probes"),
	)
	if err != nil {
		return nil, err
	}

	cyclesBlocked, err := meter.Int64Counter("ledger.cycle_checks.blocked",
		metric.WithDescription("Number of ingestions rejected as a causal loop"),
	)
	if err != nil {
		return nil, err
	}

	queryLatency, err := meter.Float64Histogram("ledger.query.latency_ms",
		metric.WithDescription("Query operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	graphVertices, err := meter.Int64Gauge("ledger.graph.vertices",
		metric.WithDescription("Current DAG vertex count"),
	)
	if err != nil {
		return nil, err
	}

	graphEdges, err := meter.Int64Gauge("ledger.graph.edges",
		metric.WithDescription("Current DAG edge count"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		ingestions:    ingestions,
		ingestLatency: ingestLatency,
		ingestErrors:  ingestErrors,
		cycleChecks:   cycleChecks,
		cyclesBlocked: cyclesBlocked,
		queryLatency:  queryLatency,
		graphVertices: graphVertices,
		graphEdges:    graphEdges,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordIngestion records one ingestEvent call.
func (m *otelMetrics) RecordIngestion(ctx context.Context, eventType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}
	m.ingestions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.ingestLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.ingestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCycleCheck records a cycle-check probe outcome.
func (m *otelMetrics) RecordCycleCheck(ctx context.Context, rejected bool) {
	m.cycleChecks.Add(ctx, 1)
	if rejected {
		m.cyclesBlocked.Add(ctx, 1)
	}
}

// RecordQuery records a query operation's latency.
func (m *otelMetrics) RecordQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
	}
	m.queryLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordGraphSize records the current DAG vertex and edge counts.
func (m *otelMetrics) RecordGraphSize(ctx context.Context, vertices, edges int64) {
	m.graphVertices.Record(ctx, vertices)
	m.graphEdges.Record(ctx, edges)
}
