package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordIngestion does nothing.
func (NoopMetrics) RecordIngestion(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordCycleCheck does nothing.
func (NoopMetrics) RecordCycleCheck(_ context.Context, _ bool) {}

// RecordQuery does nothing.
func (NoopMetrics) RecordQuery(_ context.Context, _ string, _ time.Duration) {}

// RecordGraphSize does nothing.
func (NoopMetrics) RecordGraphSize(_ context.Context, _, _ int64) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartIngestSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartIngestSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartQuerySpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartQuerySpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
