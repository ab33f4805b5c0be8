package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the causal ledger's tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("causalledger")

// SpanManager handles trace span lifecycle for ingestion and queries.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartIngestSpan starts a span for one ingestEvent call.
	StartIngestSpan(ctx context.Context, traceID, eventType string) (context.Context, trace.Span)

	// StartQuerySpan starts a span for a query operation, named after
	// the CausalLedger method invoked (e.g. "getEventAndAncestry").
	StartQuerySpan(ctx context.Context, operation string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartIngestSpan starts a span named "ledger.ingest".
func (m *otelSpanManager) StartIngestSpan(ctx context.Context, traceID, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger.ingest",
		trace.WithAttributes(
			attribute.String("trace_id", traceID),
			attribute.String("event_type", eventType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartQuerySpan starts a span named "ledger.query.<operation>".
func (m *otelSpanManager) StartQuerySpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger.query."+operation,
		trace.WithAttributes(
			attribute.String("operation", operation),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Convenience functions that operate on the global tracer, for callers
// that don't need the interface indirection.

// StartIngestSpan starts a span for one ingestEvent call, using the
// global OTel tracer.
func StartIngestSpan(ctx context.Context, traceID, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger.ingest",
		trace.WithAttributes(
			attribute.String("trace_id", traceID),
			attribute.String("event_type", eventType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartQuerySpan starts a span for a query operation, using the global
// OTel tracer.
func StartQuerySpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger.query."+operation,
		trace.WithAttributes(
			attribute.String("operation", operation),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
