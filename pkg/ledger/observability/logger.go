// Package observability provides production-grade observability features
// for the causal ledger: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds ledger context to a logger.
// Returns a new logger with trace_id and node_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "checkout-42", "node-1")
//	enriched.Info("ingesting event") // includes trace_id, node_id
func EnrichLogger(logger *slog.Logger, traceID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("trace_id", traceID),
		slog.String("node_id", nodeID),
	)
}

// LogIngestStart logs the start of an ingestEvent call.
func LogIngestStart(logger *slog.Logger, traceID, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("ingesting event",
		slog.String("trace_id", traceID),
		slog.String("event_type", eventType),
	)
}

// LogIngestComplete logs successful ingestion.
func LogIngestComplete(logger *slog.Logger, eventID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("event ingested",
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogIngestError logs ingestion failure.
func LogIngestError(logger *slog.Logger, traceID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("ingestion failed",
		slog.String("trace_id", traceID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogQuery logs a completed query operation.
func LogQuery(logger *slog.Logger, operation string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("query executed",
		slog.String("operation", operation),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogIndexSnapshot logs an index persistence save or load.
func LogIndexSnapshot(logger *slog.Logger, op string, path string, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("index snapshot failed",
			slog.String("operation", op),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("index snapshot ok",
		slog.String("operation", op),
		slog.String("path", path),
	)
}

// LogReplaySkippedLine logs a corrupt or malformed event-log line
// skipped during replay, per §4.4's tolerance for partial records.
func LogReplaySkippedLine(logger *slog.Logger, lineNumber int, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("skipping malformed event-log line",
		slog.Int("line", lineNumber),
		slog.String("reason", reason),
	)
}

// LogEventStoreProbe logs the outcome of the warm-start event-store
// readability probe (§4.6: "the event store is also probed for
// readability").
func LogEventStoreProbe(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("event store readability probe failed",
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("event store readability probe ok")
}

// LogFsyncTick logs the outcome of a periodic FsyncInterval sync.
func LogFsyncTick(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("periodic event log fsync failed",
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("periodic event log fsync ok")
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
