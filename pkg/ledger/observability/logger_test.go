package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf    *bytes.Buffer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	enc := json.NewEncoder(h.buf)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(name string) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(h.groups, name),
	}
	return newH
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds trace_id and node_id", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := EnrichLogger(logger, "checkout-42", "node-1")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "checkout-42", record["trace_id"])
		assert.Equal(t, "node-1", record["node_id"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		enriched := EnrichLogger(nil, "checkout-42", "node-1")
		assert.Nil(t, enriched)
	})

	t.Run("empty values are included", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := EnrichLogger(logger, "", "")
		enriched.Info("test")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "", record["trace_id"])
		assert.Equal(t, "", record["node_id"])
	})
}

func TestLogIngestStart(t *testing.T) {
	t.Run("logs trace and event type at DEBUG", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogIngestStart(logger, "checkout-42", "ORDER_CREATED")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "ingesting event", record["msg"])
		assert.Equal(t, "checkout-42", record["trace_id"])
		assert.Equal(t, "ORDER_CREATED", record["event_type"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogIngestStart(nil, "t", "TYPE")
		})
	})
}

func TestLogIngestComplete(t *testing.T) {
	t.Run("logs event id and duration at INFO", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogIngestComplete(logger, "evt-123", 12.5)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "event ingested", record["msg"])
		assert.Equal(t, "evt-123", record["event_id"])
		assert.Equal(t, 12.5, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogIngestComplete(nil, "evt", 1.0)
		})
	})
}

func TestLogIngestError(t *testing.T) {
	t.Run("logs at ERROR level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)
		testErr := errors.New("unknown parent")

		LogIngestError(logger, "checkout-42", testErr, 5.0)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "ERROR", record["level"])
		assert.Equal(t, "ingestion failed", record["msg"])
		assert.Equal(t, "checkout-42", record["trace_id"])
		assert.Equal(t, "unknown parent", record["error"])
		assert.Equal(t, 5.0, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogIngestError(nil, "t", errors.New("err"), 0)
		})
	})
}

func TestLogQuery(t *testing.T) {
	t.Run("logs operation and duration at DEBUG", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogQuery(logger, "getEventAndAncestry", 3.2)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "query executed", record["msg"])
		assert.Equal(t, "getEventAndAncestry", record["operation"])
		assert.Equal(t, 3.2, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogQuery(nil, "op", 0)
		})
	})
}

func TestLogIndexSnapshot(t *testing.T) {
	t.Run("logs success at DEBUG", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogIndexSnapshot(logger, "save", "/data/trace_id_to_event_ids.idx", nil)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "index snapshot ok", record["msg"])
	})

	t.Run("logs failure at WARN", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogIndexSnapshot(logger, "load", "/data/children_adjacency.idx", errors.New("corrupt"))

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "index snapshot failed", record["msg"])
		assert.Equal(t, "corrupt", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogIndexSnapshot(nil, "save", "path", nil)
		})
	})
}

func TestLogReplaySkippedLine(t *testing.T) {
	t.Run("logs line number and reason at WARN", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogReplaySkippedLine(logger, 42, "invalid json")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, float64(42), record["line"])
		assert.Equal(t, "invalid json", record["reason"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogReplaySkippedLine(nil, 1, "reason")
		})
	})
}

func TestTimedOperation(t *testing.T) {
	t.Run("measures duration", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(10 * time.Millisecond)
		duration := done()

		assert.GreaterOrEqual(t, duration, 10.0)
		assert.Less(t, duration, 100.0)
	})

	t.Run("returns zero for immediate call", func(t *testing.T) {
		done := TimedOperation()
		duration := done()

		assert.Less(t, duration, 1.0)
	})

	t.Run("can be called multiple times", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(5 * time.Millisecond)
		d1 := done()
		time.Sleep(5 * time.Millisecond)
		d2 := done()

		assert.Greater(t, d2, d1)
	})
}
