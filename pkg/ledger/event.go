package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventRecord is an immutable commit in the ledger: identity,
// metadata, payload, parent ids, and vector clock. Once constructed
// (by the ledger, never by a caller directly) it is never mutated.
type EventRecord struct {
	EventID              string         `json:"eventId"`
	Timestamp            time.Time      `json:"timestamp"`
	NodeID               string         `json:"nodeId"`
	TraceID              string         `json:"traceId"`
	ServiceName          string         `json:"serviceName"`
	ServiceVersion       string         `json:"serviceVersion"`
	Hostname             string         `json:"hostname"`
	EventType            string         `json:"eventType"`
	Payload              map[string]any `json:"payload"`
	CausalParentEventIDs []string       `json:"causalParentEventIds"`
	VectorClock          map[string]uint64 `json:"vectorClock"`
}

// defaults applied when a field is missing on deserialization, per
// the event-log format's tolerance for partial/old records (§6).
const (
	defaultNodeID  = "default-node"
	defaultTraceID = "unknown-trace"
)

// newEventID generates a fresh UUID-shaped opaque event identity.
func newEventID() string {
	return uuid.New().String()
}

// clone returns a deep copy of the record so that callers holding a
// reference cannot mutate ledger-internal state.
func (e *EventRecord) clone() *EventRecord {
	if e == nil {
		return nil
	}
	out := *e
	out.Payload = deepCopyValue(e.Payload).(map[string]any)
	if e.CausalParentEventIDs != nil {
		out.CausalParentEventIDs = append([]string(nil), e.CausalParentEventIDs...)
	}
	if e.VectorClock != nil {
		out.VectorClock = make(map[string]uint64, len(e.VectorClock))
		for k, v := range e.VectorClock {
			out.VectorClock[k] = v
		}
	}
	return &out
}

// deepCopyValue recursively copies a dynamically typed payload value:
// maps, slices, or scalars (numbers, booleans, strings).
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = deepCopyValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = deepCopyValue(nested)
		}
		return out
	default:
		return val
	}
}

// marshalCanonical serializes the record into its wire form: a single
// JSON object, one per event-log line.
func (e *EventRecord) marshalCanonical() ([]byte, error) {
	return json.Marshal(e)
}

// unmarshalCanonical parses a single event-log line. Missing optional
// fields are defaulted, per §6's tolerance for partial records.
func unmarshalCanonical(line []byte) (*EventRecord, error) {
	var rec EventRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if rec.NodeID == "" {
		rec.NodeID = defaultNodeID
	}
	if rec.TraceID == "" {
		rec.TraceID = defaultTraceID
	}
	if rec.Payload == nil {
		rec.Payload = map[string]any{}
	}
	if rec.VectorClock == nil {
		rec.VectorClock = map[string]uint64{}
	}
	return &rec, nil
}

// dedupeParents removes duplicate parent ids while preserving first-
// occurrence order, per §3's "duplicates ignored" rule.
func dedupeParents(parents []string) []string {
	if len(parents) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(parents))
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
