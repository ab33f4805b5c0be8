package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// IndexSnapshot is the serializable form of every secondary index
// CausalLedger maintains, plus the bidirectional vertex<->event
// mapping the DAG itself needs to resize on restore. Each field is
// stored in one of the six on-disk files of §6; TraceToEventIDs and
// LatestByTrace share trace_id_to_event_ids.idx.
type IndexSnapshot struct {
	EventToGraphID      map[string]int    `json:"eventToGraphId"`
	GraphToEventID      map[int]string    `json:"graphToEventId"`
	ChildrenAdjacency   map[int][]int     `json:"childrenAdjacency"`
	ServiceToEventIDs   map[string][]string `json:"entityToEventIds"`
	EventTypeToEventIDs map[string][]string `json:"eventTypeToEventIds"`
	TraceToEventIDs     map[string][]string `json:"traceIdToEventIds"`
	LatestByTrace       map[string]string   `json:"latestByTrace"`
}

// indexFileNames lists the on-disk basenames from §6, in the order
// they're probed on warm startup. All must parse for the warm path to
// be taken.
var indexFileNames = []string{
	"entity_to_event_ids.idx",
	"children_adjacency.idx",
	"event_to_graph_id.idx",
	"graph_to_event_id.idx",
	"event_type_to_event_ids.idx",
	"trace_id_to_event_ids.idx",
}

// SaveIndexSnapshot writes snap to dir as the six index files, each
// atomically (write-to-temp, rename), per §4.6.
func SaveIndexSnapshot(dir string, snap IndexSnapshot) error {
	files := map[string]any{
		"entity_to_event_ids.idx":     snap.ServiceToEventIDs,
		"children_adjacency.idx":      snap.ChildrenAdjacency,
		"event_to_graph_id.idx":       snap.EventToGraphID,
		"graph_to_event_id.idx":       snap.GraphToEventID,
		"event_type_to_event_ids.idx": snap.EventTypeToEventIDs,
		"trace_id_to_event_ids.idx":   snapshotTraceFile(snap),
	}
	for name, data := range files {
		if err := atomicWriteJSON(filepath.Join(dir, name), data); err != nil {
			return fmt.Errorf("save index %s: %w", name, err)
		}
	}
	return nil
}

// traceIndexFile bundles traceId->eventIds with the per-trace head,
// since both live in the single trace_id_to_event_ids.idx file.
type traceIndexFile struct {
	ByTrace       map[string][]string `json:"byTrace"`
	LatestByTrace map[string]string   `json:"latestByTrace"`
}

func snapshotTraceFile(snap IndexSnapshot) traceIndexFile {
	return traceIndexFile{ByTrace: snap.TraceToEventIDs, LatestByTrace: snap.LatestByTrace}
}

// LoadIndexSnapshot reads all six index files from dir. It returns an
// error if any file is missing or fails to parse, signaling to the
// caller that the cold rebuild path must be taken instead.
func LoadIndexSnapshot(dir string) (IndexSnapshot, error) {
	var snap IndexSnapshot

	if err := readJSON(filepath.Join(dir, "entity_to_event_ids.idx"), &snap.ServiceToEventIDs); err != nil {
		return IndexSnapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, "children_adjacency.idx"), &snap.ChildrenAdjacency); err != nil {
		return IndexSnapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, "event_to_graph_id.idx"), &snap.EventToGraphID); err != nil {
		return IndexSnapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, "graph_to_event_id.idx"), &snap.GraphToEventID); err != nil {
		return IndexSnapshot{}, err
	}
	if err := readJSON(filepath.Join(dir, "event_type_to_event_ids.idx"), &snap.EventTypeToEventIDs); err != nil {
		return IndexSnapshot{}, err
	}
	var traceFile traceIndexFile
	if err := readJSON(filepath.Join(dir, "trace_id_to_event_ids.idx"), &traceFile); err != nil {
		return IndexSnapshot{}, err
	}
	snap.TraceToEventIDs = traceFile.ByTrace
	snap.LatestByTrace = traceFile.LatestByTrace

	return snap, nil
}

// atomicWriteJSON marshals v and writes it to path via a temp file in
// the same directory followed by an atomic rename, per §4.6 and the
// teacher's TOCTOU-safe file creation idiom in checkpoint's SQLite
// store (generalized here from "create a file safely" to "replace a
// file safely").
func atomicWriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
