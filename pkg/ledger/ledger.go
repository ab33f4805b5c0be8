package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/randalmurphal/causalledger/pkg/ledger/observability"
	"github.com/randalmurphal/causalledger/pkg/ledger/store"
)

// IngestRequest carries the arguments to IngestEvent. ExplicitParentEventIDs
// may be nil or empty, in which case the auto-parenting rule applies.
type IngestRequest struct {
	TraceID              string
	ServiceName          string
	ServiceVersion       string
	Hostname             string
	EventType            string
	Payload              map[string]any
	ExplicitParentEventIDs []string
}

// CausalLedger is the coordinating facade described in §4.8: it
// serializes ingestion under a single reader-writer lock, orchestrates
// the two-tier persistence scheme, and exposes every query operation
// the external HTTP/CLI collaborators consume.
type CausalLedger struct {
	mu sync.RWMutex

	dag   *dag
	idx   *indexSet
	vcm   *vectorClockManager
	proj  *StateProjector
	cache map[string]*EventRecord // in-process event bodies, keyed by event id

	dataDir string
	log     *store.EventLog
	bodies  store.EventStore

	opts *options

	ingestionCount  uint64
	cycleCheckCount uint64
	cyclesPrevented uint64

	closed   bool
	syncDone chan struct{}
	syncWG   sync.WaitGroup
}

// Open starts (or resumes) a ledger whose event log lives at
// logFilePath. The data directory is the parent of logFilePath, or
// the current directory if logFilePath has no parent (§6's
// Configuration section).
func Open(logFilePath string, opts ...Option) (*CausalLedger, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}

	dataDir := filepath.Dir(logFilePath)
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, &PersistenceError{Op: "mkdir_data_dir", Err: err}
	}

	led := &CausalLedger{
		dag:     newDAG(o.initialCapacity),
		idx:     newIndexSet(),
		vcm:     newVectorClockManager(o.nodeID),
		proj:    NewStateProjector(o.logger),
		cache:   make(map[string]*EventRecord),
		dataDir: dataDir,
		opts:    o,
	}

	storeDir := filepath.Join(dataDir, "event_store_sqlite")
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, &PersistenceError{Op: "event_store_open", Err: err}
	}
	bodies, err := store.NewSQLiteEventStore(filepath.Join(storeDir, "events.db"))
	if err != nil {
		return nil, &PersistenceError{Op: "event_store_open", Err: err}
	}
	led.bodies = bodies

	if err := led.restore(logFilePath); err != nil {
		bodies.Close()
		return nil, err
	}

	eventLog, err := store.OpenEventLog(logFilePath, store.FsyncPolicy(o.fsyncPolicy))
	if err != nil {
		bodies.Close()
		return nil, &PersistenceError{Op: "log_open", Err: err}
	}
	led.log = eventLog

	if o.fsyncPolicy == FsyncInterval {
		led.startFsyncTicker()
	}

	return led, nil
}

// startFsyncTicker runs a background goroutine that calls log.Sync on
// the configured fsyncInterval, making FsyncInterval an actual internal
// timer rather than a policy the caller must drive by hand. Stopped by
// Close via syncDone.
func (led *CausalLedger) startFsyncTicker() {
	led.syncDone = make(chan struct{})
	led.syncWG.Add(1)
	go func() {
		defer led.syncWG.Done()
		ticker := time.NewTicker(led.opts.fsyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				observability.LogFsyncTick(led.opts.logger, led.log.Sync())
			case <-led.syncDone:
				return
			}
		}
	}()
}

// restore takes the warm path (loading persisted index snapshots and
// replaying only edges) when every index file parses, and falls back
// to the cold path (a full two-pass log replay) otherwise, per §4.6.
func (led *CausalLedger) restore(logFilePath string) error {
	snap, err := store.LoadIndexSnapshot(led.dataDir)
	if err != nil {
		return led.coldRestore(logFilePath)
	}
	return led.warmRestore(logFilePath, snap)
}

func (led *CausalLedger) warmRestore(logFilePath string, snap store.IndexSnapshot) error {
	maxVertex := -1
	for v := range snap.GraphToEventID {
		if v > maxVertex {
			maxVertex = v
		}
	}
	if maxVertex >= 0 {
		led.dag.ensureCapacity(maxVertex)
	}

	led.idx.eventToVertex = snap.EventToGraphID
	led.idx.vertexToEvent = snap.GraphToEventID
	led.idx.children = snap.ChildrenAdjacency
	led.idx.byService = snap.ServiceToEventIDs
	led.idx.byType = snap.EventTypeToEventIDs
	led.idx.byTrace = snap.TraceToEventIDs
	led.idx.latestByTrace = snap.LatestByTrace

	if err := led.probeEventStoreReadability(); err != nil {
		return &PersistenceError{Op: "warm_restore_probe", Err: err}
	}

	// Rebuild event bodies and DAG edges by replaying the log once;
	// vertices already exist via the loaded mapping, so this pass only
	// adds effect->cause edges.
	return store.ReplayLines(logFilePath, func(_ int, line []byte) error {
		rec, err := unmarshalCanonical(line)
		if err != nil {
			return err
		}
		led.cache[rec.EventID] = rec
		effectVertex, ok := led.idx.vertexForEvent(rec.EventID)
		if !ok {
			return fmt.Errorf("ledger: warm restore: event %s missing from loaded index", rec.EventID)
		}
		for _, parentID := range rec.CausalParentEventIDs {
			causeVertex, ok := led.idx.vertexForEvent(parentID)
			if !ok {
				continue
			}
			_ = led.dag.addEdge(effectVertex, causeVertex)
		}
		return nil
	}, func(lineNumber int, reason string) {
		observability.LogReplaySkippedLine(led.opts.logger, lineNumber, reason)
	})
}

// probeEventStoreReadability performs the §4.6 warm-start check that
// the event store is readable, not just the index snapshot. It is
// bounded to a single sample (one event id drawn from the loaded
// index) rather than a full store scan: the goal is to catch a
// missing/corrupt event_store_sqlite file early, not to verify every
// body.
func (led *CausalLedger) probeEventStoreReadability() error {
	var sampleID string
	for id := range led.idx.eventToVertex {
		sampleID = id
		break
	}
	if sampleID == "" {
		// Empty ledger: nothing to sample, but Has must still answer
		// without error for an empty-but-open store.
		_, err := led.bodies.Has("")
		observability.LogEventStoreProbe(led.opts.logger, err)
		return err
	}

	ok, err := led.bodies.Has(sampleID)
	if err == nil && !ok {
		err = fmt.Errorf("ledger: warm restore: event store missing body for indexed event %s", sampleID)
	}
	observability.LogEventStoreProbe(led.opts.logger, err)
	return err
}

func (led *CausalLedger) coldRestore(logFilePath string) error {
	led.dag = newDAG(led.opts.initialCapacity)
	led.idx = newIndexSet()
	led.cache = make(map[string]*EventRecord)

	// Pass 1: create a vertex per event and populate per-event indexes.
	err := store.ReplayLines(logFilePath, func(_ int, line []byte) error {
		rec, err := unmarshalCanonical(line)
		if err != nil {
			return err
		}
		led.cache[rec.EventID] = rec
		vertexID := led.dag.addVertex()
		led.idx.recordVertex(rec.EventID, vertexID)
		led.idx.recordEvent(rec)
		return nil
	}, func(lineNumber int, reason string) {
		observability.LogReplaySkippedLine(led.opts.logger, lineNumber, reason)
	})
	if err != nil {
		return err
	}

	// Pass 2: resolve parent ids to vertex ids and add edges, both the
	// DAG's effect->cause adjacency and the children mirror.
	return store.ReplayLines(logFilePath, func(_ int, line []byte) error {
		rec, err := unmarshalCanonical(line)
		if err != nil {
			return err
		}
		effectVertex, ok := led.idx.vertexForEvent(rec.EventID)
		if !ok {
			return nil
		}
		for _, parentID := range rec.CausalParentEventIDs {
			causeVertex, ok := led.idx.vertexForEvent(parentID)
			if !ok {
				continue
			}
			_ = led.dag.addEdge(effectVertex, causeVertex)
			led.idx.recordChildEdge(effectVertex, causeVertex)
		}
		return nil
	}, func(lineNumber int, reason string) {
		observability.LogReplaySkippedLine(led.opts.logger, lineNumber, reason)
	})
}

// IngestEvent implements §4.8's ingestEvent. On success it returns the
// newly committed event's id.
func (led *CausalLedger) IngestEvent(ctx context.Context, req IngestRequest) (string, error) {
	done := observability.TimedOperation()
	ctx, span := led.opts.spans.StartIngestSpan(ctx, req.TraceID, req.EventType)

	id, err := led.ingestEvent(req)

	led.opts.spans.EndSpanWithError(span, err)
	led.opts.metrics.RecordIngestion(ctx, req.EventType, time.Duration(done()*float64(time.Millisecond)), err)
	if err != nil {
		observability.LogIngestError(led.opts.logger, req.TraceID, err, done())
	} else {
		observability.LogIngestComplete(led.opts.logger, id, done())
	}
	return id, err
}

func (led *CausalLedger) ingestEvent(req IngestRequest) (string, error) {
	if req.TraceID == "" {
		return "", invalidArgument("traceId", "must not be empty")
	}
	if req.ServiceName == "" {
		return "", invalidArgument("serviceName", "must not be empty")
	}
	if req.EventType == "" {
		return "", invalidArgument("eventType", "must not be empty")
	}

	led.mu.Lock()
	defer led.mu.Unlock()

	if led.closed {
		return "", ErrClosed
	}

	parentIDs := dedupeParents(req.ExplicitParentEventIDs)
	if len(parentIDs) == 0 {
		if latest, ok := led.idx.latestOnTrace(req.TraceID); ok {
			parentIDs = []string{latest}
		}
	}

	parentVertices := make([]int, 0, len(parentIDs))
	parentRecords := make([]*EventRecord, 0, len(parentIDs))
	for _, pid := range parentIDs {
		v, ok := led.idx.vertexForEvent(pid)
		if !ok {
			return "", &UnknownParentError{ParentEventID: pid}
		}
		parentVertices = append(parentVertices, v)
		parentRecords = append(parentRecords, led.cache[pid])
	}

	newVertexID := led.dag.numVertices
	overlay := map[int][]int{newVertexID: parentVertices}
	rejected := led.dag.hasCycleWithProposedAdditions(newVertexID, overlay)
	led.cycleCheckCount++
	led.opts.metrics.RecordCycleCheck(context.Background(), rejected)
	if rejected {
		led.cyclesPrevented++
		return "", &CausalLoopError{TraceID: req.TraceID, ProposedParent: parentIDs}
	}

	stampedClock := led.vcm.computeStampedClock(parentRecords)

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	rec := &EventRecord{
		EventID:              newEventID(),
		Timestamp:            time.Now().UTC(),
		NodeID:               led.opts.nodeID,
		TraceID:              req.TraceID,
		ServiceName:          req.ServiceName,
		ServiceVersion:       req.ServiceVersion,
		Hostname:             req.Hostname,
		EventType:            req.EventType,
		Payload:              deepCopyValue(payload).(map[string]any),
		CausalParentEventIDs: parentIDs,
		VectorClock:          map[string]uint64(stampedClock),
	}

	body, err := rec.marshalCanonical()
	if err != nil {
		return "", &PersistenceError{Op: "marshal", Err: err}
	}
	if err := led.log.Append(body); err != nil {
		return "", &PersistenceError{Op: "log_append", Err: err}
	}
	if err := led.bodies.Put(rec.EventID, body); err != nil {
		return "", &PersistenceError{Op: "event_store_write", Err: err}
	}

	vertexID := led.dag.addVertex()
	for _, pv := range parentVertices {
		_ = led.dag.addEdge(vertexID, pv)
		led.idx.recordChildEdge(vertexID, pv)
	}
	led.idx.recordVertex(rec.EventID, vertexID)
	led.idx.recordEvent(rec)
	led.cache[rec.EventID] = rec
	led.vcm.commitStampedClock(stampedClock)
	led.ingestionCount++
	led.opts.metrics.RecordGraphSize(context.Background(), int64(led.dag.numVertices), int64(led.dag.totalEdges))

	return rec.EventID, nil
}

// instrumentQuery starts a query span and timer for operation and
// returns a function that closes both out, mirroring the ingest path's
// observability wiring for every read-only query method.
func (led *CausalLedger) instrumentQuery(operation string) func() {
	_, span := led.opts.spans.StartQuerySpan(context.Background(), operation)
	done := observability.TimedOperation()
	return func() {
		elapsed := done()
		led.opts.spans.EndSpanWithError(span, nil)
		led.opts.metrics.RecordQuery(context.Background(), operation, time.Duration(elapsed*float64(time.Millisecond)))
		observability.LogQuery(led.opts.logger, operation, elapsed)
	}
}

// GetEvent returns a deep copy of the committed event, or ErrNotFound.
func (led *CausalLedger) GetEvent(eventID string) (*EventRecord, error) {
	led.mu.RLock()
	defer led.mu.RUnlock()
	rec, ok := led.cache[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

// ContainsEvent reports whether eventID names a committed event.
func (led *CausalLedger) ContainsEvent(eventID string) bool {
	led.mu.RLock()
	defer led.mu.RUnlock()
	_, ok := led.cache[eventID]
	return ok
}

func (led *CausalLedger) recordsForIDs(ids []string) []*EventRecord {
	out := make([]*EventRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := led.cache[id]; ok {
			out = append(out, rec.clone())
		}
	}
	return out
}

// GetEventsByTraceID returns every event on traceID, in ingestion order.
func (led *CausalLedger) GetEventsByTraceID(traceID string) []*EventRecord {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return led.recordsForIDs(led.idx.eventsByTrace(traceID))
}

// GetEventsByType returns every event of eventType, in ingestion order.
func (led *CausalLedger) GetEventsByType(eventType string) []*EventRecord {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return led.recordsForIDs(led.idx.eventsByType(eventType))
}

// GetEventsByService returns every event from serviceName, in ingestion order.
func (led *CausalLedger) GetEventsByService(serviceName string) []*EventRecord {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return led.recordsForIDs(led.idx.eventsByService(serviceName))
}

func (led *CausalLedger) vertexIDsToEventIDs(vertices []int) []string {
	out := make([]string, 0, len(vertices))
	for _, v := range vertices {
		if id, ok := led.idx.eventForVertex(v); ok {
			out = append(out, id)
		}
	}
	return out
}

// GetEventAndAncestry returns eventID and every event reachable from
// it in the effect->cause direction (§4.8).
func (led *CausalLedger) GetEventAndAncestry(eventID string) []string {
	defer led.instrumentQuery("getEventAndAncestry")()
	led.mu.RLock()
	defer led.mu.RUnlock()
	v, ok := led.idx.vertexForEvent(eventID)
	if !ok {
		return nil
	}
	return led.vertexIDsToEventIDs(led.dag.reachableFrom(v))
}

// GetEventAndDescendants returns eventID and every event reachable
// through the cause->effect mirror adjacency (§4.8).
func (led *CausalLedger) GetEventAndDescendants(eventID string) []string {
	defer led.instrumentQuery("getEventAndDescendants")()
	led.mu.RLock()
	defer led.mu.RUnlock()
	start, ok := led.idx.vertexForEvent(eventID)
	if !ok {
		return nil
	}
	visited := map[int]bool{start: true}
	order := []int{start}
	stack := []int{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range led.idx.childrenOf(v) {
			if !visited[child] {
				visited[child] = true
				order = append(order, child)
				stack = append(stack, child)
			}
		}
	}
	return led.vertexIDsToEventIDs(order)
}

// GetTopologicalOrder returns every committed event in cause-before-effect order.
func (led *CausalLedger) GetTopologicalOrder() ([]string, error) {
	defer led.instrumentQuery("getTopologicalOrder")()
	led.mu.RLock()
	defer led.mu.RUnlock()
	order, err := led.dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	return led.vertexIDsToEventIDs(order), nil
}

// GetShortestCausalPath returns the shortest cause->effect path from
// startEventID to endEventID inclusive, or empty if unreachable.
func (led *CausalLedger) GetShortestCausalPath(startEventID, endEventID string) []string {
	defer led.instrumentQuery("getShortestCausalPath")()
	led.mu.RLock()
	defer led.mu.RUnlock()

	start, ok := led.idx.vertexForEvent(startEventID)
	if !ok {
		return nil
	}
	end, ok := led.idx.vertexForEvent(endEventID)
	if !ok {
		return nil
	}
	if start == end {
		return []string{startEventID}
	}

	pred := map[int]int{start: -1}
	queue := []int{start}
	found := false
	for len(queue) > 0 && !found {
		v := queue[0]
		queue = queue[1:]
		for _, child := range led.idx.childrenOf(v) {
			if _, seen := pred[child]; seen {
				continue
			}
			pred[child] = v
			if child == end {
				found = true
				break
			}
			queue = append(queue, child)
		}
	}
	if !found {
		return nil
	}

	var path []int
	for v := end; v != -1; v = pred[v] {
		path = append([]int{v}, path...)
		if v == start {
			break
		}
	}
	return led.vertexIDsToEventIDs(path)
}

func (led *CausalLedger) ancestrySet(eventID string) (map[int]bool, bool) {
	v, ok := led.idx.vertexForEvent(eventID)
	if !ok {
		return nil, false
	}
	set := make(map[int]bool)
	for _, a := range led.dag.reachableFrom(v) {
		set[a] = true
	}
	return set, true
}

// GetAllCommonCausalAncestors returns the intersection of both
// events' ancestor sets (each includes itself); empty if either
// event is missing.
func (led *CausalLedger) GetAllCommonCausalAncestors(eventID1, eventID2 string) []string {
	defer led.instrumentQuery("getAllCommonCausalAncestors")()
	led.mu.RLock()
	defer led.mu.RUnlock()

	a1, ok := led.ancestrySet(eventID1)
	if !ok {
		return nil
	}
	a2, ok := led.ancestrySet(eventID2)
	if !ok {
		return nil
	}

	var common []int
	for v := range a1 {
		if a2[v] {
			common = append(common, v)
		}
	}
	return led.vertexIDsToEventIDs(common)
}

// GetNearestCommonCausalAncestors returns the subset of common
// ancestors that are not themselves an ancestor of any other common
// ancestor (§4.8).
func (led *CausalLedger) GetNearestCommonCausalAncestors(eventID1, eventID2 string) []string {
	defer led.instrumentQuery("getNearestCommonCausalAncestors")()
	led.mu.RLock()
	defer led.mu.RUnlock()

	a1, ok := led.ancestrySet(eventID1)
	if !ok {
		return nil
	}
	a2, ok := led.ancestrySet(eventID2)
	if !ok {
		return nil
	}

	var common []int
	for v := range a1 {
		if a2[v] {
			common = append(common, v)
		}
	}

	ancestryCache := make(map[int]map[int]bool, len(common))
	for _, v := range common {
		set := make(map[int]bool)
		for _, a := range led.dag.reachableFrom(v) {
			set[a] = true
		}
		ancestryCache[v] = set
	}

	var nearest []int
	for _, a := range common {
		isAncestorOfOther := false
		for _, b := range common {
			if a == b {
				continue
			}
			if ancestryCache[b][a] {
				isAncestorOfOther = true
				break
			}
		}
		if !isAncestorOfOther {
			nearest = append(nearest, a)
		}
	}
	return led.vertexIDsToEventIDs(nearest)
}

// orderedEventsForEntity returns every committed event for serviceName
// in cause-before-effect order, optionally truncated after the first
// occurrence of upToEventID.
func (led *CausalLedger) orderedEventsForEntity(serviceName, upToEventID string) ([]*EventRecord, error) {
	order, err := led.dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	var out []*EventRecord
	for _, v := range order {
		id, ok := led.idx.eventForVertex(v)
		if !ok {
			continue
		}
		rec, ok := led.cache[id]
		if !ok || rec.ServiceName != serviceName {
			if upToEventID != "" && id == upToEventID {
				break
			}
			continue
		}
		out = append(out, rec)
		if upToEventID != "" && id == upToEventID {
			break
		}
	}
	if upToEventID != "" {
		found := false
		for _, v := range order {
			if id, ok := led.idx.eventForVertex(v); ok && id == upToEventID {
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}
	return out, nil
}

// GetCurrentStateForEntity folds serviceName's full event history into
// its current state (§4.7).
func (led *CausalLedger) GetCurrentStateForEntity(serviceName string) (map[string]any, error) {
	defer led.instrumentQuery("getCurrentStateForEntity")()
	led.mu.RLock()
	defer led.mu.RUnlock()
	events, err := led.orderedEventsForEntity(serviceName, "")
	if err != nil {
		return nil, err
	}
	return led.proj.project(events), nil
}

// GetEntityStateUpToEvent folds serviceName's event history up to and
// including upToEventID. If upToEventID never occurred, the result is
// the empty mapping.
func (led *CausalLedger) GetEntityStateUpToEvent(serviceName, upToEventID string) (map[string]any, error) {
	defer led.instrumentQuery("getEntityStateUpToEvent")()
	led.mu.RLock()
	defer led.mu.RUnlock()
	events, err := led.orderedEventsForEntity(serviceName, upToEventID)
	if err != nil {
		return nil, err
	}
	return led.proj.project(events), nil
}

// RegisterReducer overrides or adds a reducer for eventType.
func (led *CausalLedger) RegisterReducer(eventType string, fn Reducer) {
	led.mu.Lock()
	defer led.mu.Unlock()
	led.proj.RegisterReducer(eventType, fn)
}

// CompareCausality derives the causal relation between two committed
// events from their vector clocks.
func (led *CausalLedger) CompareCausality(eventID1, eventID2 string) CausalityRelation {
	led.mu.RLock()
	defer led.mu.RUnlock()
	a, ok1 := led.cache[eventID1]
	b, ok2 := led.cache[eventID2]
	if !ok1 || !ok2 {
		return RelationUndefined
	}
	return compareCausality(a, b)
}

// GetGraphIDForEventID is a low-level accessor for graph-DTO edge enumeration.
func (led *CausalLedger) GetGraphIDForEventID(eventID string) (int, bool) {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return led.idx.vertexForEvent(eventID)
}

// GetEventIDForGraphID is a low-level accessor for graph-DTO edge enumeration.
func (led *CausalLedger) GetEventIDForGraphID(graphID int) (string, bool) {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return led.idx.eventForVertex(graphID)
}

// GetChildrenGraphIDs is a low-level accessor for graph-DTO edge enumeration.
func (led *CausalLedger) GetChildrenGraphIDs(graphID int) []int {
	led.mu.RLock()
	defer led.mu.RUnlock()
	children := led.idx.childrenOf(graphID)
	out := make([]int, len(children))
	copy(out, children)
	return out
}

// GetStats returns point-in-time counters for the ledger.
func (led *CausalLedger) GetStats() Stats {
	led.mu.RLock()
	defer led.mu.RUnlock()
	return Stats{
		EventCount:      len(led.cache),
		IngestionCount:  led.ingestionCount,
		CycleCheckCount: led.cycleCheckCount,
		CyclesPrevented: led.cyclesPrevented,
		VertexCount:     led.dag.numVertices,
		EdgeCount:       led.dag.totalEdges,
		Density:         density(led.dag.numVertices, led.dag.totalEdges),
		LocalClock:      led.vcm.local.clone(),
	}
}

// ReceiveRemoteEvent implements the optional no-transport receive-
// from-peer entry point described in §1 and §4.3.
func (led *CausalLedger) ReceiveRemoteEvent(remoteNodeID string, remoteClock map[string]uint64) {
	led.mu.Lock()
	defer led.mu.Unlock()
	led.vcm.receiveRemoteEvent(remoteNodeID, VectorClock(remoteClock))
}

// Close flushes index snapshots atomically and closes the event store
// and log, per §5's shutdown hook.
func (led *CausalLedger) Close() error {
	led.mu.Lock()
	defer led.mu.Unlock()
	if led.closed {
		return nil
	}
	led.closed = true

	if led.syncDone != nil {
		close(led.syncDone)
		led.syncWG.Wait()
	}

	snap := store.IndexSnapshot{
		EventToGraphID:      led.idx.eventToVertex,
		GraphToEventID:      led.idx.vertexToEvent,
		ChildrenAdjacency:   led.idx.children,
		ServiceToEventIDs:   led.idx.byService,
		EventTypeToEventIDs: led.idx.byType,
		TraceToEventIDs:     led.idx.byTrace,
		LatestByTrace:       led.idx.latestByTrace,
	}
	saveErr := store.SaveIndexSnapshot(led.dataDir, snap)
	observability.LogIndexSnapshot(led.opts.logger, "save", led.dataDir, saveErr)

	logErr := led.log.Close()
	bodiesErr := led.bodies.Close()

	if saveErr != nil {
		return &PersistenceError{Op: "index_snapshot", Err: saveErr}
	}
	if logErr != nil {
		return &PersistenceError{Op: "log_close", Err: logErr}
	}
	if bodiesErr != nil {
		return &PersistenceError{Op: "event_store_close", Err: bodiesErr}
	}
	return nil
}
