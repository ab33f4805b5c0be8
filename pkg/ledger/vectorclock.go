package ledger

import "sync"

// VectorClock maps node id to a monotonically increasing counter.
// A node absent from the map is treated as counter zero. VectorClock
// is a plain value type; callers share it by copying, matching the
// way EventRecord embeds a snapshot rather than a live reference.
type VectorClock map[string]uint64

// clone returns an independent copy of the clock.
func (vc VectorClock) clone() VectorClock {
	out := make(VectorClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// tick atomically increments nodeID's counter (creating it at 1 if
// absent) and returns the new value.
func (vc VectorClock) tick(nodeID string) uint64 {
	vc[nodeID]++
	return vc[nodeID]
}

// merge sets this[n] = max(this[n], other[n]) for every node present
// in either clock.
func (vc VectorClock) merge(other VectorClock) {
	for node, v := range other {
		if v > vc[node] {
			vc[node] = v
		}
	}
}

// happensBefore reports whether vc happens-before other: this[n] <=
// other[n] for every node appearing in either clock, and strictly
// less for at least one node.
func (vc VectorClock) happensBefore(other VectorClock) bool {
	strictlyLess := false
	for _, node := range unionKeys(vc, other) {
		a, b := vc[node], other[node]
		if a > b {
			return false
		}
		if a < b {
			strictlyLess = true
		}
	}
	return strictlyLess
}

// concurrentWith reports whether neither clock happens-before the
// other.
func (vc VectorClock) concurrentWith(other VectorClock) bool {
	return !vc.happensBefore(other) && !other.happensBefore(vc)
}

// equal reports mapping equality over the union of keys, with
// implicit zeros for absent entries.
func (vc VectorClock) equal(other VectorClock) bool {
	for _, node := range unionKeys(vc, other) {
		if vc[node] != other[node] {
			return false
		}
	}
	return true
}

func unionKeys(a, b VectorClock) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// CausalityRelation is the result of comparing two committed events'
// vector clocks.
type CausalityRelation int

const (
	// RelationUndefined is returned when a clock is missing for one
	// of the compared events.
	RelationUndefined CausalityRelation = iota
	RelationCauses
	RelationCausedBy
	RelationConcurrent
	RelationIdentical
)

func (r CausalityRelation) String() string {
	switch r {
	case RelationCauses:
		return "CAUSES"
	case RelationCausedBy:
		return "CAUSED_BY"
	case RelationConcurrent:
		return "CONCURRENT"
	case RelationIdentical:
		return "IDENTICAL"
	default:
		return "UNDEFINED"
	}
}

// peerTable tracks the last-seen vector clock for every known peer
// node (including self), guarded by its own mutex.
//
// Adapted from the teacher's signal.Registry: a thread-safe map keyed
// by identity, with Register/Get/List and no finer locking, here
// repurposed from "signal handlers by name" to "last-known clocks by
// peer node id" for the manager's receive-from-peer entry point.
type peerTable struct {
	mu    sync.RWMutex
	known map[string]VectorClock
}

func newPeerTable() *peerTable {
	return &peerTable{known: make(map[string]VectorClock)}
}

func (p *peerTable) set(nodeID string, clock VectorClock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[nodeID] = clock.clone()
}

func (p *peerTable) get(nodeID string) (VectorClock, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.known[nodeID]
	if !ok {
		return nil, false
	}
	return c.clone(), true
}

func (p *peerTable) list() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.known))
	for id := range p.known {
		out = append(out, id)
	}
	return out
}

// vectorClockManager owns the local clock and the last-seen clock of
// every known peer (including self). It is not independently
// thread-safe for the local clock: CausalLedger mutates it only under
// its exclusive lock and reads it (GetStats) under the shared lock,
// matching §4.9's single-lock design; only the
// peer table (read mostly, from getStats-style diagnostics) has its
// own lock.
type vectorClockManager struct {
	localNodeID string
	local       VectorClock
	peers       *peerTable
}

func newVectorClockManager(localNodeID string) *vectorClockManager {
	m := &vectorClockManager{
		localNodeID: localNodeID,
		local:       make(VectorClock),
		peers:       newPeerTable(),
	}
	m.peers.set(localNodeID, m.local)
	return m
}

// computeStampedClock implements the first three steps of
// VectorClockManager.createEvent's clock algebra: copy the local
// clock, merge in every parent's clock, and tick the local node. It
// does not mutate manager state — callers commit the result via
// commitStampedClock only after the event has been durably persisted,
// so an aborted ingestion never advances the local clock.
func (m *vectorClockManager) computeStampedClock(parents []*EventRecord) VectorClock {
	next := m.local.clone()
	for _, p := range parents {
		if p == nil {
			continue
		}
		next.merge(VectorClock(p.VectorClock))
	}
	next.tick(m.localNodeID)
	return next
}

// commitStampedClock implements the last step: merge the stamped copy
// back into the local clock and update the self-entry in the peer
// table. Called once ingestion is known to have succeeded.
func (m *vectorClockManager) commitStampedClock(stamped VectorClock) {
	m.local.merge(stamped)
	m.peers.set(m.localNodeID, m.local)
}

// receiveRemoteEvent implements the optional receive-from-peer entry
// point described in §1 and §4.3: mergeAndTick with the remote clock
// and record the remote node's last-seen clock. There is no network
// transport at this layer; callers supply the remote node id and clock directly
// (e.g. from an out-of-band channel).
func (m *vectorClockManager) receiveRemoteEvent(remoteNodeID string, remote VectorClock) {
	m.local.merge(remote)
	m.local.tick(m.localNodeID)
	m.peers.set(m.localNodeID, m.local)
	m.peers.set(remoteNodeID, remote)
}

// compareCausality derives the CausalityRelation between two committed
// records' vector clocks.
func compareCausality(a, b *EventRecord) CausalityRelation {
	if a == nil || b == nil || a.VectorClock == nil || b.VectorClock == nil {
		return RelationUndefined
	}
	va, vb := VectorClock(a.VectorClock), VectorClock(b.VectorClock)
	switch {
	case va.equal(vb):
		return RelationIdentical
	case va.happensBefore(vb):
		return RelationCauses
	case vb.happensBefore(va):
		return RelationCausedBy
	default:
		return RelationConcurrent
	}
}
