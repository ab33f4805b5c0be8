/*
Package ledger implements a single-node causal event ledger: an
append-only store of immutable event records where each record
declares zero or more causal parents, forming a directed acyclic graph
of happens-before relationships.

# Overview

Events are tagged with a trace identifier and ingested through a
single coordinating facade, CausalLedger. The ledger resolves causal
parents (explicit, or the previous event on the same trace), rejects
any ingestion that would close a cycle, stamps the event with a vector
clock, and persists it durably before returning its ID.

	led, err := ledger.Open("./data/events.log", ledger.WithInitialCapacity(1024))
	if err != nil {
	    log.Fatal(err)
	}
	defer led.Close()

	id, err := led.IngestEvent(ctx, ledger.IngestRequest{
	    TraceID:     "checkout-42",
	    ServiceName: "ORDER",
	    EventType:   "ORDER_CREATED",
	    Payload:     map[string]any{"orderId": "o-1"},
	})

# Queries

The ledger answers ancestry, descendant, shortest-causal-path,
common-ancestor, topological-order, and entity-state-projection
queries directly against the in-memory DAG and secondary indexes; see
CausalLedger's methods.

# Persistence

Two tiers back the ledger: an append-only newline-delimited event log
(the system of record) and a durable key-value event-body store
(package store, backed by SQLite). Index snapshots are written to
separate files on shutdown and restored on warm start; if any snapshot
is missing or corrupt, the ledger falls back to a cold rebuild by
replaying the event log in two passes. See package store.

# Thread safety

CausalLedger guards all mutable state (the DAG, the secondary indexes,
the vector clock, and counters) with a single reader-writer lock.
Writes are serialized; reads execute concurrently with each other and
block only against an active writer. Records returned to callers are
deep copies; callers cannot mutate internal state through them.

# Subpackages

  - store: EventLog, EventStore (SQLite-backed), and IndexPersistence
  - config: YAML-backed ledger configuration
  - observability: OpenTelemetry metrics and tracing helpers
*/
package ledger
