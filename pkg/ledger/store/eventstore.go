// Package store implements the causal ledger's durable persistence
// tier: a key->value EventStore keyed by event id, and atomic
// IndexPersistence snapshot/restore of the in-memory secondary
// indexes.
package store

import "errors"

// ErrNotFound is returned by Get when no body is stored for the given
// key.
var ErrNotFound = errors.New("store: event not found")

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("store: closed")

// EventStore is a durable key->value map keyed by event id, valued
// with the event's canonical serialization (§4.5). Any engine
// satisfying put/get/iterate/open/close (§6's "Embedded KV store
// requirements") may implement it.
type EventStore interface {
	// Put durably stores body under key, overwriting any prior value.
	Put(key string, body []byte) error

	// Get returns the body stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Has reports whether key has a stored body, without fetching it.
	Has(key string) (bool, error)

	// All streams every (key, body) pair currently stored, in
	// unspecified order. Not called by CausalLedger's startup paths
	// (the warm-start probe uses Has); the log, not the store, is the
	// rehydration source.
	All(fn func(key string, body []byte) error) error

	// Close releases underlying resources. Safe to call once;
	// idempotent.
	Close() error
}
