package benchmarks

import (
	"fmt"
	"os"
	"testing"

	"github.com/randalmurphal/causalledger/pkg/ledger/store"
)

// BenchmarkMemoryEventStore_Put measures in-memory event store writes.
func BenchmarkMemoryEventStore_Put(b *testing.B) {
	s := store.NewMemoryEventStore()
	body := sampleEventBody()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Put(fmt.Sprintf("evt-%d", i), body)
	}
}

// BenchmarkMemoryEventStore_Get measures in-memory event store reads.
func BenchmarkMemoryEventStore_Get(b *testing.B) {
	s := store.NewMemoryEventStore()
	body := sampleEventBody()
	_ = s.Put("evt-1", body)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("evt-1")
	}
}

// BenchmarkSQLiteEventStore_Put measures SQLite event store writes.
func BenchmarkSQLiteEventStore_Put(b *testing.B) {
	s, cleanup := createSQLiteEventStore(b)
	defer cleanup()

	body := sampleEventBody()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Put(fmt.Sprintf("evt-%d", i%1000), body)
	}
}

// BenchmarkSQLiteEventStore_Get measures SQLite event store reads.
func BenchmarkSQLiteEventStore_Get(b *testing.B) {
	s, cleanup := createSQLiteEventStore(b)
	defer cleanup()

	body := sampleEventBody()
	_ = s.Put("evt-1", body)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("evt-1")
	}
}

// BenchmarkIndexSnapshot_SaveLoad measures a full atomic snapshot
// write followed by a reload, the operation performed once on every
// clean ledger shutdown and warm restart.
func BenchmarkIndexSnapshot_SaveLoad(b *testing.B) {
	dir, err := os.MkdirTemp("", "bench-index-*")
	if err != nil {
		b.Fatal(err)
	}
	defer os.RemoveAll(dir)

	snap := sampleIndexSnapshot(500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.SaveIndexSnapshot(dir, snap); err != nil {
			b.Fatal(err)
		}
		if _, err := store.LoadIndexSnapshot(dir); err != nil {
			b.Fatal(err)
		}
	}
}

// Helper functions

func sampleEventBody() []byte {
	return []byte(`{"eventId":"evt-1","eventType":"ORDER_CREATED","traceId":"t-1","serviceName":"order-service","payload":{"orderId":"o-1"},"causalParentEventIds":[],"vectorClock":{"node-1":1}}`)
}

func sampleIndexSnapshot(n int) store.IndexSnapshot {
	eventToGraph := make(map[string]int, n)
	graphToEvent := make(map[int]string, n)
	children := make(map[int][]int, n)
	byService := map[string][]string{}
	byType := map[string][]string{}
	byTrace := map[string][]string{}
	latest := map[string]string{}

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("evt-%d", i)
		eventToGraph[id] = i
		graphToEvent[i] = id
		if i > 0 {
			children[i-1] = append(children[i-1], i)
		}
		byService["svc"] = append(byService["svc"], id)
		byType["TYPE"] = append(byType["TYPE"], id)
		byTrace["trace-1"] = append(byTrace["trace-1"], id)
		latest["trace-1"] = id
	}

	return store.IndexSnapshot{
		EventToGraphID:      eventToGraph,
		GraphToEventID:      graphToEvent,
		ChildrenAdjacency:   children,
		ServiceToEventIDs:   byService,
		EventTypeToEventIDs: byType,
		TraceToEventIDs:     byTrace,
		LatestByTrace:       latest,
	}
}

func createSQLiteEventStore(b *testing.B) (*store.SQLiteEventStore, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	s, err := store.NewSQLiteEventStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return s, func() {
		s.Close()
		os.Remove(tmpFile.Name())
	}
}
