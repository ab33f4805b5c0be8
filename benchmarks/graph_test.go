package benchmarks

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/randalmurphal/causalledger/pkg/ledger"
)

// BenchmarkIngest_Linear_5 measures ingesting a 5-event linear chain
// on a single trace, via auto-parenting.
func BenchmarkIngest_Linear_5(b *testing.B) {
	benchmarkIngestLinear(b, 5)
}

// BenchmarkIngest_Linear_10 measures ingesting a 10-event linear chain.
func BenchmarkIngest_Linear_10(b *testing.B) {
	benchmarkIngestLinear(b, 10)
}

// BenchmarkIngest_Linear_50 measures ingesting a 50-event linear chain.
func BenchmarkIngest_Linear_50(b *testing.B) {
	benchmarkIngestLinear(b, 50)
}

// BenchmarkIngest_Branching measures ingesting a diamond shape: a root
// event, two concurrent children, and one event with explicit dual
// parents merging both branches.
func BenchmarkIngest_Branching(b *testing.B) {
	led, cleanup := newBenchLedger(b)
	defer cleanup()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trace := fmt.Sprintf("trace-branch-%d", i)
		root, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: trace, ServiceName: "svc", EventType: "ORDER_CREATED",
		})
		if err != nil {
			b.Fatal(err)
		}
		left, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: trace, ServiceName: "svc", EventType: "ORDER_CONFIRMED",
			ExplicitParentEventIDs: []string{root},
		})
		if err != nil {
			b.Fatal(err)
		}
		right, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: trace, ServiceName: "svc", EventType: "STOCK_DECREMENTED",
			ExplicitParentEventIDs: []string{root},
		})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: trace, ServiceName: "svc", EventType: "ORDER_SHIPPED",
			ExplicitParentEventIDs: []string{left, right},
		}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCycleCheck_DeepChain measures the hypothetical-cycle-check
// cost as a linear chain grows deep, since every ingestion probes the
// full proposed-addition overlay.
func BenchmarkCycleCheck_DeepChain(b *testing.B) {
	led, cleanup := newBenchLedger(b)
	defer cleanup()
	ctx := context.Background()
	trace := "trace-deep"

	var last string
	for i := 0; i < 1000; i++ {
		id, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: trace, ServiceName: "svc", EventType: "ORDER_CONFIRMED",
		})
		if err != nil {
			b.Fatal(err)
		}
		last = id
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := led.IngestEvent(ctx, ledger.IngestRequest{
			TraceID: "trace-cycle-check", ServiceName: "svc", EventType: "ORDER_CONFIRMED",
			ExplicitParentEventIDs: []string{last},
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Helper functions

func benchmarkIngestLinear(b *testing.B, chainLength int) {
	led, cleanup := newBenchLedger(b)
	defer cleanup()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trace := fmt.Sprintf("trace-%d", i)
		for j := 0; j < chainLength; j++ {
			if _, err := led.IngestEvent(ctx, ledger.IngestRequest{
				TraceID:     trace,
				ServiceName: "svc",
				EventType:   "ORDER_CONFIRMED",
			}); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func newBenchLedger(b *testing.B) (*ledger.CausalLedger, func()) {
	b.Helper()
	dir, err := os.MkdirTemp("", "bench-ledger-*")
	if err != nil {
		b.Fatal(err)
	}
	led, err := ledger.Open(dir + "/events.log")
	if err != nil {
		os.RemoveAll(dir)
		b.Fatal(err)
	}
	return led, func() {
		led.Close()
		os.RemoveAll(dir)
	}
}
