package ledger

import "fmt"

// Stats reports point-in-time counters for a CausalLedger, per
// §4.8's getStats and §12's supplement of a typed result over a bare
// string.
type Stats struct {
	EventCount      int
	IngestionCount  uint64
	CycleCheckCount uint64
	CyclesPrevented uint64
	VertexCount     int
	EdgeCount       int
	Density         float64
	LocalClock      map[string]uint64
}

// String renders the human-readable form §4.8 asks for.
func (s Stats) String() string {
	return fmt.Sprintf(
		"events=%d ingestions=%d cycleChecks=%d cyclesPrevented=%d vertices=%d edges=%d density=%.4f clock=%v",
		s.EventCount, s.IngestionCount, s.CycleCheckCount, s.CyclesPrevented,
		s.VertexCount, s.EdgeCount, s.Density, s.LocalClock,
	)
}

// density computes edges/max-possible-edges for a simple directed
// graph on n vertices, or zero when n < 2.
func density(vertices, edges int) float64 {
	if vertices < 2 {
		return 0
	}
	maxEdges := float64(vertices) * float64(vertices-1)
	return float64(edges) / maxEdges
}
