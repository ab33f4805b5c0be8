package ledger

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/causalledger/pkg/ledger/observability"
)

// FsyncPolicy controls when the event log flushes to stable storage,
// resolving the Open Question in spec.md §9. The default, FsyncNone,
// matches the core spec exactly: no fsync, ever.
type FsyncPolicy int

const (
	// FsyncNone never calls fsync; durability is whatever the OS page
	// cache happens to provide. This is the default.
	FsyncNone FsyncPolicy = iota
	// FsyncEveryWrite calls fsync after every log append. Safest,
	// slowest.
	FsyncEveryWrite
	// FsyncInterval calls fsync on a fixed timer regardless of write
	// volume.
	FsyncInterval
)

func (p FsyncPolicy) String() string {
	switch p {
	case FsyncEveryWrite:
		return "every_write"
	case FsyncInterval:
		return "interval"
	default:
		return "none"
	}
}

// options holds every constructor-time setting for CausalLedger,
// assembled by functional Option values the way the teacher assembles
// flowgraph.RunOption/ResumeOption.
type options struct {
	nodeID             string
	initialCapacity    int
	logger             *slog.Logger
	metrics            observability.MetricsRecorder
	spans              observability.SpanManager
	fsyncPolicy        FsyncPolicy
	fsyncInterval      time.Duration
}

func defaultOptions() *options {
	return &options{
		nodeID:          defaultNodeID,
		initialCapacity: 16,
		logger:          slog.Default(),
		metrics:         observability.NoopMetrics{},
		spans:           observability.NoopSpanManager{},
		fsyncPolicy:     FsyncNone,
		fsyncInterval:   5 * time.Second,
	}
}

// Option configures a CausalLedger at construction time.
type Option func(*options)

// WithNodeID sets the local node identity stamped into every event's
// vector clock and nodeId field. Defaults to "default-node".
func WithNodeID(nodeID string) Option {
	return func(o *options) { o.nodeID = nodeID }
}

// WithInitialCapacity sets the DAG's initial vertex capacity.
func WithInitialCapacity(capacity int) Option {
	return func(o *options) { o.initialCapacity = capacity }
}

// WithLogger sets the base structured logger. A nil logger is
// replaced with slog.Default() rather than silently disabling
// logging, since every other package's nil-guard merely skips the
// call rather than tolerating a nil *slog.Logger field here.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		o.metrics = m
	}
}

// WithTracing sets the span manager. Defaults to a no-op.
func WithTracing(s observability.SpanManager) Option {
	return func(o *options) {
		if s == nil {
			s = observability.NoopSpanManager{}
		}
		o.spans = s
	}
}

// WithFsyncPolicy sets the event log's fsync policy. Defaults to
// FsyncNone.
func WithFsyncPolicy(policy FsyncPolicy) Option {
	return func(o *options) { o.fsyncPolicy = policy }
}

// WithFsyncInterval sets the period of the background ticker that
// drives FsyncInterval's periodic log.Sync calls. Ignored under any
// other policy. Defaults to 5s.
func WithFsyncInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fsyncInterval = d
		}
	}
}
