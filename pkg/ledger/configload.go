package ledger

import (
	"fmt"
	"time"

	"github.com/randalmurphal/causalledger/pkg/ledger/config"
)

// LoadOptionsFromFile reads a YAML or JSON configuration file (per
// §10.2) and converts it into the equivalent Option values. The
// returned LogPath must be passed to Open separately: options alone
// don't carry where the event log lives.
//
// Recognized keys: node_id, log_path, initial_graph_capacity,
// fsync_policy (none|every_write|interval), fsync_interval.
func LoadOptionsFromFile(path string) (logPath string, opts []Option, err error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("ledger: load config: %w", err)
	}

	logPath = cfg.String("log_path", "")
	if logPath == "" {
		return "", nil, fmt.Errorf("ledger: config %q missing required log_path", path)
	}

	opts = append(opts, WithNodeID(cfg.String("node_id", defaultNodeID)))
	opts = append(opts, WithInitialCapacity(cfg.Int("initial_graph_capacity", 16)))
	opts = append(opts, WithFsyncPolicy(parseFsyncPolicy(cfg.String("fsync_policy", "none"))))
	opts = append(opts, WithFsyncInterval(cfg.Duration("fsync_interval", 5*time.Second)))

	return logPath, opts, nil
}

func parseFsyncPolicy(s string) FsyncPolicy {
	switch s {
	case "every_write":
		return FsyncEveryWrite
	case "interval":
		return FsyncInterval
	default:
		return FsyncNone
	}
}
