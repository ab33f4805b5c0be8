/*
Package config provides type-safe extraction of the causal ledger's
startup configuration from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that
handle missing keys and type mismatches gracefully by returning
default values. It backs the ledger's §10.2 configuration file:

	node_id: node-7
	log_path: ./data/events.log
	initial_graph_capacity: 1024
	fsync_policy: none   # none | every_write | interval
	fsync_interval: 5s

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "node_id":                 "node-7",
	    "initial_graph_capacity":  1024,
	    "fsync_interval":          "5s",
	})

	nodeID := cfg.String("node_id", "default-node")            // "node-7"
	capacity := cfg.Int("initial_graph_capacity", 16)           // 1024
	interval := cfg.Duration("fsync_interval", 5*time.Second)  // 5s
	missing := cfg.String("missing", "default")                 // "default"

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Int handles int, int64, and whole-valued float64 (the shape a JSON
config file decodes initial_graph_capacity to).

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

ledger.LoadOptionsFromFile (pkg/ledger/configload.go) is the intended
entry point; it calls through to FromFile here, which auto-detects
format by extension:

	cfg, err := config.FromFile("ledger.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
