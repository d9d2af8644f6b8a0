package app

import (
	"errors"
	"time"
)

// DefaultOutDir is where region files and the manifest go when no output
// directory is configured.
const DefaultOutDir = "build"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	NetworkPath string // hcl file or directory
	OutDir      string

	LogFormat string
	LogLevel  string

	// HostURL selects a remote host; empty places the graph locally.
	HostURL     string
	HostTimeout time.Duration

	// MemoryBudget is an advisory per-core limit in bytes; 0 disables it.
	MemoryBudget int

	// Inspect, if set, prints one core's regions instead of writing output.
	Inspect string
	// Format prints the canonical form of the description and exits.
	Format bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.NetworkPath == "" {
		return nil, errors.New("NetworkPath is a required configuration field and cannot be empty")
	}
	if cfg.MemoryBudget < 0 {
		return nil, errors.New("memory budget must not be negative")
	}
	if cfg.HostTimeout < 0 {
		return nil, errors.New("host timeout must not be negative")
	}
	if cfg.Inspect != "" && cfg.Format {
		return nil, errors.New("inspect and format modes are mutually exclusive")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	return &cfg, nil
}
