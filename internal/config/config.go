// Package config loads toolstream configuration from a TOML file, falling
// back to compiled defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable knob of the pipeline.
type Config struct {
	// LogRoot is the directory tree of per-project session log directories.
	LogRoot string `toml:"log_root"`

	// OverridePath is the JSON file holding manual path-token corrections.
	OverridePath string `toml:"override_path"`

	// DBPath is the sqlite analytics sink. Empty disables the sink.
	DBPath string `toml:"db_path"`

	// ActivityThresholdMs marks a session active when its last write is
	// within this window.
	ActivityThresholdMs int `toml:"activity_threshold_ms"`

	// CorrelationTimeoutMs is the max age of a pending call/result before
	// the sweep evicts it.
	CorrelationTimeoutMs int `toml:"correlation_timeout_ms"`

	// CorrelationSweepMs is the interval between correlation sweeps.
	CorrelationSweepMs int `toml:"correlation_sweep_ms"`

	// SessionSweepMs is the interval between session inactivity sweeps.
	SessionSweepMs int `toml:"session_sweep_ms"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `toml:"log_level"`
}

// Default returns a Config with sensible defaults rooted under the user's
// home and config directories.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		LogRoot:              filepath.Join(home, ".claude", "projects"),
		OverridePath:         filepath.Join(home, ".config", "toolstream", "path-overrides.json"),
		DBPath:               "",
		ActivityThresholdMs:  60_000,
		CorrelationTimeoutMs: 300_000,
		CorrelationSweepMs:   60_000,
		SessionSweepMs:       30_000,
		LogLevel:             "info",
	}
}

// Path returns the default config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "toolstream", "config.toml")
}

// Load reads the TOML file at path over the defaults. A missing file is
// fine; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg.LogRoot = expandHome(cfg.LogRoot, home)
	cfg.OverridePath = expandHome(cfg.OverridePath, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
