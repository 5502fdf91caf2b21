// Package config loads joosc.toml: where sources live, how resolution runs
// and which optional outputs (index, watch mode, tracing) are enabled.
package config

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultFile = "joosc.toml"

type Config struct {
	Version int `toml:"version"`
	// RootType is the implicit superclass of every class without an extends
	// clause.
	RootType         string   `toml:"root_type"`
	StandardPackages []string `toml:"standard_packages"`
	Workers          int      `toml:"workers"`
	SourcePaths      []string `toml:"source_paths"`
	Exclude          Exclude  `toml:"exclude"`
	Index            Index    `toml:"index"`
	Watch            Watch    `toml:"watch"`
	Tracing          Tracing  `toml:"tracing"`
	Metrics          Metrics  `toml:"metrics"`
}

// Exclude holds gobwas/glob patterns matched against directory and file
// base names during source discovery.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Index struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// MaxRunsPerMinute caps how often a burst of edits re-runs resolution.
	MaxRunsPerMinute int `toml:"max_runs_per_minute"`
}

type Tracing struct {
	Endpoint string `toml:"endpoint"`
}

// Metrics serves /metrics and /health in watch mode when Address is set.
type Metrics struct {
	Address string `toml:"address"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Encode renders cfg as TOML, as written by `joosc --init`.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
