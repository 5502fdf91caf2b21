package config

import (
	"joosc/internal/core/errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeIO
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid config"), errors.CtxPath, path)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.RootType) == "" {
		cfg.RootType = "java.lang.Object"
	}
	if cfg.StandardPackages == nil {
		cfg.StandardPackages = []string{"java.lang"}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if len(cfg.SourcePaths) == 0 {
		cfg.SourcePaths = []string{"."}
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", "build", "out"}
	}
	if strings.TrimSpace(cfg.Index.Path) == "" {
		cfg.Index.Path = "data/joosc.db"
	}
	if strings.TrimSpace(cfg.Index.ProjectKey) == "" {
		cfg.Index.ProjectKey = "default"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerMinute == 0 {
		cfg.Watch.MaxRunsPerMinute = 30
	}
}

func normalize(cfg *Config) {
	cfg.RootType = strings.TrimSpace(cfg.RootType)
	cfg.Index.Path = strings.TrimSpace(cfg.Index.Path)
	cfg.Index.ProjectKey = strings.TrimSpace(cfg.Index.ProjectKey)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)
	cfg.Metrics.Address = strings.TrimSpace(cfg.Metrics.Address)
	cfg.StandardPackages = trimAll(cfg.StandardPackages)
	cfg.SourcePaths = trimAll(cfg.SourcePaths)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
