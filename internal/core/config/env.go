package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: JOOSC_[SECTION]_[KEY] (e.g., JOOSC_WATCH_DEBOUNCE).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.RootType, "JOOSC_ROOT_TYPE")
	setEnvList(&cfg.StandardPackages, "JOOSC_STANDARD_PACKAGES")
	setEnvInt(&cfg.Workers, "JOOSC_WORKERS")
	setEnvList(&cfg.SourcePaths, "JOOSC_SOURCE_PATHS")

	setEnvBool(&cfg.Index.Enabled, "JOOSC_INDEX_ENABLED")
	setEnvString(&cfg.Index.Path, "JOOSC_INDEX_PATH")
	setEnvString(&cfg.Index.ProjectKey, "JOOSC_INDEX_PROJECT_KEY")

	setEnvDuration(&cfg.Watch.Debounce, "JOOSC_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxRunsPerMinute, "JOOSC_WATCH_MAX_RUNS_PER_MINUTE")

	setEnvString(&cfg.Tracing.Endpoint, "JOOSC_TRACING_ENDPOINT")
	setEnvString(&cfg.Metrics.Address, "JOOSC_METRICS_ADDRESS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
