package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var qualifiedNamePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

func validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateNames,
		validateSources,
		validateExclude,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateNames(cfg *Config) error {
	if !qualifiedNamePattern.MatchString(cfg.RootType) {
		return fmt.Errorf("root_type %q is not a qualified type name", cfg.RootType)
	}
	seen := make(map[string]bool, len(cfg.StandardPackages))
	for _, pkg := range cfg.StandardPackages {
		if !qualifiedNamePattern.MatchString(pkg) {
			return fmt.Errorf("standard_packages entry %q is not a package name", pkg)
		}
		if seen[pkg] {
			return fmt.Errorf("duplicate standard package %q", pkg)
		}
		seen[pkg] = true
	}
	return nil
}

func validateSources(cfg *Config) error {
	if len(cfg.SourcePaths) == 0 {
		return fmt.Errorf("source_paths must not be empty")
	}
	if cfg.Index.Enabled && strings.HasSuffix(cfg.Index.Path, "/") {
		return fmt.Errorf("index.path %q must name a file", cfg.Index.Path)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude.dirs pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude.files pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerMinute < 0 {
		return fmt.Errorf("watch.max_runs_per_minute must not be negative, got %d", cfg.Watch.MaxRunsPerMinute)
	}
	return nil
}
