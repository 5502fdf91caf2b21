// # cmd/joosc/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"joosc/internal/core/config"
	"joosc/internal/core/errors"
	"joosc/internal/shared/observability"
	"joosc/internal/shared/util"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

var (
	configPath  = flag.String("config", "./"+config.DefaultFile, "Path to config file")
	once        = flag.Bool("once", false, "Run a single resolution and exit")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode")
	initConfig  = flag.Bool("init", false, "Write a default config file and exit")
	sarifPath   = flag.String("sarif", "", "Write diagnostics as SARIF to this path")
	dotPath     = flag.String("dot", "", "Write the class hierarchy as Graphviz DOT to this path")
	lookup      = flag.String("lookup", "", "Print the indexed record and members of a qualified type name")
	refs        = flag.String("refs", "", "Print indexed references to a qualified type or member name")
	metricsAddr = flag.String("metrics-addr", "", "Serve /metrics and /health on this address in watch mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

// Exit codes. Programs rejected by the compiler exit with 42.
const (
	exitOK           = 0
	exitFailure      = 1
	exitCompileError = 42
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *version {
		fmt.Printf("joosc v%s\n", VERSION)
		return exitOK
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, avoid logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err == nil {
				output = f
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if *initConfig {
		if err := writeDefaultConfig(*configPath); err != nil {
			slog.Error("failed to write config", "path", *configPath, "error", err)
			return exitFailure
		}
		fmt.Printf("wrote %s\n", *configPath)
		return exitOK
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.IsCode(err, errors.CodeNotFound) || *configPath != "./"+config.DefaultFile {
			slog.Error("failed to load config", "error", err)
			return exitFailure
		}
		slog.Debug("no config file, using defaults", "path", *configPath)
		cfg = config.Default()
		config.ApplyEnvOverrides(cfg)
	}
	if flag.NArg() > 0 {
		cfg.SourcePaths = flag.Args()
	}
	pinned := flag.NArg() > 0
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}
	if (*lookup != "" || *refs != "") && !cfg.Index.Enabled {
		fmt.Fprintln(os.Stderr, "--lookup and --refs need index.enabled = true")
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitFailure
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	app, err := NewApp(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}
	defer app.Close()
	app.PinSources = pinned

	// Initial resolution
	outcome := app.Run(ctx)
	if !*ui {
		app.PrintOutcome(outcome)
	}
	if *sarifPath != "" {
		if err := app.WriteSARIF(*sarifPath, outcome); err != nil {
			slog.Error("failed to write SARIF report", "path", *sarifPath, "error", err)
		}
	}
	if *dotPath != "" {
		if err := app.WriteDOT(*dotPath, outcome); err != nil {
			slog.Error("failed to write hierarchy graph", "path", *dotPath, "error", err)
		}
	}

	if *lookup != "" || *refs != "" {
		if err := app.Query(*lookup, *refs); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return exitFailure
		}
		return outcome.ExitCode()
	}

	if *once {
		return outcome.ExitCode()
	}

	// Watch mode
	if err := app.StartWatcher(ctx, *configPath); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return exitFailure
	}

	if *ui {
		if err := app.RunUI(ctx); err != nil {
			slog.Error("failed to run UI", "error", err)
			return exitFailure
		}
		return exitOK
	}
	<-ctx.Done()
	slog.Info("shutting down")
	return exitOK
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := config.Default().Encode()
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, data, 0o644)
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "joosc", "joosc.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "joosc", "joosc.log")
	}

	return "joosc.log"
}
