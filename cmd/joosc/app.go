// # cmd/joosc/app.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"joosc/internal/core/config"
	"joosc/internal/core/errors"
	"joosc/internal/core/watcher"
	"joosc/internal/data/index"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/parser"
	"joosc/internal/engine/pipeline"
	"joosc/internal/shared/observability"
	"joosc/internal/shared/util"
	"joosc/internal/ui/report"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"
)

type App struct {
	Config *config.Config
	Parser *parser.Parser
	Index  *index.Store

	// PinSources keeps CLI source paths across config reloads.
	PinSources bool

	loader     *parser.GrammarLoader
	printer    *report.Printer
	out        io.Writer
	teaProgram *tea.Program

	watcher    *watcher.Watcher
	cfgWatcher *config.Watcher
	metrics    *observability.Server
	ctx        context.Context

	runMu sync.Mutex // one resolution at a time
	outMu sync.Mutex
	mu    sync.Mutex
	last  Outcome
}

// Outcome is the result of one discovery, parse and resolution run.
type Outcome struct {
	RunID       string
	Files       []string
	Types       int
	Result      *pipeline.Result
	Diagnostics diag.List
	// Err is a failure outside the resolution phases: discovery, IO or a
	// syntax error.
	Err      error
	Duration time.Duration
	Finished time.Time
}

// ExitCode maps the outcome to the process status: 42 for programs the
// compiler rejects, 1 for everything else that went wrong.
func (o Outcome) ExitCode() int {
	switch {
	case o.Err == nil && len(o.Diagnostics) == 0:
		return exitOK
	case len(o.Diagnostics) > 0,
		errors.IsCode(o.Err, errors.CodeParseError),
		errors.IsCode(o.Err, errors.CodeValidationError):
		return exitCompileError
	default:
		return exitFailure
	}
}

func NewApp(cfg *config.Config, out io.Writer) (*App, error) {
	loader := parser.NewGrammarLoader()
	p, err := parser.NewParser(loader)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Parser: p,
		loader: loader,
		out:    out,
		ctx:    context.Background(),
	}
	a.printer = report.NewPrinter(out, workingDir())

	if cfg.Index.Enabled {
		store, err := index.Open(cfg.Index.Path, cfg.Index.ProjectKey)
		if err != nil {
			return nil, err
		}
		a.Index = store
	}
	return a, nil
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

func (a *App) config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Config
}

// Last returns the most recent outcome.
func (a *App) Last() Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Run discovers and parses every source file, then resolves the whole
// program. Runs are serialized.
func (a *App) Run(ctx context.Context) Outcome {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg := a.config()
	start := time.Now()
	var out Outcome

	files, err := DiscoverSources(cfg.SourcePaths, cfg.Exclude.Dirs, cfg.Exclude.Files, a.loader.SupportedExtensions())
	if err != nil {
		out.Err = err
		return a.finish(out, start)
	}
	out.Files = files
	slog.Debug("discovered sources", "files", len(files))

	units, err := a.Parser.ParseFiles(ctx, files, cfg.Workers)
	if err != nil {
		out.Err = err
		return a.finish(out, start)
	}

	res, err := pipeline.Run(ctx, units, pipeline.Options{
		RootType:         cfg.RootType,
		StandardPackages: cfg.StandardPackages,
		Workers:          cfg.Workers,
		Logger:           slog.Default(),
	})
	if err != nil {
		if diags, ok := diag.FromError(err); ok {
			out.Diagnostics = diags
		} else {
			out.Err = err
		}
		return a.finish(out, start)
	}
	out.Result = res
	out.RunID = res.RunID
	out.Types = res.Table.Len()

	if a.Index != nil {
		if err := a.Index.Write(ctx, res); err != nil {
			slog.Warn("failed to update index", "path", cfg.Index.Path, "error", err)
		}
	}
	return a.finish(out, start)
}

func (a *App) finish(out Outcome, start time.Time) Outcome {
	out.Duration = time.Since(start)
	out.Finished = time.Now()
	if out.Err != nil {
		slog.Debug("run stopped before resolution", "error", out.Err)
	} else {
		slog.Debug("run finished", "run_id", out.RunID, "diagnostics", len(out.Diagnostics),
			"duration", out.Duration, "heap_mb", util.HeapAllocMB())
	}
	a.mu.Lock()
	a.last = out
	a.mu.Unlock()
	return out
}

// DiscoverSources walks roots and returns the sorted source files with one
// of extensions. Directory patterns match base names; file patterns match
// the base name, or the slash-separated path relative to the root when the
// pattern contains a separator. A root that is a file is taken as is.
func DiscoverSources(roots, excludeDirs, excludeFiles, extensions []string) ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	type filePattern struct {
		glob     glob.Glob
		relative bool
	}
	filePatterns := make([]filePattern, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		relative := util.ContainsPathSeparator(p)
		if relative {
			p = util.NormalizePatternPath(p)
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		filePatterns = append(filePatterns, filePattern{glob: g, relative: relative})
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	seen := make(map[string]bool)
	for _, root := range collapseRoots(roots) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "stat source path"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			seen[root] = true
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)

			if d.IsDir() {
				if path == root {
					return nil
				}
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !exts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = util.NormalizePatternPath(rel)
			for _, p := range filePatterns {
				subject := base
				if p.relative {
					subject = rel
				}
				if p.glob.Match(subject) {
					return nil
				}
			}

			seen[path] = true
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "walk source path"), errors.CtxPath, root)
		}
	}

	return util.SortedStringKeys(seen), nil
}

// collapseRoots drops roots nested inside another root so no file is walked
// twice.
func collapseRoots(roots []string) []string {
	type root struct{ path, abs string }
	all := make([]root, 0, len(roots))
	for _, r := range roots {
		r = filepath.Clean(r)
		abs, err := filepath.Abs(r)
		if err != nil {
			abs = r
		}
		all = append(all, root{path: r, abs: abs})
	}
	sort.SliceStable(all, func(i, j int) bool { return len(all[i].abs) < len(all[j].abs) })

	var kept []root
	for _, r := range all {
		nested := false
		for _, k := range kept {
			if util.HasPathPrefix(r.abs, k.abs) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, r)
		}
	}
	out := make([]string, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.path)
	}
	return out
}

// watchRoots are the directories watch mode observes: source directories as
// given, and the parent of sources that are single files.
func watchRoots(roots []string) []string {
	dirs := make(map[string]bool, len(roots))
	for _, r := range collapseRoots(roots) {
		if info, err := os.Stat(r); err == nil && !info.IsDir() {
			r = filepath.Dir(r)
		}
		dirs[r] = true
	}
	return collapseRoots(util.SortedStringKeys(dirs))
}

func (a *App) PrintOutcome(o Outcome) {
	if o.Err != nil {
		var syntax *parser.SyntaxError
		if stderrors.As(o.Err, &syntax) {
			a.printer.Failure("SyntaxError", syntax.Loc, syntax.Message)
		} else {
			a.printer.Failure("Error", ast.Location{}, o.Err.Error())
		}
	}
	if len(o.Diagnostics) > 0 {
		a.printer.Diagnostics(o.Diagnostics)
	}
	a.printer.Summary(report.Summary{
		Files:       len(o.Files),
		Types:       o.Types,
		Duration:    o.Duration,
		Diagnostics: o.Diagnostics,
		Failed:      o.Err != nil,
	})
}

func (a *App) WriteSARIF(path string, o Outcome) error {
	data, err := report.GenerateSARIF(workingDir(), VERSION, o.Diagnostics)
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, data, 0o644)
}

// WriteDOT writes the class hierarchy of a resolved run as Graphviz DOT.
func (a *App) WriteDOT(path string, o Outcome) error {
	if o.Result == nil || o.Result.Graph == nil {
		return errors.New(errors.CodeValidationError, "no hierarchy to export")
	}
	return util.WriteFileWithDirs(path, []byte(report.GenerateDOT(o.Result.Graph)), 0o644)
}

// Query prints index records for a type and references to a name.
func (a *App) Query(typeName, refName string) error {
	if a.Index == nil {
		return errors.New(errors.CodeValidationError, "index is disabled")
	}
	if typeName != "" {
		rec, ok, err := a.Index.LookupType(typeName)
		if err != nil {
			return err
		}
		if !ok {
			return errors.AddContext(errors.New(errors.CodeNotFound, "type not in index"), errors.CtxType, typeName)
		}
		fmt.Fprintf(a.out, "%s %s %s\n", rec.Kind, rec.QualifiedName, a.printer.Location(rec.FilePath, rec.Line, 1))
		if rec.Superclass != "" {
			fmt.Fprintf(a.out, "  extends %s\n", rec.Superclass)
		}
		if len(rec.Interfaces) > 0 {
			fmt.Fprintf(a.out, "  implements %s\n", strings.Join(rec.Interfaces, ", "))
		}
		members, err := a.Index.Members(typeName)
		if err != nil {
			return err
		}
		for _, m := range members {
			line := fmt.Sprintf("  %s %s", m.Kind, m.Signature)
			if m.Type != "" {
				line += " : " + m.Type
			}
			if m.DeclaredIn != "" && m.DeclaredIn != typeName {
				line += " (from " + m.DeclaredIn + ")"
			}
			fmt.Fprintln(a.out, line)
		}
	}
	if refName != "" {
		records, err := a.Index.References(refName)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(a.out, "%s %s %s -> %s\n", a.printer.Location(r.FilePath, r.Line, r.Column), r.Kind, r.Text, r.Target)
		}
		if len(records) == 0 {
			fmt.Fprintf(a.out, "no references to %s\n", refName)
		}
	}
	return nil
}

// HandleChanges re-runs resolution after the watcher reports a batch of
// changed files.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	a.publish(a.Run(a.ctx))
}

// ReloadConfig swaps in cfg and re-runs. Source roots are only read at
// watch start, so changing them needs a restart.
func (a *App) ReloadConfig(cfg *config.Config) {
	a.mu.Lock()
	old := a.Config
	if a.PinSources {
		cfg.SourcePaths = old.SourcePaths
	}
	cfg.Metrics = old.Metrics
	a.Config = cfg
	a.mu.Unlock()

	if strings.Join(cfg.SourcePaths, "\x00") != strings.Join(old.SourcePaths, "\x00") {
		slog.Warn("source_paths changed; restart watch mode to watch the new roots")
	}
	if a.watcher != nil {
		a.watcher.SetDebounce(cfg.Watch.Debounce)
		a.watcher.SetRateLimit(cfg.Watch.MaxRunsPerMinute)
	}
	a.publish(a.Run(a.ctx))
}

func (a *App) publish(o Outcome) {
	a.mu.Lock()
	p := a.teaProgram
	a.mu.Unlock()
	if p != nil {
		p.Send(updateMsg{outcome: o})
		return
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, strings.Repeat("-", 40))
	a.PrintOutcome(o)
}

// StartWatcher re-runs resolution on source changes and reloads configPath
// when it changes. With a metrics address it also serves /metrics.
func (a *App) StartWatcher(ctx context.Context, configPath string) error {
	a.ctx = ctx
	cfg := a.config()

	w, err := watcher.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	w.SetExtensions(a.loader.SupportedExtensions())
	w.SetRateLimit(cfg.Watch.MaxRunsPerMinute)
	if err := w.Watch(watchRoots(cfg.SourcePaths)); err != nil {
		w.Close()
		return err
	}
	a.watcher = w

	if _, err := os.Stat(configPath); err == nil {
		a.cfgWatcher = config.NewWatcher(configPath, a.ReloadConfig)
		if err := a.cfgWatcher.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "path", configPath, "error", err)
			a.cfgWatcher = nil
		}
	}

	if cfg.Metrics.Address != "" {
		a.metrics = observability.NewServer(cfg.Metrics.Address, a.health)
		if err := a.metrics.Start(ctx); err != nil {
			a.metrics = nil
			return err
		}
	}
	slog.Info("watching sources", "roots", watchRoots(cfg.SourcePaths))
	return nil
}

func (a *App) health(context.Context) observability.Health {
	o := a.Last()
	h := observability.Health{
		Status:      "up",
		LastRun:     o.Finished,
		RunID:       o.RunID,
		Diagnostics: len(o.Diagnostics),
	}
	if o.ExitCode() == exitFailure {
		h.Status = "degraded"
	}
	return h
}

func (a *App) RunUI(ctx context.Context) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	a.mu.Lock()
	a.teaProgram = p
	a.mu.Unlock()

	// Run already happened in main; show it once the program starts.
	go p.Send(updateMsg{outcome: a.Last()})

	_, err := p.Run()
	if stderrors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
		a.watcher = nil
	}
	if a.cfgWatcher != nil {
		a.cfgWatcher.Stop()
		a.cfgWatcher = nil
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Stop(ctx); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
		a.metrics = nil
	}
	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			slog.Warn("failed to close index", "error", err)
		}
		a.Index = nil
	}
}
