// Package pipeline chains the resolution phases over one set of
// compilation units.
package pipeline

import (
	"context"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/hierarchy"
	"joosc/internal/engine/imports"
	"joosc/internal/engine/members"
	"joosc/internal/engine/resolver"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/observability"
	"joosc/internal/shared/util"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	PhaseCollect   = "collect"
	PhaseImports   = "imports"
	PhaseHierarchy = "hierarchy"
	PhaseMembers   = "members"
	PhaseNames     = "names"
)

// Phases lists the phase names in execution order.
var Phases = []string{PhaseCollect, PhaseImports, PhaseHierarchy, PhaseMembers, PhaseNames}

type Options struct {
	RootType         string
	StandardPackages []string
	// Workers bounds the per-unit and per-level parallelism; <= 0 means
	// GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Result is the annotated forest of a successful run together with the
// structures built along the way.
type Result struct {
	RunID     string
	Units     []*ast.CompilationUnit
	Table     *symbols.Table
	Scopes    imports.Scopes
	Graph     *hierarchy.Graph
	Members   *members.Collector
	Durations map[string]time.Duration
}

type run struct {
	id        string
	logger    *slog.Logger
	durations map[string]time.Duration
	diags     diag.List
}

// Run resolves units. A structural error in one phase stops the run before
// the next phase; errors of the same phase are all collected. Any
// diagnostic makes the run fail with a *diag.Error.
func Run(ctx context.Context, units []*ast.CompilationUnit, opts Options) (*Result, error) {
	r := &run{
		id:        uuid.NewString(),
		logger:    opts.Logger,
		durations: make(map[string]time.Duration, len(Phases)),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	ctx, span := observability.Tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", r.id),
		attribute.Int("units", len(units)),
	))
	defer span.End()

	r.logger.Info("resolution started", "run_id", r.id, "units", len(units), "workers", opts.Workers)
	res, err := r.execute(ctx, units, opts)
	r.finish(err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

func (r *run) execute(ctx context.Context, units []*ast.CompilationUnit, opts Options) (*Result, error) {
	res := &Result{RunID: r.id, Units: units, Durations: r.durations}

	var collectErr error
	r.phase(ctx, PhaseCollect, func(context.Context) diag.List {
		res.Table, collectErr = symbols.Collect(units, symbols.Options{RootType: opts.RootType})
		if list, ok := diag.FromError(collectErr); ok {
			return list
		}
		return nil
	})
	if collectErr != nil {
		if _, ok := diag.FromError(collectErr); !ok {
			return nil, collectErr
		}
		return nil, r.diags.Err()
	}
	observability.DeclaredTypes.Set(float64(len(res.Table.Types())))

	if r.phase(ctx, PhaseImports, func(ctx context.Context) diag.List {
		var d diag.List
		res.Scopes, d = imports.ResolveAll(ctx, units, res.Table, imports.Options{StandardPackages: opts.StandardPackages}, opts.Workers)
		return d
	}).HasFatal() {
		return nil, r.diags.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(r.phase(ctx, PhaseHierarchy, func(context.Context) diag.List {
		var d diag.List
		res.Graph, d = hierarchy.Build(res.Table, res.Scopes)
		return d
	})) > 0 {
		return nil, r.diags.Err()
	}
	if levels := res.Graph.Levels(); len(levels) > 0 {
		observability.HierarchyDepth.Set(float64(len(levels) - 1))
	}

	res.Members = members.NewCollector(res.Graph, res.Scopes)
	if r.phase(ctx, PhaseMembers, func(ctx context.Context) diag.List {
		return res.Members.CollectAll(ctx, opts.Workers)
	}).HasFatal() {
		return nil, r.diags.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := resolver.New(res.Table, res.Graph, res.Members, res.Scopes)
	r.phase(ctx, PhaseNames, func(ctx context.Context) diag.List {
		return names.ResolveAll(ctx, units, opts.Workers)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	observability.UnitsResolved.Add(float64(len(units)))

	if err := r.diags.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// phase times fn under its own span and accumulates its diagnostics.
func (r *run) phase(ctx context.Context, name string, fn func(context.Context) diag.List) diag.List {
	ctx, span := observability.Tracer.Start(ctx, "pipeline."+name, trace.WithAttributes(
		attribute.String("run_id", r.id),
	))
	defer span.End()

	start := time.Now()
	d := fn(ctx)
	elapsed := time.Since(start)

	r.durations[name] = elapsed
	r.diags.Merge(d)
	observability.PhaseDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("diagnostics", len(d)))
	r.logger.Debug("phase finished", "run_id", r.id, "phase", name, "diagnostics", len(d), "duration", elapsed)
	return d
}

func (r *run) finish(err error) {
	for _, d := range r.diags {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	}
	if err != nil {
		observability.RunsTotal.WithLabelValues("failed").Inc()
		r.logger.Info("resolution failed", "run_id", r.id, "diagnostics", len(r.diags), "error_kind", firstKind(r.diags))
		return
	}
	observability.RunsTotal.WithLabelValues("ok").Inc()
	r.logger.Info("resolution finished", "run_id", r.id, "diagnostics", 0, "heap_mb", util.HeapAllocMB())
}

func firstKind(l diag.List) string {
	if len(l) == 0 {
		return ""
	}
	return string(l[0].Kind)
}
