// Package resolver binds every name-reference node in method, constructor
// and field bodies to the declaration it denotes.
package resolver

import (
	"context"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/hierarchy"
	"joosc/internal/engine/imports"
	"joosc/internal/engine/members"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/util"
)

const stringType = "java.lang.String"

// Resolver reads the finished global structures; it holds no per-unit state
// and is safe for concurrent Resolve calls on distinct units.
type Resolver struct {
	table   *symbols.Table
	graph   *hierarchy.Graph
	members *members.Collector
	scopes  imports.Scopes
}

func New(table *symbols.Table, graph *hierarchy.Graph, collector *members.Collector, scopes imports.Scopes) *Resolver {
	return &Resolver{
		table:   table,
		graph:   graph,
		members: collector,
		scopes:  scopes,
	}
}

// Resolve walks one unit depth-first and returns every resolution error
// found; resolution continues past failing nodes.
func (r *Resolver) Resolve(unit *ast.CompilationUnit) diag.List {
	if unit == nil || unit.Type == nil {
		return nil
	}
	scope := r.scopes[unit]
	if scope == nil {
		return nil
	}
	self := unit.Type
	w := &walker{
		r:     r,
		scope: scope,
		self:  self,
		table: r.members.Table(self),
	}
	w.unit()
	return w.diags
}

// ResolveAll resolves each unit in its own task. Units only write to their
// own nodes.
func (r *Resolver) ResolveAll(ctx context.Context, units []*ast.CompilationUnit, workers int) diag.List {
	results := make([]diag.List, len(units))
	util.ForEach(ctx, len(units), workers, func(i int) {
		results[i] = r.Resolve(units[i])
	})
	var diags diag.List
	for _, d := range results {
		diags.Merge(d)
	}
	return diags
}

type walker struct {
	r     *Resolver
	scope *imports.Scope
	self  *ast.TypeDecl
	table *members.Table
	stack ScopeStack
	diags diag.List
}

func (w *walker) unit() {
	decl := w.self
	w.stack.PushClass(w.table)
	defer w.stack.Pop()

	for _, f := range decl.Fields {
		w.expr(f.Init)
	}
	for _, ctor := range decl.Constructors {
		w.body(ctor.Params, ctor.Body)
	}
	for _, m := range decl.Methods {
		w.body(m.Params, m.Body)
	}
}

func (w *walker) body(params []*ast.LocalVar, body *ast.Block) {
	w.stack.PushMethod()
	defer w.stack.Pop()
	for _, p := range params {
		w.stack.Declare(p)
	}
	if body != nil {
		w.stmt(body)
	}
}

// tableOf returns the member table used for member access on v, nil when
// the static type is not a class or interface.
func (w *walker) tableOf(v value) *members.Table {
	switch {
	case v.kind == valType && v.decl != nil:
		return w.r.members.Table(v.decl)
	case v.kind != valExpr:
		return nil
	case v.dims > 0:
		// Arrays expose the root type's methods.
		if root := w.r.table.Root(); root != nil && !root.Synthetic {
			return w.r.members.Table(root)
		}
		return nil
	case v.decl != nil:
		return w.r.members.Table(v.decl)
	}
	return nil
}

func (w *walker) stringValue() value {
	if decl, ok := w.r.table.Lookup(stringType); ok {
		return value{kind: valExpr, decl: decl}
	}
	return unknown()
}
