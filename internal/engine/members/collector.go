package members

import (
	"context"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/hierarchy"
	"joosc/internal/engine/imports"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/util"
	"sync"
)

// Collector memoizes one member table per type. Each slot is filled exactly
// once, so concurrent callers only ever read finished supertype tables.
type Collector struct {
	graph  *hierarchy.Graph
	table  *symbols.Table
	scopes imports.Scopes
	slots  []slot
}

type slot struct {
	once  sync.Once
	table *Table
	diags diag.List
}

func NewCollector(graph *hierarchy.Graph, scopes imports.Scopes) *Collector {
	return &Collector{
		graph:  graph,
		table:  graph.Table(),
		scopes: scopes,
		slots:  make([]slot, graph.Table().Len()),
	}
}

// Collect returns the member table of h, building the tables of its
// supertypes first if needed. The diagnostics are those of h alone.
func (c *Collector) Collect(h symbols.Handle) (*Table, diag.List) {
	s := &c.slots[h]
	s.once.Do(func() {
		s.table, s.diags = c.build(h)
	})
	return s.table, s.diags
}

// Table returns the collected table for decl, building it if needed.
func (c *Collector) Table(decl *ast.TypeDecl) *Table {
	h := c.table.Handle(decl)
	if h == symbols.NoHandle {
		return nil
	}
	t, _ := c.Collect(h)
	return t
}

// CollectAll fills every slot level by level; types within a level share no
// inheritance edge and are collected in parallel.
func (c *Collector) CollectAll(ctx context.Context, workers int) diag.List {
	for _, level := range c.graph.Levels() {
		util.ForEach(ctx, len(level), workers, func(i int) {
			c.Collect(level[i])
		})
		if ctx.Err() != nil {
			break
		}
	}
	var diags diag.List
	for _, h := range c.graph.Order() {
		_, d := c.Collect(h)
		diags.Merge(d)
	}
	return diags
}

type inheritedMethod struct {
	m    *Method
	from *ast.TypeDecl
}

func (c *Collector) build(h symbols.Handle) (*Table, diag.List) {
	decl := c.table.Decl(h)
	t := newTable(decl)
	var diags diag.List

	c.bindSignatureTypes(decl, &diags)

	// Superclass members first; they satisfy interface signatures.
	if super := c.graph.Superclass(h); super != symbols.NoHandle {
		st, _ := c.Collect(super)
		for _, name := range st.FieldNames() {
			t.Fields[name] = st.Fields[name]
		}
		for _, sig := range st.order {
			t.put(st.bySig[sig])
		}
		t.Inherited = st.Constructors
	}

	fromSuperclass := make(map[string]bool, len(t.order))
	for _, sig := range t.order {
		fromSuperclass[sig] = true
	}
	viaInterface := make(map[string]inheritedMethod)
	var conflicts []string
	conflictWith := make(map[string]inheritedMethod)

	for _, ih := range c.graph.Interfaces(h) {
		it, _ := c.Collect(ih)
		from := c.table.Decl(ih)
		for _, name := range it.FieldNames() {
			if _, ok := t.Fields[name]; !ok {
				t.Fields[name] = it.Fields[name]
			}
		}
		for _, sig := range it.order {
			m := it.bySig[sig]
			if fromSuperclass[sig] {
				continue
			}
			prev, seen := viaInterface[sig]
			if !seen {
				viaInterface[sig] = inheritedMethod{m: m, from: from}
				t.put(m)
				continue
			}
			if prev.m.Decl != m.Decl && prev.m.Return != m.Return {
				if _, dup := conflictWith[sig]; !dup {
					conflicts = append(conflicts, sig)
					conflictWith[sig] = inheritedMethod{m: m, from: from}
				}
			}
		}
	}

	// Interfaces see the public methods of the root type.
	if decl.IsInterface() {
		if root := c.table.RootHandle(); !c.table.Decl(root).Synthetic && !c.graph.IsSubtype(root, h) {
			rt, _ := c.Collect(root)
			for _, sig := range rt.order {
				m := rt.bySig[sig]
				if _, ok := t.bySig[sig]; !ok && m.Decl.Modifiers.Has(ast.ModPublic) && !m.Decl.Modifiers.Has(ast.ModStatic) {
					t.put(m)
				}
			}
		}
	}

	declared := make(map[string]bool, len(decl.Methods))
	for _, f := range decl.Fields {
		t.Fields[f.Name] = f
	}
	for _, md := range decl.Methods {
		m := &Method{Decl: md, Sig: Signature(md.Name, md.Params), Return: TypeString(md.Result)}
		if declared[m.Sig] {
			continue
		}
		declared[m.Sig] = true
		t.put(m)
	}
	t.promoteDeclared(decl)

	for _, sig := range conflicts {
		if declared[sig] {
			continue
		}
		first, second := viaInterface[sig], conflictWith[sig]
		diags.AddRelated(diag.KindIncompatibleInheritance, decl.Loc,
			[]ast.Location{first.m.Decl.Loc, second.m.Decl.Loc},
			"%s %s inherits %s with return type %s from %s and %s from %s",
			decl.Kind, decl.QualifiedName(), sig,
			first.m.Return, first.from.QualifiedName(), second.m.Return, second.from.QualifiedName())
	}

	t.Constructors = decl.Constructors
	if len(t.Constructors) == 0 && !decl.IsInterface() {
		t.Constructors = []*ast.ConstructorDecl{defaultConstructor(decl)}
	}

	t.seal()
	return t, diags
}

// promoteDeclared moves declared signatures to the front of the order so
// overload sets list the type's own methods first.
func (t *Table) promoteDeclared(decl *ast.TypeDecl) {
	front := make([]string, 0, len(t.order))
	rest := make([]string, 0, len(t.order))
	for _, sig := range t.order {
		if t.bySig[sig].Decl.Owner == decl {
			front = append(front, sig)
		} else {
			rest = append(rest, sig)
		}
	}
	t.order = append(front, rest...)
}

// defaultConstructor stands in for the implicit no-argument constructor of
// a class that declares none. It is not added to the syntax tree.
func defaultConstructor(decl *ast.TypeDecl) *ast.ConstructorDecl {
	mods := ast.ModPublic
	if decl.Modifiers.Has(ast.ModProtected) {
		mods = ast.ModProtected
	}
	return &ast.ConstructorDecl{
		Modifiers: mods,
		Name:      decl.Name,
		Body:      &ast.Block{Loc: decl.Loc},
		Owner:     decl,
		Loc:       decl.Loc,
	}
}

// bindSignatureTypes resolves the types named by field declarations and
// method and constructor signatures of decl. Only this type's slot ever
// writes these nodes.
func (c *Collector) bindSignatureTypes(decl *ast.TypeDecl, diags *diag.List) {
	if decl.Synthetic {
		return
	}
	scope := c.scopes.ForType(decl)
	bind := func(ref *ast.TypeRef) {
		if ref == nil || ref.Name == nil || scope == nil {
			return
		}
		if _, err := scope.BindTypeName(ref.Name); err != nil {
			diags.Add(diag.KindUnresolvedName, ref.Loc, "%s", imports.TypeNameMessage(ref.Name, err))
		}
	}
	for _, f := range decl.Fields {
		bind(f.Type)
	}
	for _, m := range decl.Methods {
		bind(m.Result)
		for _, p := range m.Params {
			bind(p.Type)
		}
	}
	for _, ctor := range decl.Constructors {
		for _, p := range ctor.Params {
			bind(p.Type)
		}
	}
}
