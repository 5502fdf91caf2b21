// Package hierarchy resolves extends/implements clauses into an inheritance
// graph over the declaration table and rejects cycles and illegal shapes.
package hierarchy

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/imports"
	"joosc/internal/engine/symbols"
	"strings"
)

// Graph is the inheritance DAG. Edges point from subtype to supertype and
// are stored as handles into the declaration table.
type Graph struct {
	table      *symbols.Table
	supers     [][]symbols.Handle // superclass first, then interfaces
	superclass []symbols.Handle
	interfaces [][]symbols.Handle
	order      []symbols.Handle // supertypes before subtypes
	level      []int
}

// Build resolves every declaration's supertypes through its unit scope and
// validates the resulting graph. A graph is only returned when no
// diagnostics were produced.
func Build(table *symbols.Table, scopes imports.Scopes) (*Graph, diag.List) {
	n := table.Len()
	g := &Graph{
		table:      table,
		supers:     make([][]symbols.Handle, n),
		superclass: make([]symbols.Handle, n),
		interfaces: make([][]symbols.Handle, n),
	}
	for i := range g.superclass {
		g.superclass[i] = symbols.NoHandle
	}

	var diags diag.List
	for i := 0; i < n; i++ {
		h := symbols.Handle(i)
		decl := table.Decl(h)
		if decl.Synthetic {
			continue
		}
		b := &edgeBuilder{g: g, h: h, decl: decl, scope: scopes.ForType(decl), diags: &diags}
		if decl.IsInterface() {
			b.interfaceEdges()
		} else {
			b.classEdges()
		}
	}
	if len(diags) > 0 {
		return nil, diags
	}

	if cycles := g.detectCycles(); len(cycles) > 0 {
		return nil, cycles
	}
	g.computeLevels()
	return g, nil
}

type edgeBuilder struct {
	g     *Graph
	h     symbols.Handle
	decl  *ast.TypeDecl
	scope *imports.Scope
	diags *diag.List
}

func (b *edgeBuilder) classEdges() {
	decl := b.decl
	if len(decl.Extends) > 1 {
		b.diags.Add(diag.KindIllegalInheritanceShape, decl.Loc,
			"class %s may extend only one class, found %d", decl.QualifiedName(), len(decl.Extends))
	}
	if len(decl.Extends) == 0 {
		if root := b.g.table.RootHandle(); root != b.h {
			b.g.superclass[b.h] = root
			b.g.supers[b.h] = append(b.g.supers[b.h], root)
		}
	} else if super, ok := b.resolve(decl.Extends[0]); ok {
		superDecl := b.g.table.Decl(super)
		switch {
		case superDecl.IsInterface():
			b.diags.AddRelated(diag.KindIllegalInheritanceShape, decl.Extends[0].Loc, []ast.Location{superDecl.Loc},
				"class %s cannot extend interface %s", decl.QualifiedName(), superDecl.QualifiedName())
		case superDecl.Modifiers.Has(ast.ModFinal):
			b.diags.AddRelated(diag.KindIllegalInheritanceShape, decl.Extends[0].Loc, []ast.Location{superDecl.Loc},
				"class %s cannot extend final class %s", decl.QualifiedName(), superDecl.QualifiedName())
		}
		b.g.superclass[b.h] = super
		b.g.supers[b.h] = append(b.g.supers[b.h], super)
	}

	b.interfaceList(decl.Implements, "implement")
}

func (b *edgeBuilder) interfaceEdges() {
	decl := b.decl
	if len(decl.Implements) > 0 {
		b.diags.Add(diag.KindIllegalInheritanceShape, decl.Implements[0].Loc,
			"interface %s cannot implement other types", decl.QualifiedName())
	}
	b.interfaceList(decl.Extends, "extend")
}

// interfaceList resolves a list that may only name interfaces, each once.
func (b *edgeBuilder) interfaceList(refs []*ast.TypeRef, verb string) {
	listed := make(map[symbols.Handle]bool, len(refs))
	for _, ref := range refs {
		target, ok := b.resolve(ref)
		if !ok {
			continue
		}
		targetDecl := b.g.table.Decl(target)
		if !targetDecl.IsInterface() {
			b.diags.AddRelated(diag.KindIllegalInheritanceShape, ref.Loc, []ast.Location{targetDecl.Loc},
				"%s %s cannot %s class %s", b.decl.Kind, b.decl.QualifiedName(), verb, targetDecl.QualifiedName())
		}
		if listed[target] {
			b.diags.Add(diag.KindIllegalInheritanceShape, ref.Loc,
				"%s %s lists interface %s more than once", b.decl.Kind, b.decl.QualifiedName(), targetDecl.QualifiedName())
			continue
		}
		listed[target] = true
		b.g.interfaces[b.h] = append(b.g.interfaces[b.h], target)
		b.g.supers[b.h] = append(b.g.supers[b.h], target)
	}
}

func (b *edgeBuilder) resolve(ref *ast.TypeRef) (symbols.Handle, bool) {
	if ref == nil {
		return symbols.NoHandle, false
	}
	if ref.Name == nil {
		b.diags.Add(diag.KindIllegalInheritanceShape, ref.Loc,
			"%s %s cannot inherit from primitive type %s", b.decl.Kind, b.decl.QualifiedName(), ref)
		return symbols.NoHandle, false
	}
	if ref.Dims > 0 {
		b.diags.Add(diag.KindIllegalInheritanceShape, ref.Loc,
			"%s %s cannot inherit from array type %s", b.decl.Kind, b.decl.QualifiedName(), ref)
		return symbols.NoHandle, false
	}

	var decl *ast.TypeDecl
	var err error
	if b.scope != nil {
		decl, err = b.scope.BindTypeName(ref.Name)
	} else {
		err = imports.ErrNotFound
		if found, ok := b.g.table.Lookup(ref.Name.String()); ok && !ref.Name.IsSimple() {
			decl, err = found, nil
			ref.Name.Bind(ast.Binding{Kind: ast.BindType, Type: found})
		}
	}
	if err != nil {
		b.diags.Add(diag.KindUnresolvedName, ref.Loc, "%s", imports.TypeNameMessage(ref.Name, err))
		return symbols.NoHandle, false
	}
	return b.g.table.Handle(decl), true
}

func (g *Graph) Table() *symbols.Table { return g.table }

// Supertypes returns the direct supertypes of h, superclass first.
func (g *Graph) Supertypes(h symbols.Handle) []symbols.Handle { return g.supers[h] }

func (g *Graph) Superclass(h symbols.Handle) symbols.Handle { return g.superclass[h] }

func (g *Graph) Interfaces(h symbols.Handle) []symbols.Handle { return g.interfaces[h] }

// Order lists every handle with supertypes before their subtypes.
func (g *Graph) Order() []symbols.Handle { return g.order }

// Level is 0 for types without supertypes and 1 + the deepest supertype
// level otherwise.
func (g *Graph) Level(h symbols.Handle) int { return g.level[h] }

// Levels groups handles by level; a level only depends on lower ones.
func (g *Graph) Levels() [][]symbols.Handle {
	var out [][]symbols.Handle
	for _, h := range g.order {
		lvl := g.level[h]
		for len(out) <= lvl {
			out = append(out, nil)
		}
		out[lvl] = append(out[lvl], h)
	}
	return out
}

// Chain follows superclasses from h up to the implicit root.
func (g *Graph) Chain(h symbols.Handle) []*ast.TypeDecl {
	var chain []*ast.TypeDecl
	for cur := h; cur != symbols.NoHandle; cur = g.superclass[cur] {
		chain = append(chain, g.table.Decl(cur))
	}
	return chain
}

// ChainNames renders Chain as qualified names.
func (g *Graph) ChainNames(h symbols.Handle) []string {
	chain := g.Chain(h)
	names := make([]string, len(chain))
	for i, decl := range chain {
		names[i] = decl.QualifiedName()
	}
	return names
}

// IsSubtype reports whether sub reaches super through inheritance edges
// (every type is a subtype of itself).
func (g *Graph) IsSubtype(sub, super symbols.Handle) bool {
	if sub == super {
		return true
	}
	seen := make(map[symbols.Handle]bool)
	queue := []symbols.Handle{sub}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.supers[cur] {
			if next == super {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func (g *Graph) computeLevels() {
	g.level = make([]int, len(g.supers))
	for _, h := range g.order {
		lvl := 0
		for _, s := range g.supers[h] {
			if g.level[s]+1 > lvl {
				lvl = g.level[s] + 1
			}
		}
		g.level[h] = lvl
	}
}

func joinNames(decls []*ast.TypeDecl) string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.QualifiedName()
	}
	return strings.Join(names, " -> ")
}
