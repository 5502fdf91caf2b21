// Package symbols builds the global declaration table: every class and
// interface of a run indexed by qualified name.
package symbols

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/shared/util"
	"strings"
)

const DefaultRootType = "java.lang.Object"

// Handle addresses a declaration in the table's arena. Handles are stable
// for the lifetime of the table.
type Handle int

const NoHandle Handle = -1

type Options struct {
	// RootType is the qualified name of the implicit superclass of every
	// class without an extends clause.
	RootType string
}

// Table is immutable once Collect returns; share it by pointer.
type Table struct {
	decls    []*ast.TypeDecl
	handles  map[*ast.TypeDecl]Handle
	byName   map[string]Handle
	packages map[string]map[string]Handle // package -> simple name -> handle
	prefixes map[string]bool              // every named package and its parents
	root     Handle
}

// Collect walks every unit once and registers its top-level type. Any
// duplicate qualified name is fatal: the table is not returned.
func Collect(units []*ast.CompilationUnit, opts Options) (*Table, error) {
	rootType := strings.TrimSpace(opts.RootType)
	if rootType == "" {
		rootType = DefaultRootType
	}

	claims := make(map[string][]*ast.TypeDecl)
	order := make([]string, 0, len(units))
	prefixes := make(map[string]bool)

	for _, unit := range units {
		if unit == nil {
			continue
		}
		registerPrefixes(prefixes, unit.PackageName())
		decl := unit.Type
		if decl == nil {
			continue
		}
		decl.Unit = unit
		qname := decl.QualifiedName()
		if _, seen := claims[qname]; !seen {
			order = append(order, qname)
		}
		claims[qname] = append(claims[qname], decl)
	}

	var diags diag.List
	for _, qname := range order {
		decls := claims[qname]
		if len(decls) > 1 {
			related := make([]ast.Location, 0, len(decls)-1)
			related = append(related, decls[0].Loc)
			for _, d := range decls[2:] {
				related = append(related, d.Loc)
			}
			diags.AddRelated(diag.KindDuplicateDeclaration, decls[1].Loc, related,
				"type %s is declared %d times", qname, len(decls))
		}
		// Default-package types live outside the package tree.
		if prefixes[qname] && decls[0].Unit.PackageName() != "" {
			diags.Add(diag.KindDuplicateDeclaration, decls[0].Loc,
				"type %s has the same name as a package", qname)
		}
	}
	if err := diags.Err(); err != nil {
		return nil, err
	}

	t := &Table{
		decls:    make([]*ast.TypeDecl, 0, len(order)+1),
		handles:  make(map[*ast.TypeDecl]Handle, len(order)+1),
		byName:   make(map[string]Handle, len(order)),
		packages: make(map[string]map[string]Handle),
		prefixes: prefixes,
		root:     NoHandle,
	}
	for _, qname := range util.SortedStringKeys(claims) {
		decl := claims[qname][0]
		h := t.add(decl)
		t.byName[qname] = h
		pkg := decl.Unit.PackageName()
		members, ok := t.packages[pkg]
		if !ok {
			members = make(map[string]Handle)
			t.packages[pkg] = members
		}
		members[decl.Name] = h
	}

	if h, ok := t.byName[rootType]; ok {
		t.root = h
	} else {
		root := &ast.TypeDecl{Kind: ast.KindClass, Name: simpleName(rootType), Synthetic: true}
		root.SetQualifiedName(rootType)
		t.root = t.add(root)
	}
	return t, nil
}

func (t *Table) add(decl *ast.TypeDecl) Handle {
	h := Handle(len(t.decls))
	t.decls = append(t.decls, decl)
	t.handles[decl] = h
	return h
}

func registerPrefixes(prefixes map[string]bool, pkg string) {
	if pkg == "" {
		return
	}
	parts := strings.Split(pkg, ".")
	for i := range parts {
		prefixes[strings.Join(parts[:i+1], ".")] = true
	}
}

func simpleName(qname string) string {
	if idx := strings.LastIndex(qname, "."); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}

// Lookup finds a declaration by qualified name. The synthetic root is not
// visible here.
func (t *Table) Lookup(qname string) (*ast.TypeDecl, bool) {
	h, ok := t.byName[qname]
	if !ok {
		return nil, false
	}
	return t.decls[h], true
}

func (t *Table) Handle(decl *ast.TypeDecl) Handle {
	if h, ok := t.handles[decl]; ok {
		return h
	}
	return NoHandle
}

func (t *Table) Decl(h Handle) *ast.TypeDecl {
	if h < 0 || int(h) >= len(t.decls) {
		return nil
	}
	return t.decls[h]
}

// Len counts arena entries, including a synthetic root.
func (t *Table) Len() int { return len(t.decls) }

// Types returns the declared (non-synthetic) types in handle order.
func (t *Table) Types() []*ast.TypeDecl {
	out := make([]*ast.TypeDecl, 0, len(t.decls))
	for _, d := range t.decls {
		if !d.Synthetic {
			out = append(out, d)
		}
	}
	return out
}

// IsPackage reports whether name is a declared package or a parent of one.
func (t *Table) IsPackage(name string) bool { return t.prefixes[name] }

func (t *Table) PackageMember(pkg, simple string) (*ast.TypeDecl, bool) {
	members, ok := t.packages[pkg]
	if !ok {
		return nil, false
	}
	h, ok := members[simple]
	if !ok {
		return nil, false
	}
	return t.decls[h], true
}

// PackageTypes lists the types declared directly in pkg, sorted by name.
func (t *Table) PackageTypes(pkg string) []*ast.TypeDecl {
	members := t.packages[pkg]
	out := make([]*ast.TypeDecl, 0, len(members))
	for _, name := range util.SortedStringKeys(members) {
		out = append(out, t.decls[members[name]])
	}
	return out
}

func (t *Table) Root() *ast.TypeDecl { return t.decls[t.root] }

func (t *Table) RootHandle() Handle { return t.root }
