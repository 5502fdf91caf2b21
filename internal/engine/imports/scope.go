// Package imports builds the per-unit scope of type names visible through
// the unit's own declaration, its imports, its package and the standard
// packages.
package imports

import (
	"errors"
	"fmt"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/symbols"
	"strings"
)

var (
	ErrNotFound  = errors.New("type not found")
	ErrAmbiguous = errors.New("ambiguous on-demand import")
)

type Options struct {
	// StandardPackages are imported on demand into every unit with lower
	// priority than the unit's own on-demand imports.
	StandardPackages []string
}

// Scope is the import scope of one compilation unit. It is written only
// while Resolve runs and read-only afterwards.
type Scope struct {
	unit     *ast.CompilationUnit
	table    *symbols.Table
	pkg      string
	single   map[string]*ast.TypeDecl
	onDemand []string // user on-demand packages, declaration order
	standard []string
}

// Resolve builds the scope for unit. Import errors are returned as
// diagnostics; the scope is usable for the imports that did resolve.
func Resolve(unit *ast.CompilationUnit, table *symbols.Table, opts Options) (*Scope, diag.List) {
	s := &Scope{
		unit:   unit,
		table:  table,
		pkg:    unit.PackageName(),
		single: make(map[string]*ast.TypeDecl),
	}

	seen := make(map[string]bool)
	for _, pkg := range opts.StandardPackages {
		pkg = strings.TrimSpace(strings.TrimSuffix(pkg, ".*"))
		if pkg == "" || seen[pkg] {
			continue
		}
		seen[pkg] = true
		s.standard = append(s.standard, pkg)
	}

	var diags diag.List
	singleLocs := make(map[string]ast.Location)
	for _, imp := range unit.Imports {
		if imp == nil || imp.Path == nil {
			continue
		}
		switch imp.Kind {
		case ast.ImportOnDemand:
			prefix := imp.Path.String()
			imp.Path.Bind(ast.Binding{Kind: ast.BindPackage, Package: prefix})
			if !containsString(s.onDemand, prefix) {
				s.onDemand = append(s.onDemand, prefix)
			}
		case ast.ImportSingleType:
			s.addSingle(imp, singleLocs, &diags)
		}
	}
	return s, diags
}

func (s *Scope) addSingle(imp *ast.Import, locs map[string]ast.Location, diags *diag.List) {
	qname := imp.Path.String()
	decl, ok := s.table.Lookup(qname)
	if !ok {
		if s.table.IsPackage(qname) {
			diags.Add(diag.KindUnresolvedImport, imp.Loc, "import %s names a package, not a type", qname)
		} else {
			diags.Add(diag.KindUnresolvedImport, imp.Loc, "cannot resolve import %s", qname)
		}
		return
	}
	imp.Path.Bind(ast.Binding{Kind: ast.BindType, Type: decl})

	simple := decl.Name
	if own := s.unit.Type; own != nil && own.Name == simple && own != decl {
		diags.AddRelated(diag.KindConflictingImport, imp.Loc, []ast.Location{own.Loc},
			"import %s conflicts with type %s declared in this file", qname, own.QualifiedName())
		return
	}
	if prev, exists := s.single[simple]; exists {
		if prev != decl {
			diags.AddRelated(diag.KindConflictingImport, imp.Loc, []ast.Location{locs[simple]},
				"import %s conflicts with import %s", qname, prev.QualifiedName())
		}
		return
	}
	s.single[simple] = decl
	locs[simple] = imp.Loc
}

func (s *Scope) Unit() *ast.CompilationUnit { return s.unit }

func (s *Scope) Package() string { return s.pkg }

func (s *Scope) Table() *symbols.Table { return s.table }

// LookupType resolves a simple type name: the unit's own type, then
// single-type imports, then the unit's package, then on-demand imports.
func (s *Scope) LookupType(simple string) (*ast.TypeDecl, error) {
	if own := s.unit.Type; own != nil && own.Name == simple {
		return own, nil
	}
	if decl, ok := s.single[simple]; ok {
		return decl, nil
	}
	if decl, ok := s.table.PackageMember(s.pkg, simple); ok {
		return decl, nil
	}
	decl, err := s.lookupOnDemand(s.onDemand, simple)
	if err != ErrNotFound {
		return decl, err
	}
	return s.lookupOnDemand(s.standard, simple)
}

func (s *Scope) lookupOnDemand(packages []string, simple string) (*ast.TypeDecl, error) {
	var found *ast.TypeDecl
	var candidates []string
	for _, pkg := range packages {
		decl, ok := s.table.PackageMember(pkg, simple)
		if !ok {
			continue
		}
		if found != nil && found != decl {
			candidates = append(candidates, decl.QualifiedName())
			continue
		}
		if found == nil {
			found = decl
			candidates = append(candidates, decl.QualifiedName())
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	if len(candidates) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(candidates, ", "))
	}
	return found, nil
}

// ResolveTypeName resolves a name used in a type position. Qualified names
// bypass the scope and are looked up in the table directly.
func (s *Scope) ResolveTypeName(name *ast.Name) (*ast.TypeDecl, error) {
	if name.IsSimple() {
		return s.LookupType(name.Parts[0])
	}
	if decl, ok := s.table.Lookup(name.String()); ok {
		return decl, nil
	}
	return nil, ErrNotFound
}

// BindTypeName resolves and binds a type-position name, returning a
// diagnostic-ready message on failure. Already bound names are left alone.
func (s *Scope) BindTypeName(name *ast.Name) (*ast.TypeDecl, error) {
	if b := name.Binding(); b != nil {
		if b.Kind == ast.BindType {
			return b.Type, nil
		}
		return nil, ErrNotFound
	}
	decl, err := s.ResolveTypeName(name)
	if err != nil {
		return nil, err
	}
	name.Bind(ast.Binding{Kind: ast.BindType, Type: decl})
	return decl, nil
}

// TypeNameMessage renders a lookup failure for an UnresolvedName diagnostic.
func TypeNameMessage(name *ast.Name, err error) string {
	if errors.Is(err, ErrAmbiguous) {
		return fmt.Sprintf("type name %s is ambiguous (%v)", name, err)
	}
	return fmt.Sprintf("cannot resolve type %s", name)
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
