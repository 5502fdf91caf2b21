// Package members flattens declared and inherited fields, methods and
// constructors into one table per type.
package members

import (
	"joosc/internal/engine/ast"
	"joosc/internal/shared/util"
	"strings"
)

// Method is one entry of a method set: the declaration that provides the
// signature for this type, declared or inherited.
type Method struct {
	Decl   *ast.MethodDecl
	Sig    string // name(T1,T2)
	Return string
}

// Table is the flattened member view of one type. It is never mutated after
// its collector slot is filled.
type Table struct {
	Type   *ast.TypeDecl
	Fields map[string]*ast.FieldDecl
	// Methods groups signatures by simple name; declared methods come
	// first, then inherited ones in supertype order.
	Methods map[string][]*Method
	// Constructors are the constructors of the type itself; Inherited are
	// those of its direct superclass, reachable through super(...).
	Constructors []*ast.ConstructorDecl
	Inherited    []*ast.ConstructorDecl

	bySig map[string]*Method
	order []string
}

func newTable(decl *ast.TypeDecl) *Table {
	return &Table{
		Type:    decl,
		Fields:  make(map[string]*ast.FieldDecl),
		Methods: make(map[string][]*Method),
		bySig:   make(map[string]*Method),
	}
}

func (t *Table) Field(name string) (*ast.FieldDecl, bool) {
	f, ok := t.Fields[name]
	return f, ok
}

// FieldNames lists visible field names in sorted order.
func (t *Table) FieldNames() []string { return util.SortedStringKeys(t.Fields) }

// Signature looks up a method by its exact signature key.
func (t *Table) Signature(sig string) (*Method, bool) {
	m, ok := t.bySig[sig]
	return m, ok
}

// Signatures lists every visible signature in table order.
func (t *Table) Signatures() []string { return append([]string(nil), t.order...) }

// MethodsNamed returns the overload set for name.
func (t *Table) MethodsNamed(name string) []*ast.MethodDecl {
	set := t.Methods[name]
	out := make([]*ast.MethodDecl, len(set))
	for i, m := range set {
		out[i] = m.Decl
	}
	return out
}

// ByArity narrows the overload set for name to methods taking arity
// arguments.
func (t *Table) ByArity(name string, arity int) []*ast.MethodDecl {
	var out []*ast.MethodDecl
	for _, m := range t.Methods[name] {
		if m.Decl.Arity() == arity {
			out = append(out, m.Decl)
		}
	}
	return out
}

// ConstructorsByArity filters the type's own constructors.
func (t *Table) ConstructorsByArity(arity int) []*ast.ConstructorDecl {
	return filterCtors(t.Constructors, arity)
}

// SuperConstructorsByArity filters the direct superclass constructors.
func (t *Table) SuperConstructorsByArity(arity int) []*ast.ConstructorDecl {
	return filterCtors(t.Inherited, arity)
}

func filterCtors(ctors []*ast.ConstructorDecl, arity int) []*ast.ConstructorDecl {
	var out []*ast.ConstructorDecl
	for _, c := range ctors {
		if c.Arity() == arity {
			out = append(out, c)
		}
	}
	return out
}

// put adds or replaces the method for m's signature, keeping first-seen
// order.
func (t *Table) put(m *Method) {
	if _, ok := t.bySig[m.Sig]; !ok {
		t.order = append(t.order, m.Sig)
	}
	t.bySig[m.Sig] = m
}

// seal groups the signatures by name.
func (t *Table) seal() {
	for _, sig := range t.order {
		m := t.bySig[sig]
		t.Methods[m.Decl.Name] = append(t.Methods[m.Decl.Name], m)
	}
}

// Signature renders name(T1,T2) using bound qualified names where the
// parameter types resolved.
func Signature(name string, params []*ast.LocalVar) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(TypeString(p.Type))
	}
	b.WriteByte(')')
	return b.String()
}

// TypeString renders a type reference with its bound qualified name.
func TypeString(ref *ast.TypeRef) string {
	if ref == nil {
		return "void"
	}
	if decl := ref.Decl(); decl != nil {
		return decl.QualifiedName() + strings.Repeat("[]", ref.Dims)
	}
	return ref.String()
}
