// Package ast holds the parsed form of Joos compilation units that the
// resolution phases annotate in place.
package ast

import (
	"fmt"
	"strings"
)

type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Before orders locations by file, then line, then column.
func (l Location) Before(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// CompilationUnit is one source file: an optional package, its imports and
// exactly one top-level type.
type CompilationUnit struct {
	Path    string
	Package *Name // nil for the default package
	Imports []*Import
	Type    *TypeDecl
	Loc     Location
}

// PackageName returns the dotted package path, "" for the default package.
func (u *CompilationUnit) PackageName() string {
	if u == nil || u.Package == nil {
		return ""
	}
	return u.Package.String()
}

type ImportKind int

const (
	ImportSingleType ImportKind = iota
	ImportOnDemand
)

func (k ImportKind) String() string {
	if k == ImportOnDemand {
		return "on-demand"
	}
	return "single-type"
}

// Import is either SingleType{qualifiedName} or OnDemand{packagePrefix};
// Path carries the qualified name or the package prefix respectively.
type Import struct {
	Kind ImportKind
	Path *Name
	Loc  Location
}

// SimpleName is the last segment of a single-type import.
func (i *Import) SimpleName() string {
	if i == nil || i.Path == nil {
		return ""
	}
	return i.Path.Last()
}

type TypeKind int

const (
	KindClass TypeKind = iota
	KindInterface
)

func (k TypeKind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "class"
}

// Modifiers is the Joos modifier set. Joos has no private members.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModStatic
	ModFinal
	ModAbstract
	ModNative
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModAbstract, "abstract"},
	{ModNative, "native"},
}

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

func (m Modifiers) String() string {
	parts := make([]string, 0, 3)
	for _, entry := range modifierNames {
		if m.Has(entry.mod) {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifier maps a source keyword to its flag; unknown keywords map to 0.
func ParseModifier(keyword string) Modifiers {
	for _, entry := range modifierNames {
		if entry.name == keyword {
			return entry.mod
		}
	}
	return 0
}

// TypeDecl is a class or interface declaration. Unit is a back-reference to
// the enclosing compilation unit, not an ownership edge.
type TypeDecl struct {
	Kind         TypeKind
	Name         string
	Modifiers    Modifiers
	Extends      []*TypeRef
	Implements   []*TypeRef
	Fields       []*FieldDecl
	Methods      []*MethodDecl
	Constructors []*ConstructorDecl
	Unit         *CompilationUnit
	Loc          Location

	// Synthetic marks the implicit root type created when no declaration
	// of the configured root exists.
	Synthetic bool
	qualified string
}

// QualifiedName returns package + "." + simple name (or just the simple name
// in the default package).
func (t *TypeDecl) QualifiedName() string {
	if t == nil {
		return ""
	}
	if t.qualified != "" {
		return t.qualified
	}
	pkg := t.Unit.PackageName()
	if pkg == "" {
		return t.Name
	}
	return pkg + "." + t.Name
}

// SetQualifiedName overrides the computed name; used for synthetic types that
// have no compilation unit.
func (t *TypeDecl) SetQualifiedName(name string) { t.qualified = name }

func (t *TypeDecl) IsInterface() bool { return t != nil && t.Kind == KindInterface }

func (t *TypeDecl) String() string { return t.QualifiedName() }

type FieldDecl struct {
	Modifiers Modifiers
	Type      *TypeRef
	Name      string
	Init      Expr
	Owner     *TypeDecl
	Loc       Location
}

type MethodDecl struct {
	Modifiers Modifiers
	Result    *TypeRef // nil for void
	Name      string
	Params    []*LocalVar
	Body      *Block // nil for abstract, native and interface methods
	Owner     *TypeDecl
	Loc       Location
}

func (m *MethodDecl) Arity() int { return len(m.Params) }

type ConstructorDecl struct {
	Modifiers Modifiers
	Name      string
	Params    []*LocalVar
	Body      *Block
	Owner     *TypeDecl
	Loc       Location
}

func (c *ConstructorDecl) Arity() int { return len(c.Params) }

// LocalVar is a local variable or parameter slot. Slot numbers are assigned
// per method body by the resolver, parameters first.
type LocalVar struct {
	Name  string
	Type  *TypeRef
	Param bool
	Slot  int
	Loc   Location
}

// TypeRef is a use of a type: either a primitive keyword or a (possibly
// qualified) name, with Dims array dimensions.
type TypeRef struct {
	Primitive string
	Name      *Name
	Dims      int
	Loc       Location
}

func (r *TypeRef) IsPrimitive() bool { return r != nil && r.Name == nil }

// Decl returns the bound type declaration, if resolution succeeded.
func (r *TypeRef) Decl() *TypeDecl {
	if r == nil || r.Name == nil {
		return nil
	}
	b := r.Name.Binding()
	if b == nil || b.Kind != BindType {
		return nil
	}
	return b.Type
}

func (r *TypeRef) String() string {
	if r == nil {
		return "void"
	}
	base := r.Primitive
	if r.Name != nil {
		base = r.Name.String()
	}
	return base + strings.Repeat("[]", r.Dims)
}

// Name is a name-reference node: a simple (`A`) or qualified (`a.b.C`)
// name. Its binding slot is written at most once.
type Name struct {
	Parts []string
	Loc   Location

	binding *Binding
}

func NewName(loc Location, parts ...string) *Name {
	return &Name{Parts: parts, Loc: loc}
}

// ParseName splits a dotted path into a Name node.
func ParseName(loc Location, dotted string) *Name {
	return NewName(loc, strings.Split(dotted, ".")...)
}

func (n *Name) IsSimple() bool { return len(n.Parts) == 1 }

func (n *Name) Last() string {
	if len(n.Parts) == 0 {
		return ""
	}
	return n.Parts[len(n.Parts)-1]
}

func (n *Name) String() string { return strings.Join(n.Parts, ".") }

func (n *Name) Binding() *Binding { return n.binding }

func (n *Name) IsBound() bool { return n.binding != nil }

// Bind sets the binding. It reports false, leaving the existing binding in
// place, when the node was already bound.
func (n *Name) Bind(b Binding) bool {
	if n.binding != nil {
		return false
	}
	n.binding = &b
	return true
}
