package ast

import (
	"fmt"
	"strings"
)

type BindingKind int

const (
	BindType BindingKind = iota + 1
	BindPackage
	BindField
	BindMethods
	BindConstructors
	BindLocal
	BindArrayLength
	// BindDeferred marks a member name whose receiver type is only known
	// after type-checking.
	BindDeferred
)

var bindingKindNames = map[BindingKind]string{
	BindType:         "type",
	BindPackage:      "package",
	BindField:        "field",
	BindMethods:      "methods",
	BindConstructors: "constructors",
	BindLocal:        "local",
	BindArrayLength:  "array-length",
	BindDeferred:     "deferred",
}

func (k BindingKind) String() string {
	if name, ok := bindingKindNames[k]; ok {
		return name
	}
	return "unbound"
}

// Binding is the resolved-declaration annotation of a name-reference node.
type Binding struct {
	Kind         BindingKind
	Type         *TypeDecl
	Package      string
	Field        *FieldDecl
	Methods      []*MethodDecl
	Constructors []*ConstructorDecl
	Local        *LocalVar
}

// Target renders the bound declaration for reports and indexes.
func (b *Binding) Target() string {
	if b == nil {
		return ""
	}
	switch b.Kind {
	case BindType:
		return b.Type.QualifiedName()
	case BindPackage:
		return b.Package
	case BindField:
		return b.Field.Owner.QualifiedName() + "." + b.Field.Name
	case BindMethods:
		sigs := make([]string, 0, len(b.Methods))
		for _, m := range b.Methods {
			sigs = append(sigs, fmt.Sprintf("%s.%s/%d", m.Owner.QualifiedName(), m.Name, m.Arity()))
		}
		return strings.Join(sigs, ",")
	case BindConstructors:
		sigs := make([]string, 0, len(b.Constructors))
		for _, c := range b.Constructors {
			sigs = append(sigs, fmt.Sprintf("%s/%d", c.Owner.QualifiedName(), c.Arity()))
		}
		return strings.Join(sigs, ",")
	case BindLocal:
		return fmt.Sprintf("%s#%d", b.Local.Name, b.Local.Slot)
	case BindArrayLength:
		return "length"
	}
	return ""
}

// Slot is an embeddable write-once binding holder for nodes that resolve to
// a candidate set rather than through a Name (object creation, explicit
// constructor calls).
type Slot struct {
	binding *Binding
}

func (s *Slot) Binding() *Binding { return s.binding }

func (s *Slot) IsBound() bool { return s.binding != nil }

func (s *Slot) Bind(b Binding) bool {
	if s.binding != nil {
		return false
	}
	s.binding = &b
	return true
}
