package resolver

import (
	"joosc/internal/engine/ast"
)

type valueKind int

const (
	valNone    valueKind = iota // unresolved; errors already reported
	valExpr                     // an expression with a (possibly unknown) static type
	valType                     // a type name in expression position
	valPackage                  // a package prefix
)

// value is what a name or expression denotes, with just enough static type
// information to find member tables. Full typing is left to type-checking.
type value struct {
	kind valueKind
	decl *ast.TypeDecl // class or interface, nil for primitives and unknown types
	prim string
	dims int
	pkg  string
}

func (v value) known() bool {
	return v.kind == valExpr && (v.decl != nil || v.prim != "")
}

func exprOf(ref *ast.TypeRef) value {
	if ref == nil {
		return value{kind: valExpr}
	}
	return value{kind: valExpr, decl: ref.Decl(), prim: ref.Primitive, dims: ref.Dims}
}

func primitive(name string) value { return value{kind: valExpr, prim: name} }

func typeValue(decl *ast.TypeDecl) value { return value{kind: valType, decl: decl} }

func unknown() value { return value{kind: valExpr} }

// valueOf rebuilds the value of an already bound name so a second walk
// neither re-resolves nor overwrites it.
func valueOf(b *ast.Binding) value {
	switch b.Kind {
	case ast.BindType:
		return typeValue(b.Type)
	case ast.BindPackage:
		return value{kind: valPackage, pkg: b.Package}
	case ast.BindField:
		return exprOf(b.Field.Type)
	case ast.BindLocal:
		return exprOf(b.Local.Type)
	case ast.BindArrayLength:
		return primitive("int")
	case ast.BindMethods:
		return returnOf(b.Methods)
	}
	return unknown()
}

// returnOf is the static type of a call when every candidate agrees on it.
func returnOf(methods []*ast.MethodDecl) value {
	if len(methods) == 0 {
		return unknown()
	}
	first := exprOf(methods[0].Result)
	for _, m := range methods[1:] {
		v := exprOf(m.Result)
		if v.decl != first.decl || v.prim != first.prim || v.dims != first.dims {
			return unknown()
		}
	}
	if methods[0].Result == nil {
		return unknown()
	}
	return first
}
