// Package asttest builds syntax trees for tests of the resolution phases
// without going through the parser.
package asttest

import (
	"joosc/internal/engine/ast"
	"strings"
)

var primitives = map[string]bool{
	"byte": true, "short": true, "char": true, "int": true, "boolean": true,
}

// Builder assembles one compilation unit. Every node gets its own line so
// diagnostics sort in creation order.
type Builder struct {
	Unit *ast.CompilationUnit
	line int
}

func NewUnit(path, pkg string) *Builder {
	b := &Builder{Unit: &ast.CompilationUnit{Path: path}}
	b.Unit.Loc = b.Loc()
	if pkg != "" {
		b.Unit.Package = ast.ParseName(b.Loc(), pkg)
	}
	return b
}

// Loc returns the next unused location in the unit.
func (b *Builder) Loc() ast.Location {
	b.line++
	return ast.Location{File: b.Unit.Path, Line: b.line, Column: 1}
}

func (b *Builder) Import(qname string) *ast.Import {
	imp := &ast.Import{Kind: ast.ImportSingleType, Path: ast.ParseName(b.Loc(), qname)}
	imp.Loc = imp.Path.Loc
	b.Unit.Imports = append(b.Unit.Imports, imp)
	return imp
}

func (b *Builder) ImportAll(pkg string) *ast.Import {
	imp := &ast.Import{Kind: ast.ImportOnDemand, Path: ast.ParseName(b.Loc(), pkg)}
	imp.Loc = imp.Path.Loc
	b.Unit.Imports = append(b.Unit.Imports, imp)
	return imp
}

func (b *Builder) Class(name string, mods ...ast.Modifiers) *TypeBuilder {
	return b.declare(ast.KindClass, name, mods)
}

func (b *Builder) Interface(name string, mods ...ast.Modifiers) *TypeBuilder {
	return b.declare(ast.KindInterface, name, mods)
}

func (b *Builder) declare(kind ast.TypeKind, name string, mods []ast.Modifiers) *TypeBuilder {
	decl := &ast.TypeDecl{Kind: kind, Name: name, Unit: b.Unit, Loc: b.Loc(), Modifiers: ast.ModPublic}
	for _, m := range mods {
		decl.Modifiers |= m
	}
	b.Unit.Type = decl
	return &TypeBuilder{b: b, Decl: decl}
}

// Type parses a type spelling such as "int", "a.b.C" or "String[]". "void"
// yields nil.
func (b *Builder) Type(spec string) *ast.TypeRef {
	spec = strings.TrimSpace(spec)
	if spec == "void" || spec == "" {
		return nil
	}
	ref := &ast.TypeRef{Loc: b.Loc()}
	for strings.HasSuffix(spec, "[]") {
		ref.Dims++
		spec = strings.TrimSuffix(spec, "[]")
	}
	if primitives[spec] {
		ref.Primitive = spec
	} else {
		ref.Name = ast.ParseName(ref.Loc, spec)
	}
	return ref
}

// Param parses "Type name".
func (b *Builder) Param(decl string) *ast.LocalVar {
	idx := strings.LastIndex(decl, " ")
	return &ast.LocalVar{Type: b.Type(decl[:idx]), Name: decl[idx+1:], Param: true, Loc: b.Loc()}
}

func (b *Builder) Name(dotted string) *ast.NameExpr {
	return &ast.NameExpr{Name: ast.ParseName(b.Loc(), dotted)}
}

func (b *Builder) Int(value string) *ast.Literal {
	return &ast.Literal{Kind: ast.LitInt, Value: value, Loc: b.Loc()}
}

func (b *Builder) This() *ast.ThisExpr { return &ast.ThisExpr{Loc: b.Loc()} }

func (b *Builder) New(typ string, args ...ast.Expr) *ast.NewExpr {
	return &ast.NewExpr{Type: b.Type(typ), Args: args, Loc: b.Loc()}
}

// Call builds target.method(args); a nil target is an unqualified call.
func (b *Builder) Call(target ast.Expr, method string, args ...ast.Expr) *ast.CallExpr {
	loc := b.Loc()
	return &ast.CallExpr{Target: target, Method: ast.NewName(loc, method), Args: args, Loc: loc}
}

func (b *Builder) Field(x ast.Expr, name string) *ast.FieldAccess {
	loc := b.Loc()
	return &ast.FieldAccess{X: x, Field: ast.NewName(loc, name), Loc: loc}
}

func (b *Builder) Assign(l, r ast.Expr) *ast.AssignExpr {
	return &ast.AssignExpr{L: l, R: r, Loc: b.Loc()}
}

func (b *Builder) Local(decl string, init ast.Expr) *ast.LocalVarStmt {
	v := b.Param(decl)
	v.Param = false
	return &ast.LocalVarStmt{Var: v, Init: init, Loc: v.Loc}
}

func (b *Builder) Expr(x ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{X: x, Loc: b.Loc()}
}

func (b *Builder) Return(x ast.Expr) *ast.ReturnStmt {
	return &ast.ReturnStmt{X: x, Loc: b.Loc()}
}

func (b *Builder) Block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Stmts: stmts, Loc: b.Loc()}
}

func (b *Builder) Super(args ...ast.Expr) *ast.ExplicitCtorCall {
	return &ast.ExplicitCtorCall{Super: true, Args: args, Loc: b.Loc()}
}

// TypeBuilder adds members to the unit's type declaration.
type TypeBuilder struct {
	b    *Builder
	Decl *ast.TypeDecl
}

func (t *TypeBuilder) Extends(names ...string) *TypeBuilder {
	for _, n := range names {
		t.Decl.Extends = append(t.Decl.Extends, t.b.Type(n))
	}
	return t
}

func (t *TypeBuilder) Implements(names ...string) *TypeBuilder {
	for _, n := range names {
		t.Decl.Implements = append(t.Decl.Implements, t.b.Type(n))
	}
	return t
}

func (t *TypeBuilder) Field(typ, name string, init ast.Expr, mods ...ast.Modifiers) *ast.FieldDecl {
	f := &ast.FieldDecl{Type: t.b.Type(typ), Name: name, Init: init, Owner: t.Decl, Loc: t.b.Loc()}
	for _, m := range mods {
		f.Modifiers |= m
	}
	t.Decl.Fields = append(t.Decl.Fields, f)
	return f
}

// Method declares a method with an empty body (no body on interfaces).
// Params use the "Type name" spelling.
func (t *TypeBuilder) Method(result, name string, params ...string) *ast.MethodDecl {
	m := &ast.MethodDecl{Result: t.b.Type(result), Name: name, Owner: t.Decl, Loc: t.b.Loc(), Modifiers: ast.ModPublic}
	for _, p := range params {
		m.Params = append(m.Params, t.b.Param(p))
	}
	if t.Decl.IsInterface() {
		m.Modifiers |= ast.ModAbstract
	} else {
		m.Body = &ast.Block{Loc: t.b.Loc()}
	}
	t.Decl.Methods = append(t.Decl.Methods, m)
	return m
}

func (t *TypeBuilder) Ctor(params ...string) *ast.ConstructorDecl {
	c := &ast.ConstructorDecl{Name: t.Decl.Name, Owner: t.Decl, Loc: t.b.Loc(), Modifiers: ast.ModPublic}
	for _, p := range params {
		c.Params = append(c.Params, t.b.Param(p))
	}
	c.Body = &ast.Block{Loc: t.b.Loc()}
	t.Decl.Constructors = append(t.Decl.Constructors, c)
	return c
}
