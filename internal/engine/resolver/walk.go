package resolver

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/imports"
)

func (w *walker) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:
	case *ast.Block:
		if s == nil {
			return
		}
		w.stack.PushBlock()
		for _, inner := range s.Stmts {
			w.stmt(inner)
		}
		w.stack.Pop()
	case *ast.LocalVarStmt:
		w.typeRef(s.Var.Type)
		w.expr(s.Init)
		w.stack.Declare(s.Var)
	case *ast.ExprStmt:
		w.expr(s.X)
	case *ast.ReturnStmt:
		w.expr(s.X)
	case *ast.IfStmt:
		w.expr(s.Cond)
		w.stmt(s.Then)
		w.stmt(s.Else)
	case *ast.WhileStmt:
		w.expr(s.Cond)
		w.stmt(s.Body)
	case *ast.ForStmt:
		w.stack.PushBlock()
		w.stmt(s.Init)
		w.expr(s.Cond)
		for _, u := range s.Update {
			w.expr(u)
		}
		w.stmt(s.Body)
		w.stack.Pop()
	case *ast.ExplicitCtorCall:
		w.ctorCall(s)
	}
}

// typeRef binds a type used inside a body (locals, casts, instanceof,
// creation expressions).
func (w *walker) typeRef(ref *ast.TypeRef) *ast.TypeDecl {
	if ref == nil || ref.Name == nil {
		return nil
	}
	decl, err := w.scope.BindTypeName(ref.Name)
	if err != nil {
		w.diags.Add(diag.KindUnresolvedName, ref.Loc, "%s", imports.TypeNameMessage(ref.Name, err))
		return nil
	}
	return decl
}

func (w *walker) ctorCall(s *ast.ExplicitCtorCall) {
	for _, a := range s.Args {
		w.expr(a)
	}
	if s.IsBound() {
		return
	}
	arity := len(s.Args)
	if s.Super {
		ctors := w.table.SuperConstructorsByArity(arity)
		if len(ctors) == 0 {
			w.diags.Add(diag.KindUnresolvedName, s.Loc,
				"no superclass constructor of %s takes %d arguments", w.self.QualifiedName(), arity)
			return
		}
		s.Bind(ast.Binding{Kind: ast.BindConstructors, Constructors: ctors})
		return
	}
	ctors := w.table.ConstructorsByArity(arity)
	if len(ctors) == 0 {
		w.diags.Add(diag.KindUnresolvedName, s.Loc,
			"no constructor of %s takes %d arguments", w.self.QualifiedName(), arity)
		return
	}
	s.Bind(ast.Binding{Kind: ast.BindConstructors, Constructors: ctors})
}

// expr resolves e and returns its shallow static value.
func (w *walker) expr(e ast.Expr) value {
	switch e := e.(type) {
	case nil:
		return unknown()
	case *ast.NameExpr:
		return w.name(e.Name)
	case *ast.Literal:
		return w.literal(e)
	case *ast.ThisExpr:
		return value{kind: valExpr, decl: w.self}
	case *ast.ParenExpr:
		return w.expr(e.X)
	case *ast.NewExpr:
		return w.newExpr(e)
	case *ast.CallExpr:
		return w.call(e)
	case *ast.FieldAccess:
		recv := w.expr(e.X)
		return w.member(recv, e.Field, e.Loc)
	case *ast.AssignExpr:
		left := w.expr(e.L)
		w.expr(e.R)
		return left
	case *ast.BinaryExpr:
		l := w.expr(e.L)
		r := w.expr(e.R)
		return w.binary(e.Op, l, r)
	case *ast.UnaryExpr:
		x := w.expr(e.X)
		if e.Op == "!" {
			return primitive("boolean")
		}
		return x
	case *ast.CastExpr:
		w.typeRef(e.Type)
		w.expr(e.X)
		return exprOf(e.Type)
	case *ast.InstanceOfExpr:
		w.expr(e.X)
		w.typeRef(e.Type)
		return primitive("boolean")
	case *ast.ArrayAccess:
		arr := w.expr(e.X)
		w.expr(e.Index)
		if arr.kind == valExpr && arr.dims > 0 {
			arr.dims--
			return arr
		}
		return unknown()
	case *ast.NewArrayExpr:
		w.typeRef(e.Type)
		w.expr(e.Size)
		v := exprOf(e.Type)
		v.dims++
		return v
	}
	return unknown()
}

func (w *walker) literal(l *ast.Literal) value {
	switch l.Kind {
	case ast.LitInt:
		return primitive("int")
	case ast.LitChar:
		return primitive("char")
	case ast.LitBool:
		return primitive("boolean")
	case ast.LitString:
		return w.stringValue()
	}
	return unknown()
}

func (w *walker) binary(op string, l, r value) value {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return primitive("boolean")
	case "&", "|":
		if l.prim == "boolean" || r.prim == "boolean" {
			return primitive("boolean")
		}
		return primitive("int")
	case "+":
		str := w.stringValue()
		if str.decl != nil && ((l.decl == str.decl && l.dims == 0) || (r.decl == str.decl && r.dims == 0)) {
			return str
		}
	}
	return primitive("int")
}

func (w *walker) newExpr(e *ast.NewExpr) value {
	decl := w.typeRef(e.Type)
	for _, a := range e.Args {
		w.expr(a)
	}
	if decl == nil {
		return unknown()
	}
	v := value{kind: valExpr, decl: decl}
	if e.IsBound() {
		return v
	}
	ctors := w.r.members.Table(decl).ConstructorsByArity(len(e.Args))
	if len(ctors) == 0 {
		w.diags.Add(diag.KindUnresolvedName, e.Loc,
			"no constructor of %s takes %d arguments", decl.QualifiedName(), len(e.Args))
		return v
	}
	e.Bind(ast.Binding{Kind: ast.BindConstructors, Constructors: ctors})
	return v
}

func (w *walker) call(e *ast.CallExpr) value {
	var recv value
	if e.Target == nil {
		recv = value{kind: valExpr, decl: w.self}
	} else {
		recv = w.expr(e.Target)
	}
	for _, a := range e.Args {
		w.expr(a)
	}
	if b := e.Method.Binding(); b != nil {
		return valueOf(b)
	}
	if recv.kind == valNone {
		return unknown()
	}
	if recv.kind == valPackage {
		w.diags.Add(diag.KindUnresolvedName, e.Method.Loc,
			"cannot call %s on package %s", e.Method, recv.pkg)
		return unknown()
	}

	table := w.tableOf(recv)
	if table == nil {
		e.Method.Bind(ast.Binding{Kind: ast.BindDeferred})
		return unknown()
	}
	name := e.Method.Last()
	candidates := table.ByArity(name, len(e.Args))
	if len(candidates) == 0 {
		if len(table.MethodsNamed(name)) == 0 {
			w.diags.Add(diag.KindUnresolvedName, e.Method.Loc,
				"cannot resolve method %s in %s", name, table.Type.QualifiedName())
		} else {
			w.diags.Add(diag.KindUnresolvedName, e.Method.Loc,
				"no method %s of %s takes %d arguments", name, table.Type.QualifiedName(), len(e.Args))
		}
		return unknown()
	}
	e.Method.Bind(ast.Binding{Kind: ast.BindMethods, Methods: candidates})
	return returnOf(candidates)
}
