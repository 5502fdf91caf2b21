package ast

// Ref is one name-reference site of a unit together with its binding slot.
type Ref struct {
	Text    string
	Loc     Location
	Binding *Binding
}

// Refs lists every name-reference site of the unit in source order of
// traversal: imports, supertypes, member signatures, then bodies.
func Refs(unit *CompilationUnit) []Ref {
	c := &refCollector{}
	if unit == nil {
		return nil
	}
	for _, imp := range unit.Imports {
		c.name(imp.Path)
	}
	t := unit.Type
	if t == nil {
		return c.refs
	}
	for _, ref := range t.Extends {
		c.typeRef(ref)
	}
	for _, ref := range t.Implements {
		c.typeRef(ref)
	}
	for _, f := range t.Fields {
		c.typeRef(f.Type)
		c.expr(f.Init)
	}
	for _, ctor := range t.Constructors {
		for _, p := range ctor.Params {
			c.typeRef(p.Type)
		}
		c.stmt(ctor.Body)
	}
	for _, m := range t.Methods {
		c.typeRef(m.Result)
		for _, p := range m.Params {
			c.typeRef(p.Type)
		}
		c.stmt(m.Body)
	}
	return c.refs
}

type refCollector struct {
	refs []Ref
}

func (c *refCollector) name(n *Name) {
	if n == nil {
		return
	}
	c.refs = append(c.refs, Ref{Text: n.String(), Loc: n.Loc, Binding: n.Binding()})
}

func (c *refCollector) typeRef(r *TypeRef) {
	if r == nil {
		return
	}
	c.name(r.Name)
}

func (c *refCollector) stmt(s Stmt) {
	switch s := s.(type) {
	case nil:
	case *Block:
		if s == nil {
			return
		}
		for _, inner := range s.Stmts {
			c.stmt(inner)
		}
	case *LocalVarStmt:
		c.typeRef(s.Var.Type)
		c.expr(s.Init)
	case *ExprStmt:
		c.expr(s.X)
	case *ReturnStmt:
		c.expr(s.X)
	case *IfStmt:
		c.expr(s.Cond)
		c.stmt(s.Then)
		c.stmt(s.Else)
	case *WhileStmt:
		c.expr(s.Cond)
		c.stmt(s.Body)
	case *ForStmt:
		c.stmt(s.Init)
		c.expr(s.Cond)
		for _, u := range s.Update {
			c.expr(u)
		}
		c.stmt(s.Body)
	case *ExplicitCtorCall:
		text := "this"
		if s.Super {
			text = "super"
		}
		c.refs = append(c.refs, Ref{Text: text, Loc: s.Loc, Binding: s.Binding()})
		for _, a := range s.Args {
			c.expr(a)
		}
	}
}

func (c *refCollector) expr(e Expr) {
	switch e := e.(type) {
	case nil:
	case *NameExpr:
		c.name(e.Name)
	case *NewExpr:
		c.typeRef(e.Type)
		c.refs = append(c.refs, Ref{Text: "new " + e.Type.String(), Loc: e.Loc, Binding: e.Binding()})
		for _, a := range e.Args {
			c.expr(a)
		}
	case *CallExpr:
		c.expr(e.Target)
		c.name(e.Method)
		for _, a := range e.Args {
			c.expr(a)
		}
	case *FieldAccess:
		c.expr(e.X)
		c.name(e.Field)
	case *BinaryExpr:
		c.expr(e.L)
		c.expr(e.R)
	case *UnaryExpr:
		c.expr(e.X)
	case *AssignExpr:
		c.expr(e.L)
		c.expr(e.R)
	case *CastExpr:
		c.typeRef(e.Type)
		c.expr(e.X)
	case *InstanceOfExpr:
		c.expr(e.X)
		c.typeRef(e.Type)
	case *ArrayAccess:
		c.expr(e.X)
		c.expr(e.Index)
	case *NewArrayExpr:
		c.typeRef(e.Type)
		c.expr(e.Size)
	case *ParenExpr:
		c.expr(e.X)
	}
}
