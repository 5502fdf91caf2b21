package resolver

import (
	"context"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/ast/asttest"
	"joosc/internal/engine/diag"
	"joosc/internal/engine/hierarchy"
	"joosc/internal/engine/imports"
	"joosc/internal/engine/members"
	"joosc/internal/engine/symbols"
	"strings"
	"testing"
)

func setup(t *testing.T, builders ...*asttest.Builder) (*Resolver, []*ast.CompilationUnit) {
	t.Helper()
	ctx := context.Background()
	units := make([]*ast.CompilationUnit, len(builders))
	for i, b := range builders {
		units[i] = b.Unit
	}
	table, err := symbols.Collect(units, symbols.Options{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	scopes, diags := imports.ResolveAll(ctx, units, table, imports.Options{StandardPackages: []string{"java.lang"}}, 2)
	if len(diags) > 0 {
		t.Fatalf("imports: %v", diags)
	}
	g, diags := hierarchy.Build(table, scopes)
	if len(diags) > 0 {
		t.Fatalf("hierarchy: %v", diags)
	}
	col := members.NewCollector(g, scopes)
	if diags := col.CollectAll(ctx, 2); len(diags) > 0 {
		t.Fatalf("members: %v", diags)
	}
	return New(table, g, col, scopes), units
}

// stdlib declares the handful of java.lang and java.io types the fixtures
// use.
func stdlib() []*asttest.Builder {
	obj := asttest.NewUnit("java/lang/Object.java", "java.lang")
	ot := obj.Class("Object")
	ot.Ctor()
	ot.Method("String", "toString")

	str := asttest.NewUnit("java/lang/String.java", "java.lang")
	str.Class("String", ast.ModFinal).Method("int", "length")

	ps := asttest.NewUnit("java/io/PrintStream.java", "java.io")
	pt := ps.Class("PrintStream")
	pt.Method("void", "println", "String s")
	pt.Method("void", "println", "int i")

	sys := asttest.NewUnit("java/lang/System.java", "java.lang")
	sys.Import("java.io.PrintStream")
	sys.Class("System", ast.ModFinal).Field("PrintStream", "out", nil, ast.ModStatic)

	return []*asttest.Builder{obj, str, ps, sys}
}

func printCall(b *asttest.Builder, text string) *ast.CallExpr {
	return b.Call(b.Name("System.out"), "println", &ast.Literal{Kind: ast.LitString, Value: text, Loc: b.Loc()})
}

func TestResolve_SingleTypeImportAndQualifiedName(t *testing.T) {
	m := asttest.NewUnit("Main.java", "")
	m.Import("org.joosc.test.A")
	mt := m.Class("Main")
	mt.Ctor()
	main := mt.Method("void", "main", "String[] args")
	main.Modifiers |= ast.ModStatic
	localA := m.Local("A a", m.New("A"))
	localB := m.Local("org.joosc.test.B b", m.New("org.joosc.test.B"))
	main.Body.Stmts = []ast.Stmt{localA, localB}

	a := asttest.NewUnit("org/joosc/test/A.java", "org.joosc.test")
	aCtor := a.Class("A").Extends("B").Ctor()
	printA := printCall(a, "A")
	aCtor.Body.Stmts = []ast.Stmt{a.Expr(printA)}

	b := asttest.NewUnit("org/joosc/test/B.java", "org.joosc.test")
	bCtor := b.Class("B").Ctor()
	bCtor.Body.Stmts = []ast.Stmt{b.Expr(printCall(b, "B"))}

	r, units := setup(t, append([]*asttest.Builder{m, a, b}, stdlib()...)...)
	if diags := r.ResolveAll(context.Background(), units, 4); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if localA.Var.Type.Decl() != a.Unit.Type {
		t.Errorf("expected A to resolve through the single-type import")
	}
	if localB.Var.Type.Decl() != b.Unit.Type {
		t.Errorf("expected org.joosc.test.B to resolve through the table")
	}
	newA := localA.Init.(*ast.NewExpr).Binding()
	if newA == nil || newA.Kind != ast.BindConstructors || len(newA.Constructors) != 1 || newA.Constructors[0] != aCtor {
		t.Errorf("expected new A() bound to A's constructor, got %+v", newA)
	}
	newB := localB.Init.(*ast.NewExpr).Binding()
	if newB == nil || len(newB.Constructors) != 1 || newB.Constructors[0] != bCtor {
		t.Errorf("expected new org.joosc.test.B() bound to B's constructor, got %+v", newB)
	}

	out := printA.Target.(*ast.NameExpr).Name.Binding()
	if out == nil || out.Kind != ast.BindField || out.Field.Name != "out" {
		t.Fatalf("expected System.out bound to a field, got %+v", out)
	}
	call := printA.Method.Binding()
	if call == nil || call.Kind != ast.BindMethods || len(call.Methods) != 2 {
		t.Fatalf("expected both unary println overloads, got %+v", call)
	}
	if localA.Var.Slot != 1 || localB.Var.Slot != 2 {
		t.Errorf("expected locals after args in slots 1 and 2, got %d and %d", localA.Var.Slot, localB.Var.Slot)
	}
}

func TestResolve_UnresolvedNameKeepsGoing(t *testing.T) {
	u := asttest.NewUnit("C.java", "")
	ct := u.Class("C")
	ct.Field("int", "y", nil)
	m := ct.Method("void", "run")
	missing := u.Name("x")
	y := u.Name("y")
	m.Body.Stmts = []ast.Stmt{
		u.Expr(u.Assign(missing, u.Int("1"))),
		u.Expr(u.Assign(y, u.Int("2"))),
	}

	r, units := setup(t, append([]*asttest.Builder{u}, stdlib()...)...)
	diags := r.ResolveAll(context.Background(), units, 1)
	if len(diags) != 1 || diags[0].Kind != diag.KindUnresolvedName {
		t.Fatalf("expected exactly one unresolved name, got %v", diags)
	}
	if diags[0].Primary != missing.Name.Loc {
		t.Errorf("expected the error at x, got %s", diags[0].Primary)
	}
	if b := y.Name.Binding(); b == nil || b.Kind != ast.BindField {
		t.Errorf("expected y to resolve to the field after the failure")
	}
}

func TestResolve_Shadowing(t *testing.T) {
	u := asttest.NewUnit("C.java", "")
	ct := u.Class("C")
	field := ct.Field("int", "x", nil)
	m := ct.Method("int", "run", "int x")
	inner := u.Local("int x", u.Int("3"))
	inBlock := u.Name("x")
	afterBlock := u.Name("x")
	thisX := u.Field(u.This(), "x")
	m.Body.Stmts = []ast.Stmt{
		u.Block(inner, u.Expr(inBlock)),
		u.Expr(afterBlock),
		u.Return(thisX),
	}

	r, units := setup(t, append([]*asttest.Builder{u}, stdlib()...)...)
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if b := inBlock.Name.Binding(); b.Kind != ast.BindLocal || b.Local != inner.Var {
		t.Errorf("expected the block local to hide the parameter")
	}
	if b := afterBlock.Name.Binding(); b.Kind != ast.BindLocal || b.Local != m.Params[0] {
		t.Errorf("expected the parameter after the block is closed")
	}
	if b := thisX.Field.Binding(); b.Kind != ast.BindField || b.Field != field {
		t.Errorf("expected this.x to reach the field")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	u := asttest.NewUnit("C.java", "")
	ct := u.Class("C")
	ct.Field("int[]", "xs", nil)
	m := ct.Method("int", "size")
	length := u.Name("xs.length")
	m.Body.Stmts = []ast.Stmt{u.Return(length)}

	r, units := setup(t, append([]*asttest.Builder{u}, stdlib()...)...)
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	first := length.Name.Binding()
	if first == nil || first.Kind != ast.BindArrayLength {
		t.Fatalf("expected array length binding, got %+v", first)
	}
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("second run reported %v", diags)
	}
	if length.Name.Binding() != first {
		t.Error("expected the binding to be left untouched by a second run")
	}
}

func TestResolve_ConstructorCalls(t *testing.T) {
	b := asttest.NewUnit("B.java", "")
	bt := b.Class("B")
	bt.Ctor()
	bOne := bt.Ctor("int x")

	a := asttest.NewUnit("A.java", "")
	at := a.Class("A").Extends("B")
	aZero := at.Ctor()
	aOne := at.Ctor("int x")
	superCall := a.Super(a.Name("x"))
	aOne.Body.Stmts = []ast.Stmt{superCall}
	thisCall := &ast.ExplicitCtorCall{Args: []ast.Expr{a.Int("1")}, Loc: a.Loc()}
	aZero.Body.Stmts = []ast.Stmt{thisCall}
	bad := a.New("B", a.Int("1"), a.Int("2"))
	at.Method("void", "make").Body.Stmts = []ast.Stmt{a.Expr(bad)}

	r, units := setup(t, append([]*asttest.Builder{a, b}, stdlib()...)...)
	diags := r.Resolve(units[0])
	if got := superCall.Binding(); got == nil || len(got.Constructors) != 1 || got.Constructors[0] != bOne {
		t.Errorf("expected super(x) bound to B(int), got %+v", got)
	}
	if got := thisCall.Binding(); got == nil || len(got.Constructors) != 1 || got.Constructors[0] != aOne {
		t.Errorf("expected this(1) bound to A(int), got %+v", got)
	}
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "takes 2 arguments") {
		t.Errorf("expected one arity failure for new B(1, 2), got %v", diags)
	}
}

func TestResolve_DeferredReceiver(t *testing.T) {
	u := asttest.NewUnit("C.java", "")
	ct := u.Class("C")
	ct.Method("int", "count")
	m := ct.Method("void", "run")
	call := u.Call(u.Call(nil, "count"), "foo")
	m.Body.Stmts = []ast.Stmt{u.Expr(call)}

	r, units := setup(t, append([]*asttest.Builder{u}, stdlib()...)...)
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if b := call.Method.Binding(); b == nil || b.Kind != ast.BindDeferred {
		t.Errorf("expected a deferred binding on a primitive receiver, got %+v", b)
	}
	inner := call.Target.(*ast.CallExpr).Method.Binding()
	if inner == nil || inner.Kind != ast.BindMethods {
		t.Errorf("expected count() to bind to its method set")
	}
}

func TestResolve_InheritedFieldAndStaticAccess(t *testing.T) {
	b := asttest.NewUnit("p/B.java", "p")
	bt := b.Class("B")
	inherited := bt.Field("int", "n", nil)
	constant := bt.Field("int", "MAX", nil, ast.ModStatic)

	a := asttest.NewUnit("p/A.java", "p")
	m := a.Class("A").Extends("B").Method("int", "get")
	viaField := a.Name("n")
	viaType := a.Name("B.MAX")
	viaPackage := a.Name("p.B.MAX")
	m.Body.Stmts = []ast.Stmt{
		a.Expr(viaField),
		a.Expr(viaType),
		a.Return(viaPackage),
	}

	r, units := setup(t, append([]*asttest.Builder{a, b}, stdlib()...)...)
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := viaField.Name.Binding(); got.Field != inherited {
		t.Errorf("expected n to resolve to the inherited field")
	}
	for _, n := range []*ast.NameExpr{viaType, viaPackage} {
		if got := n.Name.Binding(); got == nil || got.Field != constant {
			t.Errorf("expected %s to resolve to B.MAX, got %+v", n.Name, got)
		}
	}
}

func TestResolve_AmbiguousOnDemand(t *testing.T) {
	p := asttest.NewUnit("p/T.java", "p")
	p.Class("T")
	q := asttest.NewUnit("q/T.java", "q")
	q.Class("T")

	u := asttest.NewUnit("C.java", "")
	u.ImportAll("p")
	u.ImportAll("q")
	m := u.Class("C").Method("void", "run")
	local := u.Local("T t", nil)
	m.Body.Stmts = []ast.Stmt{local}

	r, units := setup(t, append([]*asttest.Builder{u, p, q}, stdlib()...)...)
	diags := r.Resolve(units[0])
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "ambiguous") {
		t.Fatalf("expected an ambiguity error, got %v", diags)
	}
	if local.Var.Type.Name.IsBound() {
		t.Error("expected the ambiguous type to stay unbound")
	}
}

func TestScopeStack_PushPop(t *testing.T) {
	var s ScopeStack
	s.PushClass(nil)
	s.PushMethod()
	p := &ast.LocalVar{Name: "a", Param: true}
	s.Declare(p)
	s.PushBlock()
	l := &ast.LocalVar{Name: "a"}
	s.Declare(l)
	if got, _ := s.LookupLocal("a"); got != l {
		t.Fatal("expected the innermost declaration")
	}
	s.Pop()
	if got, _ := s.LookupLocal("a"); got != p {
		t.Fatal("expected the parameter once the block is popped")
	}
	if p.Slot != 0 || l.Slot != 1 {
		t.Errorf("expected slots 0 and 1, got %d and %d", p.Slot, l.Slot)
	}
	s.Pop()
	s.Pop()
	if s.Depth() != 0 {
		t.Errorf("expected an empty stack, got depth %d", s.Depth())
	}
}

func TestResolve_QualifiedNamePrefersType(t *testing.T) {
	k := asttest.NewUnit("K.java", "")
	static := k.Class("K").Field("int", "v", nil, ast.ModStatic)

	u := asttest.NewUnit("C.java", "")
	ct := u.Class("C")
	count := ct.Field("int", "count", nil)
	m := ct.Method("int", "run")
	local := u.Local("int[] K", nil)
	viaType := u.Name("K.v")
	viaLocal := u.Name("K.length")
	other := u.Name("count")
	m.Body.Stmts = []ast.Stmt{
		local,
		u.Expr(viaLocal),
		u.Expr(other),
		u.Return(viaType),
	}

	r, units := setup(t, append([]*asttest.Builder{u, k}, stdlib()...)...)
	if diags := r.Resolve(units[0]); len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if b := viaType.Name.Binding(); b == nil || b.Kind != ast.BindField || b.Field != static {
		t.Errorf("expected K.v to resolve to the static field, got %+v", b)
	}
	if b := viaLocal.Name.Binding(); b == nil || b.Kind != ast.BindArrayLength {
		t.Errorf("expected K.length to fall back to the local, got %+v", b)
	}
	if b := other.Name.Binding(); b == nil || b.Field != count {
		t.Errorf("expected count to resolve to the field")
	}
}

func TestResolve_QualifiedNameReportsFirstReading(t *testing.T) {
	k := asttest.NewUnit("K.java", "")
	k.Class("K").Field("int", "v", nil, ast.ModStatic)

	u := asttest.NewUnit("C.java", "")
	m := u.Class("C").Method("int", "run")
	missing := u.Name("K.w")
	m.Body.Stmts = []ast.Stmt{u.Return(missing)}

	r, units := setup(t, append([]*asttest.Builder{u, k}, stdlib()...)...)
	diags := r.Resolve(units[0])
	if len(diags) != 1 || diags[0].Message != "cannot resolve w in K" {
		t.Fatalf("expected one error naming w in K, got %v", diags)
	}
	if missing.Name.IsBound() {
		t.Error("expected K.w to stay unbound")
	}
}
