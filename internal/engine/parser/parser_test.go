package parser

import (
	"context"
	stderrors "errors"
	"joosc/internal/core/errors"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/pipeline"
	"os"
	"path/filepath"
	"testing"
)

const mainSrc = `import org.joosc.test.A;

public class Main {
    public Main() {}
    public static void main(String[] args) {
        A a = new A();
        org.joosc.test.B b = new org.joosc.test.B();
    }
}
`

const aSrc = `package org.joosc.test;

public class A extends B {
    public A() {
        System.out.println("A");
    }
}
`

const bSrc = `package org.joosc.test;

public class B {
    public B() {
        System.out.println("B");
    }
}
`

var stdlibSrc = map[string]string{
	"java/lang/Object.java": `package java.lang;
public class Object {
    public Object() {}
    public String toString() { return null; }
}`,
	"java/lang/String.java": `package java.lang;
public final class String {
    public String() {}
    public int length() { return 0; }
}`,
	"java/lang/System.java": `package java.lang;
public class System {
    public System() {}
    public static java.io.PrintStream out;
}`,
	"java/io/PrintStream.java": `package java.io;
public class PrintStream {
    public PrintStream() {}
    public void println(String s) {}
    public void println(int i) {}
}`,
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(NewGrammarLoader())
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	return p
}

func mustParse(t *testing.T, p *Parser, path, src string) *ast.CompilationUnit {
	t.Helper()
	unit, err := p.ParseFile(path, []byte(src))
	if err != nil {
		t.Fatalf("ParseFile(%s) failed: %v", path, err)
	}
	return unit
}

func TestParseFile_MainUnit(t *testing.T) {
	p := newTestParser(t)
	unit := mustParse(t, p, "Main.java", mainSrc)

	if unit.Package != nil {
		t.Errorf("expected default package, got %s", unit.Package)
	}
	if len(unit.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(unit.Imports))
	}
	imp := unit.Imports[0]
	if imp.Kind != ast.ImportSingleType || imp.Path.String() != "org.joosc.test.A" {
		t.Errorf("unexpected import %s %s", imp.Kind, imp.Path)
	}

	typ := unit.Type
	if typ == nil || typ.Name != "Main" || typ.Kind != ast.KindClass {
		t.Fatalf("unexpected type %+v", typ)
	}
	if !typ.Modifiers.Has(ast.ModPublic) {
		t.Errorf("expected public class, got %q", typ.Modifiers)
	}
	if len(typ.Constructors) != 1 || len(typ.Constructors[0].Body.Stmts) != 0 {
		t.Fatalf("expected one empty constructor")
	}

	if len(typ.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(typ.Methods))
	}
	main := typ.Methods[0]
	if main.Result != nil {
		t.Errorf("expected void result, got %s", main.Result)
	}
	if !main.Modifiers.Has(ast.ModStatic) {
		t.Errorf("expected static main")
	}
	if len(main.Params) != 1 || main.Params[0].Type.String() != "String[]" || !main.Params[0].Param {
		t.Fatalf("unexpected params %+v", main.Params)
	}

	stmts := main.Body.Stmts
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	first, ok := stmts[0].(*ast.LocalVarStmt)
	if !ok || first.Var.Name != "a" || first.Var.Type.String() != "A" {
		t.Fatalf("unexpected first statement %#v", stmts[0])
	}
	if n, ok := first.Init.(*ast.NewExpr); !ok || n.Type.String() != "A" || len(n.Args) != 0 {
		t.Errorf("unexpected initializer %#v", first.Init)
	}
	second := stmts[1].(*ast.LocalVarStmt)
	if got := second.Var.Type.Name.Parts; len(got) != 4 || got[3] != "B" {
		t.Errorf("expected qualified type org.joosc.test.B, got %v", got)
	}
	if n := second.Init.(*ast.NewExpr); n.Type.String() != "org.joosc.test.B" {
		t.Errorf("unexpected creation type %s", n.Type)
	}
	if first.Loc.Line != 6 || first.Loc.File != "Main.java" {
		t.Errorf("unexpected location %s", first.Loc)
	}
}

func TestParseFile_CallShape(t *testing.T) {
	p := newTestParser(t)
	unit := mustParse(t, p, "org/joosc/test/A.java", aSrc)

	if unit.PackageName() != "org.joosc.test" {
		t.Errorf("expected package org.joosc.test, got %q", unit.PackageName())
	}
	if len(unit.Type.Extends) != 1 || unit.Type.Extends[0].String() != "B" {
		t.Fatalf("expected extends B, got %v", unit.Type.Extends)
	}
	body := unit.Type.Constructors[0].Body
	stmt, ok := body.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected expression statement, got %#v", body.Stmts[0])
	}
	call, ok := stmt.X.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected call, got %#v", stmt.X)
	}
	target, ok := call.Target.(*ast.NameExpr)
	if !ok || target.Name.String() != "System.out" {
		t.Errorf("expected target System.out, got %#v", call.Target)
	}
	if call.Method.String() != "println" || len(call.Args) != 1 {
		t.Errorf("unexpected call %s/%d", call.Method, len(call.Args))
	}
	if lit, ok := call.Args[0].(*ast.Literal); !ok || lit.Kind != ast.LitString || lit.Value != `"A"` {
		t.Errorf("unexpected argument %#v", call.Args[0])
	}
}

func TestParseFile_Statements(t *testing.T) {
	src := `public class S {
    public int[] xs;
    public S(int n) { super(); xs = new int[n]; }
    public int sum() {
        int total = 0, i;
        for (i = 0; i < xs.length; i = i + 1) total = total + xs[i];
        while (!(total == 0)) { if (total > 0) total = total - 1; else return -1; }
        Object o = (Object) this;
        if (o instanceof S) ;
        return this.xs.length;
    }
}`
	p := newTestParser(t)
	unit := mustParse(t, p, "S.java", src)

	ctor := unit.Type.Constructors[0]
	call, ok := ctor.Body.Stmts[0].(*ast.ExplicitCtorCall)
	if !ok || !call.Super || len(call.Args) != 0 {
		t.Fatalf("expected super() first, got %#v", ctor.Body.Stmts[0])
	}
	assign := ctor.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.AssignExpr)
	if arr, ok := assign.R.(*ast.NewArrayExpr); !ok || arr.Type.String() != "int" {
		t.Errorf("expected int array creation, got %#v", assign.R)
	}

	stmts := unit.Type.Methods[0].Body.Stmts
	if len(stmts) != 7 {
		t.Fatalf("expected 7 statements after splitting declarators, got %d", len(stmts))
	}
	if v := stmts[1].(*ast.LocalVarStmt); v.Var.Name != "i" || v.Init != nil {
		t.Errorf("unexpected second declarator %+v", v.Var)
	}
	loop := stmts[2].(*ast.ForStmt)
	if loop.Init == nil || loop.Cond == nil || len(loop.Update) != 1 {
		t.Errorf("incomplete for loop %#v", loop)
	}
	if cond, ok := loop.Cond.(*ast.BinaryExpr); !ok || cond.Op != "<" {
		t.Errorf("unexpected loop condition %#v", loop.Cond)
	} else if n, ok := cond.R.(*ast.NameExpr); !ok || n.Name.String() != "xs.length" {
		t.Errorf("expected xs.length as a name, got %#v", cond.R)
	}
	if _, ok := stmts[3].(*ast.WhileStmt); !ok {
		t.Errorf("expected while, got %#v", stmts[3])
	}
	cast := stmts[4].(*ast.LocalVarStmt).Init.(*ast.CastExpr)
	if cast.Type.String() != "Object" {
		t.Errorf("unexpected cast type %s", cast.Type)
	}
	empty := stmts[5].(*ast.IfStmt)
	if _, ok := empty.Then.(*ast.EmptyStmt); !ok {
		t.Errorf("expected empty then branch, got %#v", empty.Then)
	}
	ret := stmts[6].(*ast.ReturnStmt)
	access, ok := ret.X.(*ast.FieldAccess)
	if !ok || access.Field.String() != "length" {
		t.Fatalf("expected field access on this.xs, got %#v", ret.X)
	}
	if inner, ok := access.X.(*ast.FieldAccess); !ok || inner.Field.String() != "xs" {
		t.Errorf("expected this.xs receiver, got %#v", access.X)
	}
}

func TestParseFile_Interface(t *testing.T) {
	src := `package p;
public interface Shape extends Comparable, q.Named {
    int area();
}`
	p := newTestParser(t)
	unit := mustParse(t, p, "p/Shape.java", src)
	if !unit.Type.IsInterface() {
		t.Fatalf("expected interface")
	}
	if len(unit.Type.Extends) != 2 || unit.Type.Extends[1].String() != "q.Named" {
		t.Errorf("unexpected extends %v", unit.Type.Extends)
	}
	m := unit.Type.Methods[0]
	if !m.Modifiers.Has(ast.ModAbstract) || m.Body != nil {
		t.Errorf("interface method must be abstract without body")
	}
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", "public class X { int f( }"},
		{"generics", "public class X<T> {}"},
		{"two types", "public class X {} class Y {}"},
		{"no type", "package p;"},
		{"floating point", "public class X { public double d; }"},
		{"compound assignment", "public class X { public void m() { int i = 0; i += 1; } }"},
		{"anonymous class", "public class X { public void m() { Object o = new Object() {}; } }"},
		{"interface field", "public interface X { int K = 1; }"},
		{"private field", "public class X { private int n; }"},
		{"private method", "public class X { private void m() {} }"},
		{"file name mismatch", "public class Y {}"},
		{"non-ascii", "public class X {\n  public String s = \"é\";\n}"},
	}

	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseFile("X.java", []byte(tt.src))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.IsCode(err, errors.CodeParseError) {
				t.Errorf("expected PARSE_ERROR, got %v", err)
			}
			var syntax *SyntaxError
			if !stderrors.As(err, &syntax) || syntax.Loc.File != "X.java" {
				t.Errorf("expected *SyntaxError with location, got %v", err)
			}
		})
	}
}

func TestParseFile_NonASCIILocation(t *testing.T) {
	p := newTestParser(t)
	_, err := p.ParseFile("X.java", []byte("public class X {\n  // café\n}"))
	var syntax *SyntaxError
	if !stderrors.As(err, &syntax) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if syntax.Loc.Line != 2 || syntax.Loc.Column != 9 {
		t.Errorf("expected 2:9, got %s", syntax.Loc)
	}
}

func TestParseFile_RejectsOtherExtensions(t *testing.T) {
	p := newTestParser(t)
	if _, err := p.ParseFile("notes.txt", []byte("public class X {}")); !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestParseFiles_ResolvesFixture(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"Main.java":             mainSrc,
		"org/joosc/test/A.java": aSrc,
		"org/joosc/test/B.java": bSrc,
	}
	for path, src := range stdlibSrc {
		files[path] = src
	}
	var paths []string
	for rel, src := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	p := newTestParser(t)
	units, err := p.ParseFiles(context.Background(), paths, 3)
	if err != nil {
		t.Fatalf("ParseFiles failed: %v", err)
	}
	if p.pool.Leased() != 0 {
		t.Errorf("expected all parsers returned, %d leased", p.pool.Leased())
	}

	res, err := pipeline.Run(context.Background(), units, pipeline.Options{StandardPackages: []string{"java.lang"}})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	var main *ast.CompilationUnit
	for _, u := range res.Units {
		if u.Type.Name == "Main" {
			main = u
		}
	}
	stmts := main.Type.Methods[0].Body.Stmts
	a := stmts[0].(*ast.LocalVarStmt)
	if got := a.Var.Type.Decl().QualifiedName(); got != "org.joosc.test.A" {
		t.Errorf("A resolved to %s", got)
	}
	newB := stmts[1].(*ast.LocalVarStmt).Init.(*ast.NewExpr)
	if got := newB.Type.Decl().QualifiedName(); got != "org.joosc.test.B" {
		t.Errorf("qualified B resolved to %s", got)
	}
	if b := newB.Binding(); b == nil || len(b.Constructors) != 1 {
		t.Errorf("expected the single constructor of B, got %+v", b)
	}
}

func TestParserPool_GetPut(t *testing.T) {
	loader := NewGrammarLoader()
	lang, _ := loader.Language(LanguageJava)
	pool := NewParserPool(lang)

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected parser")
	}
	if pool.Leased() != 1 {
		t.Errorf("expected 1 leased, got %d", pool.Leased())
	}
	tree := sp.Parse([]byte("class X {}"), nil)
	if tree == nil || tree.RootNode().Kind() != "program" {
		t.Fatalf("unexpected parse result")
	}
	tree.Close()
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Errorf("expected 0 leased, got %d", pool.Leased())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	loader := NewGrammarLoader()
	lang, _ := loader.Language(LanguageJava)
	pool := NewParserPool(lang)
	pool.Put(nil)
	if pool.Leased() != 0 {
		t.Errorf("Put(nil) must not change the lease count")
	}
}

func TestGrammarLoader_Extensions(t *testing.T) {
	loader := NewGrammarLoader()
	if exts := loader.SupportedExtensions(); len(exts) != 1 || exts[0] != ".java" {
		t.Errorf("unexpected extensions %v", exts)
	}
	if lang, ok := loader.LanguageForPath("src/Main.JAVA"); !ok || lang != LanguageJava {
		t.Errorf("expected java for upper-case extension")
	}
	if _, ok := loader.LanguageForPath("Makefile"); ok {
		t.Errorf("expected no language for Makefile")
	}
}
