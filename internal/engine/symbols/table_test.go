package symbols

import (
	"joosc/internal/engine/ast"
	"joosc/internal/engine/ast/asttest"
	"joosc/internal/engine/diag"
	"testing"
)

func units(builders ...*asttest.Builder) []*ast.CompilationUnit {
	out := make([]*ast.CompilationUnit, len(builders))
	for i, b := range builders {
		out[i] = b.Unit
	}
	return out
}

func TestCollect_DuplicateDeclaration(t *testing.T) {
	first := asttest.NewUnit("a/A.java", "p")
	first.Class("A")
	second := asttest.NewUnit("b/A.java", "p")
	second.Interface("A")
	third := asttest.NewUnit("c/A.java", "p")
	third.Class("A")
	other := asttest.NewUnit("B.java", "p")
	other.Class("B")

	table, err := Collect(units(first, second, other, third), Options{})
	if table != nil {
		t.Fatalf("expected no table on duplicate declaration")
	}
	diags, ok := diag.FromError(err)
	if !ok || len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", err)
	}
	d := diags[0]
	if d.Kind != diag.KindDuplicateDeclaration || d.Primary.File != "b/A.java" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if len(d.Related) != 2 || d.Related[0].File != "a/A.java" || d.Related[1].File != "c/A.java" {
		t.Errorf("unexpected related locations %v", d.Related)
	}
}

func TestCollect_TypeNamedLikePackage(t *testing.T) {
	typ := asttest.NewUnit("p/q.java", "p")
	typ.Class("q")
	pkg := asttest.NewUnit("p/q/C.java", "p.q")
	pkg.Class("C")

	_, err := Collect(units(typ, pkg), Options{})
	diags, ok := diag.FromError(err)
	if !ok || diags.Count(diag.KindDuplicateDeclaration) != 1 {
		t.Fatalf("expected a clash between type and package p.q, got %v", err)
	}
}

func TestCollect_DefaultPackageTypeNamedLikePackage(t *testing.T) {
	typ := asttest.NewUnit("foo.java", "")
	typ.Class("foo")
	pkg := asttest.NewUnit("foo/bar/B.java", "foo.bar")
	pkg.Class("B")

	table, err := Collect(units(typ, pkg), Options{})
	if err != nil {
		t.Fatalf("expected default-package foo to coexist with package foo.bar, got %v", err)
	}
	if _, ok := table.Lookup("foo"); !ok {
		t.Errorf("expected foo in the table")
	}
	if _, ok := table.PackageMember("foo.bar", "B"); !ok {
		t.Errorf("expected foo.bar.B in the table")
	}
}

func TestCollect_SyntheticRoot(t *testing.T) {
	a := asttest.NewUnit("A.java", "")
	a.Class("A")

	table, err := Collect(units(a), Options{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	root := table.Root()
	if !root.Synthetic || root.QualifiedName() != DefaultRootType || root.Name != "Object" {
		t.Errorf("unexpected root %+v", root)
	}
	if _, ok := table.Lookup(DefaultRootType); ok {
		t.Errorf("synthetic root must not be visible to Lookup")
	}
	if table.Len() != 2 || len(table.Types()) != 1 {
		t.Errorf("expected 2 arena entries and 1 declared type, got %d and %d", table.Len(), len(table.Types()))
	}
	if table.Decl(table.RootHandle()) != root || table.Decl(NoHandle) != nil {
		t.Errorf("Decl does not round-trip handles")
	}
}

func TestCollect_DeclaredRoot(t *testing.T) {
	obj := asttest.NewUnit("java/lang/Base.java", "java.lang")
	obj.Class("Base")

	table, err := Collect(units(obj), Options{RootType: " java.lang.Base "})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if table.Root() != obj.Unit.Type || table.Len() != 1 {
		t.Errorf("expected the declared type to be the root")
	}
}

func TestTable_PackageQueries(t *testing.T) {
	b := asttest.NewUnit("java/util/List.java", "java.util")
	b.Interface("List")
	a := asttest.NewUnit("java/util/ArrayList.java", "java.util")
	a.Class("ArrayList").Implements("List")
	d := asttest.NewUnit("Main.java", "")
	d.Class("Main")

	table, err := Collect(units(b, a, d), Options{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"java", true},
		{"java.util", true},
		{"java.util.List", false},
		{"util", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := table.IsPackage(tt.name); got != tt.want {
			t.Errorf("IsPackage(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	types := table.PackageTypes("java.util")
	if len(types) != 2 || types[0].Name != "ArrayList" || types[1].Name != "List" {
		t.Errorf("unexpected package types %v", types)
	}
	if decl, ok := table.PackageMember("", "Main"); !ok || decl != d.Unit.Type {
		t.Errorf("expected Main in the default package")
	}
	if _, ok := table.PackageMember("java.util", "Main"); ok {
		t.Errorf("Main is not in java.util")
	}
	if decl, ok := table.Lookup("java.util.List"); !ok || table.Handle(decl) == NoHandle {
		t.Errorf("expected java.util.List with a handle")
	}
	if table.Handle(&ast.TypeDecl{}) != NoHandle {
		t.Errorf("foreign declarations have no handle")
	}
}
