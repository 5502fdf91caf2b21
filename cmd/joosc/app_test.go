// # cmd/joosc/app_test.go
package main

import (
	"bytes"
	"context"
	"joosc/internal/core/config"
	"joosc/internal/core/errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, src := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const objectSrc = `package java.lang;
public class Object {
    public Object() {}
}`

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SourcePaths = []string{root}
	cfg.Workers = 2
	cfg.Index.Path = filepath.Join(t.TempDir(), "joosc.db")
	return cfg
}

func TestDiscoverSources(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeTree(t, root, map[string]string{
		"src/p/A.java":       "",
		"src/p/ATest.java":   "",
		"src/p/gen/G.java":   "",
		"src/q/gen/H.java":   "",
		"src/p/notes.txt":    "",
		"src/build/X.java":   "",
		"src/p/Upper.JAVA":   "",
		"other/Single.java":  "",
		"other/Ignored.java": "",
	})

	files, err := DiscoverSources(
		[]string{src, filepath.Join(src, "p"), filepath.Join(root, "other", "Single.java")},
		[]string{"build"},
		[]string{"*Test.java", "p/gen/*.java"},
		[]string{".java"},
	)
	if err != nil {
		t.Fatalf("DiscoverSources failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "other", "Single.java"),
		filepath.Join(src, "p", "A.java"),
		filepath.Join(src, "p", "Upper.JAVA"),
		filepath.Join(src, "q", "gen", "H.java"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Errorf("got files\n%s\nwant\n%s", strings.Join(files, "\n"), strings.Join(want, "\n"))
	}
}

func TestDiscoverSources_Errors(t *testing.T) {
	if _, err := DiscoverSources([]string{filepath.Join(t.TempDir(), "missing")}, nil, nil, []string{".java"}); !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("expected IO error for missing root, got %v", err)
	}
	if _, err := DiscoverSources([]string{t.TempDir()}, []string{"[a"}, nil, nil); err == nil {
		t.Errorf("expected error for bad pattern")
	}
}

func TestCollapseRoots(t *testing.T) {
	got := collapseRoots([]string{"a/b", "a", "./a/b/c", "ab", "a/"})
	want := []string{"a", "ab"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("collapseRoots = %v, want %v", got, want)
	}
}

func TestApp_RunResolvesProgram(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"java/lang/Object.java": objectSrc,
		"p/B.java": `package p;
public class B {
    public int count;
    public B() {}
}`,
		"p/A.java": `package p;
public class A extends B {
    public A() {}
    public int read() { return count; }
}`,
	})

	cfg := testConfig(t, root)
	cfg.Index.Enabled = true
	var out bytes.Buffer
	app, err := NewApp(cfg, &out)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	o := app.Run(context.Background())
	if o.Err != nil || len(o.Diagnostics) > 0 {
		t.Fatalf("unexpected failure: err=%v diags=%v", o.Err, o.Diagnostics)
	}
	if o.ExitCode() != exitOK || len(o.Files) != 3 || o.Types != 3 || o.RunID == "" {
		t.Errorf("unexpected outcome %+v", o)
	}
	if app.Last().RunID != o.RunID {
		t.Errorf("Last() did not record the run")
	}

	app.PrintOutcome(o)
	if !strings.Contains(out.String(), "3 files | 3 types") || !strings.Contains(out.String(), "resolved") {
		t.Errorf("unexpected report %q", out.String())
	}

	out.Reset()
	if err := app.Query("p.A", "p.B.count"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	report := out.String()
	if !strings.Contains(report, "class p.A") || !strings.Contains(report, "extends p.B") {
		t.Errorf("missing type record in %q", report)
	}
	if !strings.Contains(report, "(from p.B)") || !strings.Contains(report, "-> p.B.count") {
		t.Errorf("missing members or references in %q", report)
	}
	if err := app.Query("p.Missing", ""); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	dot := filepath.Join(t.TempDir(), "hierarchy.dot")
	if err := app.WriteDOT(dot, o); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}
	data, err := os.ReadFile(dot)
	if err != nil || !strings.Contains(string(data), `"p.A" -> "p.B";`) {
		t.Errorf("unexpected DOT output %q (err %v)", data, err)
	}
}

func TestApp_RunReportsDiagnostics(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"java/lang/Object.java": objectSrc,
		"p/A.java": `package p;
public class A {
    public A() {}
    public int read() { return missing; }
}`,
	})

	var out bytes.Buffer
	app, err := NewApp(testConfig(t, root), &out)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	o := app.Run(context.Background())
	if len(o.Diagnostics) != 1 || o.Diagnostics[0].Kind != "UnresolvedName" {
		t.Fatalf("expected one UnresolvedName, got %v (err %v)", o.Diagnostics, o.Err)
	}
	if o.ExitCode() != exitCompileError {
		t.Errorf("expected exit 42, got %d", o.ExitCode())
	}

	app.PrintOutcome(o)
	if !strings.Contains(out.String(), "UnresolvedName") || !strings.Contains(out.String(), "A.java") {
		t.Errorf("unexpected report %q", out.String())
	}

	sarif := filepath.Join(t.TempDir(), "out", "joosc.sarif")
	if err := app.WriteSARIF(sarif, o); err != nil {
		t.Fatalf("WriteSARIF failed: %v", err)
	}
	data, err := os.ReadFile(sarif)
	if err != nil || !strings.Contains(string(data), "JOOS007") {
		t.Errorf("expected SARIF with JOOS007, err=%v", err)
	}
}

func TestApp_WriteDOTWithoutResult(t *testing.T) {
	app := &App{}
	if err := app.WriteDOT(filepath.Join(t.TempDir(), "h.dot"), Outcome{}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestApp_RunSyntaxError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"X.java": "public class X { int f( }",
	})

	var out bytes.Buffer
	app, err := NewApp(testConfig(t, root), &out)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	o := app.Run(context.Background())
	if o.ExitCode() != exitCompileError {
		t.Fatalf("expected exit 42, got %d (err %v)", o.ExitCode(), o.Err)
	}
	app.PrintOutcome(o)
	if !strings.Contains(out.String(), "SyntaxError") || !strings.Contains(out.String(), "failed") {
		t.Errorf("unexpected report %q", out.String())
	}
}

func TestOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		name string
		o    Outcome
		want int
	}{
		{"clean", Outcome{}, exitOK},
		{"parse error", Outcome{Err: errors.New(errors.CodeParseError, "bad")}, exitCompileError},
		{"not java", Outcome{Err: errors.New(errors.CodeValidationError, "bad")}, exitCompileError},
		{"io", Outcome{Err: errors.New(errors.CodeIO, "disk")}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApp_Health(t *testing.T) {
	app := &App{}
	app.last = Outcome{RunID: "r1"}
	if h := app.health(context.Background()); h.Status != "up" || h.RunID != "r1" {
		t.Errorf("unexpected health %+v", h)
	}
	app.last = Outcome{Err: errors.New(errors.CodeIO, "disk")}
	if h := app.health(context.Background()); h.Status != "degraded" {
		t.Errorf("expected degraded, got %+v", h)
	}
}

func TestApp_QueryNeedsIndex(t *testing.T) {
	app := &App{}
	if err := app.Query("p.A", ""); !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.DefaultFile)
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.RootType != "java.lang.Object" {
		t.Errorf("unexpected root type %q", cfg.RootType)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Errorf("expected refusal to overwrite")
	}
}
