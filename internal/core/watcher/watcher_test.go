// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"["}, nil, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid glob")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{"build"}, []string{"*Gen.java"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Main.java")
	if err := os.WriteFile(testFile, []byte("public class Main {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		if !contains(paths, testFile) {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for file change event")
	}

	// Excluded by pattern and by extension.
	for _, name := range []string{"ParserGen.java", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		t.Errorf("Excluded files triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.java")
	if err := os.WriteFile(subFile, []byte("package pkg;"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			if contains(paths, subFile) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcher_UnchangedContentIsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Same.java")
	content := []byte("public class Same {}")
	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("identical rewrite triggered event: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(testFile, []byte("public class Same { }"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		if !contains(paths, testFile) {
			t.Errorf("expected %s in %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for modified file")
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.java")
	newPath := filepath.Join(tmpDir, "New.java")
	if err := os.WriteFile(oldPath, []byte("public class Old {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			if contains(paths, oldPath) || contains(paths, newPath) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_RateLimitDefersBatch(t *testing.T) {
	changed := make(chan []string, 4)
	w, err := NewWatcher(20*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.SetRateLimit(1)

	w.scheduleChange("A.java")
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("first batch must pass the limiter")
	}

	w.scheduleChange("B.java")
	select {
	case paths := <-changed:
		t.Fatalf("second batch within the minute must be deferred, got %v", paths)
	case <-time.After(200 * time.Millisecond):
	}

	w.pendingMu.Lock()
	pending := len(w.pending)
	w.pendingMu.Unlock()
	if pending != 1 {
		t.Errorf("expected deferred path to stay pending, got %d", pending)
	}
}

func TestWatcher_Extensions(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.shouldExcludeFile("Main.java") {
		t.Fatal("expected .java to be included by default")
	}
	if !w.shouldExcludeFile("main.go") {
		t.Fatal("expected .go to be excluded")
	}
	w.SetExtensions([]string{" .JOOS "})
	if !w.shouldExcludeFile("Main.java") {
		t.Fatal("expected .java to be excluded once replaced")
	}
	if w.shouldExcludeFile("Main.joos") {
		t.Fatal("expected .joos to be included after SetExtensions")
	}
}
