package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autosort/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDestinationRoot_MissingButCreatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sorted", "nested")
	result := CheckDestinationRoot("dest", path)
	if !result.Passed {
		t.Fatalf("expected pass for creatable root, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "created on first move") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDestinationRoot_ParentIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDestinationRoot("dest", filepath.Join(f, "sorted"))
	if result.Passed {
		t.Fatal("expected failure when ancestor is a file")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = base
	cfg.Paths.DestinationRoot = filepath.Join(base, "sorted")
	cfg.Paths.StateDir = filepath.Join(base, "missing-state")
	cfg.Paths.LogDir = ""

	results := RunAll(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "State directory" {
		t.Fatalf("expected only the state directory to fail, got %+v", failed)
	}
	if RunAll(nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
