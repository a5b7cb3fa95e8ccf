package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "cortexast-paths-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	testFile := filepath.Join(tempDir, "subdir", "test.go")
	if err := os.MkdirAll(filepath.Dir(testFile), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("package test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	canonical, err := CanonicalizePath(testFile, tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}

	expected := "subdir/test.go"
	if canonical != expected {
		t.Errorf("Expected %s, got %s", expected, canonical)
	}
}

func TestCanonicalizePath_NonexistentFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "cortexast-paths-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	missing := filepath.Join(tempDir, "does", "not", "exist.go")
	canonical, err := CanonicalizePath(missing, tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed for nonexistent file: %v", err)
	}

	expected := "does/not/exist.go"
	if canonical != expected {
		t.Errorf("Expected %s, got %s", expected, canonical)
	}
}

func TestNormalizePath(t *testing.T) {
	// Test that forward slashes are preserved
	result := NormalizePath("path/to/file")
	expected := "path/to/file"
	if result != expected {
		t.Errorf("NormalizePath(path/to/file): expected %s, got %s", expected, result)
	}

	// Note: filepath.ToSlash only converts the OS-specific separator.
	// On Unix, backslashes are valid filename characters and won't be converted.
}

func TestJoinRepoPath(t *testing.T) {
	result := JoinRepoPath("/repo/root", "path/to/file.go")
	expected := filepath.Join("/repo/root", "path", "to", "file.go")
	if result != expected {
		t.Errorf("JoinRepoPath: expected %s, got %s", expected, result)
	}
}

func TestJoinRepoPath_BackslashInput(t *testing.T) {
	result := JoinRepoPath("/repo/root", `path\to\file.go`)
	expected := filepath.Join("/repo/root", "path", "to", "file.go")
	if result != expected {
		t.Errorf("JoinRepoPath: expected %s, got %s", expected, result)
	}
}

func TestIsWithinRepo(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "cortexast-paths-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	testFile := filepath.Join(tempDir, "subdir", "test.go")
	if err := os.MkdirAll(filepath.Dir(testFile), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("package test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !IsWithinRepo(testFile, tempDir) {
		t.Error("Expected file to be within repo")
	}

	outsideFile := filepath.Join(os.TempDir(), "outside.go")
	if IsWithinRepo(outsideFile, tempDir) {
		t.Error("Expected file outside repo to return false")
	}
}

func TestResolveRepoPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "cortexast-paths-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	testFile := filepath.Join(tempDir, "subdir", "test.go")
	if err := os.MkdirAll(filepath.Dir(testFile), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("package test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	resolved, err := ResolveRepoPath(tempDir, "subdir/test.go")
	if err != nil {
		t.Fatalf("ResolveRepoPath failed: %v", err)
	}
	if resolved != testFile {
		t.Errorf("ResolveRepoPath: expected %s, got %s", testFile, resolved)
	}
}

func TestResolveRepoPath_RejectsEscape(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "cortexast-paths-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	if _, err := ResolveRepoPath(tempDir, "../../etc/passwd"); err == nil {
		t.Error("expected ResolveRepoPath to reject a path escaping repo root")
	}
}
