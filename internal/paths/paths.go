package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	// Make path relative to repo root
	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	canonicalPath := filepath.ToSlash(relativePath)

	return canonicalPath, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}

	// Path is outside repo if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
// This is useful for paths that are already relative but need normalization
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	// Ensure we use forward slashes in the canonical path
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	// Convert to OS-specific path separator for joining
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// ResolveRepoPath joins repoRoot with a tool-supplied relative path and
// rejects the result if it escapes repoRoot, e.g. via a "../" segment in a
// symbol_read or slice target. read_source and deep_slice resolve their
// caller path through this instead of a bare filepath.Join, since that path
// argument is effectively untrusted input coming from an LLM agent rather
// than from the Scanner's own walk. chronos save_checkpoint, map_overview's
// target_dir and the Scanner's Target do not go through this check.
func ResolveRepoPath(repoRoot string, relPath string) (string, error) {
	abs := JoinRepoPath(repoRoot, relPath)
	if !IsWithinRepo(abs, repoRoot) {
		return "", fmt.Errorf("path %q escapes repo root", relPath)
	}
	return abs, nil
}
