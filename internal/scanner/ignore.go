package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"cortexast/internal/paths"
)

// ignorer combines the built-in high-noise deny-list with real .gitignore
// semantics (when enabled).
type ignorer struct {
	denyDirNames map[string]bool
	matcher      gitignore.Matcher
}

func newIgnorer(repoRoot string, denyDirNames []string, ignoreGitignore bool) (*ignorer, error) {
	deny := make(map[string]bool, len(denyDirNames))
	for _, d := range denyDirNames {
		deny[d] = true
	}

	ig := &ignorer{denyDirNames: deny}
	if ignoreGitignore {
		return ig, nil
	}

	patterns, err := collectGitignorePatterns(repoRoot)
	if err != nil {
		// A missing/unreadable .gitignore is not fatal; proceed with the
		// built-in deny-list only.
		return ig, nil
	}
	if len(patterns) > 0 {
		ig.matcher = gitignore.NewMatcher(patterns)
	}
	return ig, nil
}

// collectGitignorePatterns walks the repo for .gitignore files and parses
// each line into a gitignore.Pattern scoped to its containing directory,
// mirroring git's own layered-ignore-file semantics.
func collectGitignorePatterns(repoRoot string) ([]gitignore.Pattern, error) {
	var patterns []gitignore.Pattern

	err := filepath.Walk(repoRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() != ".gitignore" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		relDir, _ := filepath.Rel(repoRoot, filepath.Dir(path))
		var domain []string
		if relDir != "." && relDir != "" {
			domain = strings.Split(paths.NormalizePath(relDir), "/")
		}

		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, domain))
		}
		return nil
	})

	return patterns, err
}

func (ig *ignorer) shouldPrune(relPath string, isDir bool) bool {
	base := filepath.Base(relPath)
	if isDir && ig.denyDirNames[base] {
		return true
	}

	if ig.matcher != nil {
		parts := strings.Split(relPath, "/")
		if ig.matcher.Match(parts, isDir) {
			return true
		}
	}
	return false
}
