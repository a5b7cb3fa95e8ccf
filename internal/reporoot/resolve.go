// Package reporoot implements the repo-root resolution priority chain
// described in the external-interfaces section of the spec: the first
// non-dead candidate in the chain wins.
package reporoot

import (
	"os"
	"path/filepath"
)

// Params carries the per-call and process-level inputs the chain consults.
type Params struct {
	// PerCallRepoPath is an explicit repoPath argument passed on the tool call.
	PerCallRepoPath string
	// InitializeRootURI/RootPath/WorkspaceFolder come from the MCP
	// initialize handshake (external collaborator per spec §1; CortexAST
	// only consumes the resolved string here).
	InitializeRootURI      string
	InitializeRootPath     string
	InitializeWorkspaceDir string
	// CLIRootFlag is the value of the --root CLI flag, if set.
	CLIRootFlag string
	// TargetHint is the tool call's path/target_dir/target argument, used
	// as the starting point for the find-up heuristic.
	TargetHint string
}

// markerFiles are searched for, in order, during the find-up heuristic.
var markerFiles = []string{".git", "Cargo.toml", "package.json", "pyproject.toml"}

// Resolve walks the priority chain and returns an absolute repo root.
func Resolve(p Params) (string, error) {
	if candidate, ok := deadCheck(p.PerCallRepoPath); ok {
		return abs(candidate)
	}
	if candidate, ok := deadCheck(fromInitialize(p)); ok {
		return abs(candidate)
	}
	if candidate, ok := deadCheck(p.CLIRootFlag); ok {
		return abs(candidate)
	}
	if candidate, ok := deadCheck(os.Getenv("CORTEXAST_ROOT")); ok {
		return abs(candidate)
	}
	if candidate, ok := fromIDEEnv(); ok {
		return abs(candidate)
	}
	if candidate, ok := findUp(p.TargetHint); ok {
		return abs(candidate)
	}
	return fromCWD()
}

func fromInitialize(p Params) string {
	if p.InitializeRootURI != "" {
		return stripFileScheme(p.InitializeRootURI)
	}
	if p.InitializeRootPath != "" {
		return p.InitializeRootPath
	}
	if p.InitializeWorkspaceDir != "" {
		return stripFileScheme(p.InitializeWorkspaceDir)
	}
	return ""
}

func stripFileScheme(uri string) string {
	const scheme = "file://"
	if len(uri) > len(scheme) && uri[:len(scheme)] == scheme {
		return uri[len(scheme):]
	}
	return uri
}

// fromIDEEnv consults the IDE environment variables in the order the spec
// lists them. PWD/INIT_CWD are rejected when they equal $HOME, matching the
// rule applied again (more strictly) to the final CWD fallback.
func fromIDEEnv() (string, bool) {
	home, _ := os.UserHomeDir()
	candidates := []string{
		os.Getenv("VSCODE_WORKSPACE_FOLDER"),
		os.Getenv("VSCODE_CWD"),
		os.Getenv("IDEA_INITIAL_DIRECTORY"),
		os.Getenv("PWD"),
		os.Getenv("INIT_CWD"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if home != "" && c == home {
			continue
		}
		if dirExists(c) {
			return c, true
		}
	}
	return "", false
}

// findUp walks ancestors of hint looking for a project marker file.
func findUp(hint string) (string, bool) {
	if hint == "" {
		return "", false
	}
	start := hint
	if !filepath.IsAbs(start) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		start = filepath.Join(cwd, start)
	}
	if fi, err := os.Stat(start); err == nil && !fi.IsDir() {
		start = filepath.Dir(start)
	}

	dir := start
	for {
		for _, marker := range markerFiles {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func fromCWD() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", &RootResolutionError{Message: "cannot determine working directory: " + err.Error()}
	}
	home, _ := os.UserHomeDir()
	if home != "" && cwd == home {
		return "", &RootResolutionError{Message: "refusing to use $HOME as repo root; no other candidate resolved"}
	}
	if cwd == string(filepath.Separator) {
		return "", &RootResolutionError{Message: "refusing to use the OS root as repo root; no other candidate resolved"}
	}
	return cwd, nil
}

func deadCheck(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	return candidate, true
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func abs(path string) (string, error) {
	return filepath.Abs(path)
}

// RootResolutionError indicates every level of the chain was exhausted or
// a hard-rejected candidate (CWD == $HOME or OS root) was the only option.
type RootResolutionError struct {
	Message string
}

func (e *RootResolutionError) Error() string {
	return e.Message
}
