// Package diagnostics implements run_diagnostics: project-type
// auto-detection followed by invoking the matching external compiler or
// type checker, parsing its structured output, and pinning each error to
// file:line with a one-line source context — grounded on teacher
// `internal/federation/config.go`'s BurntSushi/toml decoding idiom (promoted
// here from federation-config parsing to Cargo.toml presence detection).
package diagnostics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"cortexast/internal/cortexerrors"
)

// ProjectType names the auto-detected toolchain, per spec §6.
type ProjectType string

const (
	ProjectRust       ProjectType = "rust"
	ProjectTypeScript ProjectType = "typescript"
	ProjectUnknown    ProjectType = "unknown"
)

// Diagnostic is one compiler/type-checker error, pinned to file:line.
type Diagnostic struct {
	Path          string
	Line          int
	Column        int
	Message       string
	SourceContext string
}

// Result is run_diagnostics' output.
type Result struct {
	ProjectType ProjectType
	Diagnostics []Diagnostic
}

// minimalCargoManifest only needs to decode successfully to confirm
// Cargo.toml is well-formed TOML; field values are not otherwise used.
type minimalCargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// DetectProjectType implements spec §6's auto-detection rule: Cargo.toml
// present means a Rust project; package.json plus tsconfig.json means a
// TypeScript project.
func DetectProjectType(repoRoot string) (ProjectType, error) {
	cargoPath := filepath.Join(repoRoot, "Cargo.toml")
	if _, err := os.Stat(cargoPath); err == nil {
		var manifest minimalCargoManifest
		if _, err := toml.DecodeFile(cargoPath, &manifest); err != nil {
			return ProjectUnknown, cortexerrors.Wrap(cortexerrors.ConfigError, "Cargo.toml is not valid TOML", err)
		}
		return ProjectRust, nil
	}

	_, pkgErr := os.Stat(filepath.Join(repoRoot, "package.json"))
	_, tsErr := os.Stat(filepath.Join(repoRoot, "tsconfig.json"))
	if pkgErr == nil && tsErr == nil {
		return ProjectTypeScript, nil
	}

	return ProjectUnknown, nil
}

// Run detects the project type and invokes the matching external tool.
func Run(repoRoot string) (Result, error) {
	projectType, err := DetectProjectType(repoRoot)
	if err != nil {
		return Result{}, err
	}

	var diags []Diagnostic
	switch projectType {
	case ProjectRust:
		diags, err = runCargoCheck(repoRoot)
	case ProjectTypeScript:
		diags, err = runTsc(repoRoot)
	default:
		return Result{}, cortexerrors.New(cortexerrors.InvalidAction,
			"no Cargo.toml or package.json+tsconfig.json found; cannot auto-detect a project type").
			WithHint("run_diagnostics requires a Rust or TypeScript project at the repo root")
	}
	if err != nil {
		return Result{}, err
	}

	attachSourceContext(repoRoot, diags)
	return Result{ProjectType: projectType, Diagnostics: diags}, nil
}

// cargoMessage models the subset of `cargo check --message-format=json`'s
// per-line JSON objects this package needs.
type cargoMessage struct {
	Reason  string `json:"reason"`
	Message struct {
		Message string `json:"message"`
		Level   string `json:"level"`
		Spans   []struct {
			FileName    string `json:"file_name"`
			LineStart   int    `json:"line_start"`
			ColumnStart int    `json:"column_start"`
			IsPrimary   bool   `json:"is_primary"`
		} `json:"spans"`
	} `json:"message"`
}

// runCargoCheck invokes `cargo check --message-format=json` and parses its
// newline-delimited JSON messages, keeping only compiler-message entries
// with a primary span.
func runCargoCheck(repoRoot string) ([]Diagnostic, error) {
	cmd := exec.Command("cargo", "check", "--message-format=json")
	cmd.Dir = repoRoot
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = nil
	_ = cmd.Run() // cargo check exits non-zero when diagnostics exist; that's expected

	var diags []Diagnostic
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var msg cargoMessage
		if json.Unmarshal(scanner.Bytes(), &msg) != nil || msg.Reason != "compiler-message" {
			continue
		}
		for _, span := range msg.Message.Spans {
			if !span.IsPrimary {
				continue
			}
			diags = append(diags, Diagnostic{
				Path:    span.FileName,
				Line:    span.LineStart,
				Column:  span.ColumnStart,
				Message: msg.Message.Message,
			})
		}
	}
	return diags, nil
}

// tscLinePattern matches `tsc --noEmit`'s default error format:
// "src/foo.ts(12,5): error TS2339: Property 'x' does not exist...".
var tscLinePattern = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): error (TS\d+): (.*)$`)

// runTsc invokes `tsc --noEmit` and parses its line-oriented error format.
func runTsc(repoRoot string) ([]Diagnostic, error) {
	cmd := exec.Command("npx", "tsc", "--noEmit")
	cmd.Dir = repoRoot
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout
	_ = cmd.Run() // tsc exits non-zero when diagnostics exist; that's expected

	var diags []Diagnostic
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := scanner.Text()
		m := tscLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		diags = append(diags, Diagnostic{
			Path:    m[1],
			Line:    lineNum,
			Column:  col,
			Message: fmt.Sprintf("%s: %s", m[4], m[5]),
		})
	}
	return diags, nil
}

// attachSourceContext reads the offending line verbatim from disk as the
// one-line context accompanying each diagnostic.
func attachSourceContext(repoRoot string, diags []Diagnostic) {
	cache := make(map[string][]string)
	for i := range diags {
		d := &diags[i]
		if d.Path == "" || d.Line <= 0 {
			continue
		}
		lines, ok := cache[d.Path]
		if !ok {
			data, err := os.ReadFile(filepath.Join(repoRoot, d.Path))
			if err != nil {
				cache[d.Path] = nil
				continue
			}
			lines = strings.Split(string(data), "\n")
			cache[d.Path] = lines
		}
		if d.Line-1 < len(lines) {
			d.SourceContext = strings.TrimSpace(lines[d.Line-1])
		}
	}
}
