package diagnostics

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectProjectType_Rust(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"widget\"\nversion = \"0.1.0\"\n")

	got, err := DetectProjectType(root)
	if err != nil {
		t.Fatalf("DetectProjectType() error = %v", err)
	}
	if got != ProjectRust {
		t.Errorf("DetectProjectType() = %q, want %q", got, ProjectRust)
	}
}

func TestDetectProjectType_InvalidCargoToml(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "Cargo.toml"), "this is not [ valid toml")

	if _, err := DetectProjectType(root); err == nil {
		t.Fatal("expected an error for malformed Cargo.toml")
	}
}

func TestDetectProjectType_TypeScript(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "package.json"), "{}")
	writeTestFile(t, filepath.Join(root, "tsconfig.json"), "{}")

	got, err := DetectProjectType(root)
	if err != nil {
		t.Fatalf("DetectProjectType() error = %v", err)
	}
	if got != ProjectTypeScript {
		t.Errorf("DetectProjectType() = %q, want %q", got, ProjectTypeScript)
	}
}

func TestDetectProjectType_PackageJsonWithoutTsconfigIsUnknown(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "package.json"), "{}")

	got, err := DetectProjectType(root)
	if err != nil {
		t.Fatalf("DetectProjectType() error = %v", err)
	}
	if got != ProjectUnknown {
		t.Errorf("DetectProjectType() = %q, want %q", got, ProjectUnknown)
	}
}

func TestDetectProjectType_EmptyRepoIsUnknown(t *testing.T) {
	root := t.TempDir()

	got, err := DetectProjectType(root)
	if err != nil {
		t.Fatalf("DetectProjectType() error = %v", err)
	}
	if got != ProjectUnknown {
		t.Errorf("DetectProjectType() = %q, want %q", got, ProjectUnknown)
	}
}

func TestRun_UnknownProjectTypeErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := Run(root); err == nil {
		t.Fatal("expected an error when neither Cargo.toml nor package.json+tsconfig.json is present")
	}
}

func TestTscLinePattern_ParsesStandardErrorLine(t *testing.T) {
	line := `src/widget.ts(12,5): error TS2339: Property 'name' does not exist on type 'Widget'.`
	m := tscLinePattern.FindStringSubmatch(line)
	if m == nil {
		t.Fatal("expected tscLinePattern to match a standard tsc error line")
	}
	if m[1] != "src/widget.ts" || m[2] != "12" || m[3] != "5" || m[4] != "TS2339" {
		t.Errorf("unexpected submatches: %v", m)
	}
}

func TestAttachSourceContext_ReadsOffendingLine(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.rs"), "fn main() {\n    let x: u32 = \"oops\";\n}\n")

	diags := []Diagnostic{{Path: "widget.rs", Line: 2, Message: "mismatched types"}}
	attachSourceContext(root, diags)

	if diags[0].SourceContext != `let x: u32 = "oops";` {
		t.Errorf("SourceContext = %q", diags[0].SourceContext)
	}
}

func TestAttachSourceContext_MissingFileLeavesContextEmpty(t *testing.T) {
	root := t.TempDir()
	diags := []Diagnostic{{Path: "missing.rs", Line: 1, Message: "whatever"}}
	attachSourceContext(root, diags)

	if diags[0].SourceContext != "" {
		t.Errorf("SourceContext = %q, want empty for a missing file", diags[0].SourceContext)
	}
}
