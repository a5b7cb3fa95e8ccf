package slicer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/vectorstore"
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

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.VectorSearch.ChunkLines = 10
	return cfg
}

func TestBuildSlice_AlwaysIncludesRootManifests(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "go.mod"), "module example\n\ngo 1.24\n")
	writeTestFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	cfg := testConfig()
	registry := langdriver.NewRegistry()

	result, err := DeepSlice(root, cfg, registry, nil, Params{})
	if err != nil {
		t.Fatalf("DeepSlice() error = %v", err)
	}
	if !strings.Contains(result.XML, `path="go.mod"`) {
		t.Errorf("expected go.mod in slice, got:\n%s", result.XML)
	}
}

func TestBuildSlice_RespectsTokenBudget(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeTestFile(t, filepath.Join(root, "pkg", itoaTest(i)+".go"),
			"package pkg\n\nfunc F"+itoaTest(i)+"() {\n\tprintln(\"work\")\n}\n")
	}

	cfg := testConfig()
	registry := langdriver.NewRegistry()

	result, err := DeepSlice(root, cfg, registry, nil, Params{BudgetTokens: 5})
	if err != nil {
		t.Fatalf("DeepSlice() error = %v", err)
	}
	if result.EstimatedTokens > 5 {
		// manifests are exempt, but there are none here, so total must respect budget
		t.Errorf("EstimatedTokens = %d, want <= 5", result.EstimatedTokens)
	}
}

func TestBuildSlice_TruncatesAtMaxChars(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "big.go"), "package pkg\n\nfunc Big() {\n\tprintln(\"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\")\n}\n")

	cfg := testConfig()
	registry := langdriver.NewRegistry()

	result, err := DeepSlice(root, cfg, registry, nil, Params{MaxChars: 40})
	if err != nil {
		t.Fatalf("DeepSlice() error = %v", err)
	}
	if !result.Truncated {
		t.Error("expected Truncated = true for a tiny max_chars budget")
	}
	if !strings.Contains(result.XML, "TRUNCATED") {
		t.Errorf("expected truncation marker in output, got:\n%s", result.XML)
	}
}

func TestBuildSlice_RanksByQueryWhenVectorStoreProvided(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), "package pkg\n\nfunc Widget() {\n\tprintln(\"w\")\n}\n")
	writeTestFile(t, filepath.Join(root, "gadget.go"), "package pkg\n\nfunc Gadget() {\n\tprintln(\"g\")\n}\n")

	cfg := testConfig()
	registry := langdriver.NewRegistry()
	store := vectorstore.Open(root, cfg, registry, vectorstore.NewEmbedder())

	result, err := DeepSlice(root, cfg, registry, store, Params{Query: "Widget"})
	if err != nil {
		t.Fatalf("DeepSlice() error = %v", err)
	}
	if !strings.Contains(result.XML, "widget.go") {
		t.Errorf("expected widget.go present in ranked slice, got:\n%s", result.XML)
	}
}

func itoaTest(n int) string {
	digits := "0123456789"
	if n < 10 {
		return string(digits[n])
	}
	return string(digits[n/10]) + string(digits[n%10])
}
