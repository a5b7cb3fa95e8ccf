package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunSlice_WritesActiveContextAndMeta(t *testing.T) {
	repoRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(repoRoot, "widget.go"), []byte("package widget\n\nfunc Widget() {}\n"), 0644); err != nil {
		t.Fatalf("write widget.go: %v", err)
	}

	origRoot, origTarget, origOutDir := rootFlag, sliceTarget, sliceOutputDir
	rootFlag = repoRoot
	sliceTarget = ""
	sliceOutputDir = ".cortexast"
	t.Cleanup(func() {
		rootFlag, sliceTarget, sliceOutputDir = origRoot, origTarget, origOutDir
	})

	if err := runSlice(sliceCmd, nil); err != nil {
		t.Fatalf("runSlice() error = %v", err)
	}

	outDir := filepath.Join(repoRoot, sliceOutputDir)
	xmlBytes, err := os.ReadFile(filepath.Join(outDir, "active_context.xml"))
	if err != nil {
		t.Fatalf("reading active_context.xml: %v", err)
	}
	if len(xmlBytes) == 0 {
		t.Error("active_context.xml is empty")
	}

	metaBytes, err := os.ReadFile(filepath.Join(outDir, "active_context.meta.json"))
	if err != nil {
		t.Fatalf("reading active_context.meta.json: %v", err)
	}
	var meta sliceMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	if meta.IncludedFiles == 0 {
		t.Error("expected at least one included file in slice metadata")
	}

	entries, err := os.ReadDir(filepath.Join(outDir, "slice_history"))
	if err != nil {
		t.Fatalf("reading slice_history dir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected slice history to contain an archived entry")
	}
}
