package router

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cortexast/internal/chronos"
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

func newTestRouter(t *testing.T) (*Router, string) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	registry := langdriver.NewRegistry()
	store := vectorstore.Open(root, cfg, registry, vectorstore.NewEmbedder())
	chronosStore := chronos.NewStore(root, cfg.OutputDir, registry)
	return New(root, cfg, registry, store, chronosStore), root
}

func TestResolveTool_Megatool(t *testing.T) {
	mt, action, ok := resolveTool(ToolCodeExplorer, ActionMapOverview)
	if !ok || mt != ToolCodeExplorer || action != ActionMapOverview {
		t.Fatalf("resolveTool(megatool) = %q, %q, %t", mt, action, ok)
	}
}

func TestResolveTool_LegacyShim(t *testing.T) {
	mt, action, ok := resolveTool(ActionMapOverview, "")
	if !ok || mt != ToolCodeExplorer || action != ActionMapOverview {
		t.Fatalf("resolveTool(legacy) = %q, %q, %t", mt, action, ok)
	}
}

func TestResolveTool_UnknownRejected(t *testing.T) {
	_, _, ok := resolveTool("not_a_tool", "")
	if ok {
		t.Fatal("expected unknown tool name to be rejected")
	}
}

func TestDispatch_MapOverview(t *testing.T) {
	r, root := newTestRouter(t)
	writeTestFile(t, filepath.Join(root, "widget.go"), "package pkg\n\nfunc Widget() {}\n")

	result, err := r.Dispatch(ToolCodeExplorer, map[string]interface{}{"action": ActionMapOverview})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(result.Text, "widget.go") {
		t.Errorf("expected widget.go in overview, got:\n%s", result.Text)
	}
}

func TestDispatch_LegacyBareActionName(t *testing.T) {
	r, root := newTestRouter(t)
	writeTestFile(t, filepath.Join(root, "widget.go"), "package pkg\n\nfunc Widget() {}\n")

	result, err := r.Dispatch(ActionMapOverview, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(result.Text, "widget.go") {
		t.Errorf("expected widget.go in legacy-shimmed overview, got:\n%s", result.Text)
	}
}

func TestDispatch_MaxCharsTruncatesWithMarker(t *testing.T) {
	r, root := newTestRouter(t)
	for i := 0; i < 5; i++ {
		writeTestFile(t, filepath.Join(root, "pkg", string(rune('a'+i))+".go"), "package pkg\n\nfunc F() {}\n")
	}

	result, err := r.Dispatch(ToolCodeExplorer, map[string]interface{}{"action": ActionMapOverview, "max_chars": 10})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !result.Truncated {
		t.Error("expected Truncated = true for a tiny max_chars")
	}
	if !strings.Contains(result.Text, "TRUNCATED") {
		t.Errorf("expected truncation marker, got:\n%s", result.Text)
	}
}

func TestDispatch_ChronosRoundTrip(t *testing.T) {
	r, root := newTestRouter(t)
	writeTestFile(t, filepath.Join(root, "widget.go"), "package pkg\n\nfunc Widget() {}\n")

	_, err := r.Dispatch(ToolChronos, map[string]interface{}{
		"action":       ActionSaveCheckpoint,
		"path":         "widget.go",
		"symbol_name":  "Widget",
		"semantic_tag": "pre",
	})
	if err != nil {
		t.Fatalf("save_checkpoint error = %v", err)
	}

	result, err := r.Dispatch(ToolChronos, map[string]interface{}{"action": ActionListCheckpoints})
	if err != nil {
		t.Fatalf("list_checkpoints error = %v", err)
	}
	if !strings.Contains(result.Text, "Widget") {
		t.Errorf("expected Widget in checkpoint listing, got:\n%s", result.Text)
	}
}

func TestDispatch_UnknownActionIsInvalidAction(t *testing.T) {
	r, _ := newTestRouter(t)
	_, err := r.Dispatch(ToolCodeExplorer, map[string]interface{}{"action": "not_a_real_action"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized action")
	}
}
