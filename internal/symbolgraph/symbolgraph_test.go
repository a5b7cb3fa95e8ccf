package symbolgraph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
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

const widgetSource = `package pkg

func NewWidget() *Widget {
	return &Widget{}
}

type Widget struct{}

func (w *Widget) Describe() string {
	NewWidget()
	return "widget"
}

func caller() {
	w := NewWidget()
	w.Describe()
}
`

func TestMapOverview_ListsSymbolsInFullMode(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	result, err := MapOverview(root, config.DefaultConfig(), langdriver.NewRegistry(), OverviewParams{})
	if err != nil {
		t.Fatalf("MapOverview() error = %v", err)
	}
	if result.Strict {
		t.Error("expected full mode for a single-file repo")
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(result.Files))
	}
	found := false
	for _, s := range result.Files[0].Symbols {
		if strings.Contains(s, "Widget") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Widget symbol listed, got %v", result.Files[0].Symbols)
	}
}

func TestMapOverview_DidYouMeanOnMissingTarget(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	_, err := MapOverview(root, config.DefaultConfig(), langdriver.NewRegistry(), OverviewParams{TargetDir: "does-not-exist"})
	if err == nil {
		t.Fatal("expected error for nonexistent target_dir")
	}
}

func TestReadSource_FindsExactSymbol(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	results, err := ReadSource(root, langdriver.NewRegistry(), "widget.go", []string{"Describe"}, false)
	if err != nil {
		t.Fatalf("ReadSource() error = %v", err)
	}
	if len(results) != 1 || !results[0].Found {
		t.Fatalf("expected Describe found, got %+v", results)
	}
	if !strings.Contains(results[0].Source, "return \"widget\"") {
		t.Errorf("expected Describe body in source, got %q", results[0].Source)
	}
}

func TestReadSource_MissingSymbolListsAlternatives(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	results, err := ReadSource(root, langdriver.NewRegistry(), "widget.go", []string{"Nonexistent"}, false)
	if err != nil {
		t.Fatalf("ReadSource() error = %v", err)
	}
	if len(results) != 1 || results[0].Found {
		t.Fatalf("expected Nonexistent not found, got %+v", results)
	}
	if results[0].Error == nil {
		t.Error("expected a structured error for the missing symbol")
	}
}

func TestFindUsages_GroupsByPathAndCategory(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	groups, err := FindUsages(root, config.DefaultConfig(), langdriver.NewRegistry(), "Widget", "", false)
	if err != nil {
		t.Fatalf("FindUsages() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Path != "widget.go" {
		t.Fatalf("expected usages grouped under widget.go, got %+v", groups)
	}
}

func TestBlastRadius_FindsDefinitionOutgoingAndIncoming(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	result, err := BlastRadius(root, config.DefaultConfig(), langdriver.NewRegistry(), "NewWidget", "", false)
	if err != nil {
		t.Fatalf("BlastRadius() error = %v", err)
	}
	if result.Definition.Name != "NewWidget" {
		t.Fatalf("expected NewWidget definition, got %+v", result.Definition)
	}
	foundCaller := false
	for _, inc := range result.Incoming {
		if inc.Enclosing == "caller" {
			foundCaller = true
		}
	}
	if !foundCaller {
		t.Errorf("expected an incoming caller enclosed by function 'caller', got %+v", result.Incoming)
	}
}

func TestBlastRadius_UnknownSymbolErrors(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), widgetSource)

	_, err := BlastRadius(root, config.DefaultConfig(), langdriver.NewRegistry(), "Nonexistent", "", false)
	if err == nil {
		t.Fatal("expected error for a symbol with no definition")
	}
}

func TestPropagationChecklist_IncludesCasingAliases(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "widget.go"), `package pkg

func process_widget() {}

func caller() {
	process_widget()
}
`)

	result, err := PropagationChecklist(root, config.DefaultConfig(), langdriver.NewRegistry(), "process_widget", nil, false)
	if err != nil {
		t.Fatalf("PropagationChecklist() error = %v", err)
	}
	if result.TotalFiles != 1 {
		t.Fatalf("expected 1 matched file, got %d", result.TotalFiles)
	}
}

func TestToCasingVariants(t *testing.T) {
	if got := toSnakeCase("ProcessWidget"); got != "process_widget" {
		t.Errorf("toSnakeCase = %q, want process_widget", got)
	}
	if got := toCamelCase("process_widget"); got != "processWidget" {
		t.Errorf("toCamelCase = %q, want processWidget", got)
	}
	if got := toPascalCase("process_widget"); got != "ProcessWidget" {
		t.Errorf("toPascalCase = %q, want ProcessWidget", got)
	}
}
