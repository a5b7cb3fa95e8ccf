package vectorstore

import (
	"os"
	"path/filepath"
	"testing"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.VectorSearch.ChunkLines = 10
	return cfg
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_Refresh_IndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	cfg := testConfig()
	store := Open(root, cfg, langdriver.NewRegistry(), NewEmbedder())

	idx, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, ok := idx.Entries["main.go"]; !ok {
		t.Errorf("expected main.go indexed, got entries %v", idx.Entries)
	}
}

func TestStore_Refresh_SkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc F() {}\n")

	cfg := testConfig()
	store := Open(root, cfg, langdriver.NewRegistry(), NewEmbedder())

	idx1, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	hash1 := idx1.Entries["a.go"].ContentHash

	idx2, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if idx2.Entries["a.go"].ContentHash != hash1 {
		t.Error("content hash should be stable when file is unchanged")
	}
}

func TestStore_Refresh_RemovesOrphanedEntries(t *testing.T) {
	root := t.TempDir()
	pathA := filepath.Join(root, "a.go")
	writeTestFile(t, pathA, "package a\n\nfunc F() {}\n")

	cfg := testConfig()
	store := Open(root, cfg, langdriver.NewRegistry(), NewEmbedder())

	if _, err := store.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if err := os.Remove(pathA); err != nil {
		t.Fatal(err)
	}

	idx, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, ok := idx.Entries["a.go"]; ok {
		t.Error("deleted file's entry should be removed on refresh")
	}
}

func TestStore_Refresh_DiscardsIndexOnChunkLinesChange(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc F() {}\n")

	cfg := testConfig()
	store := Open(root, cfg, langdriver.NewRegistry(), NewEmbedder())
	if _, err := store.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	cfg2 := testConfig()
	cfg2.VectorSearch.ChunkLines = 99
	store2 := Open(root, cfg2, langdriver.NewRegistry(), NewEmbedder())
	idx2, err := store2.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if idx2.ChunkLines != 99 {
		t.Errorf("expected rebuilt index to carry new chunk_lines, got %d", idx2.ChunkLines)
	}
}

func TestStore_QuarantinesCorruptIndex(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.go"), "package a\n")

	cfg := testConfig()
	store := Open(root, cfg, langdriver.NewRegistry(), NewEmbedder())

	if err := os.MkdirAll(store.dbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.indexPath(), []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := os.Stat(store.indexPath() + quarantineExtension); err != nil {
		t.Error("corrupted index should have been renamed to .bak")
	}
	if len(idx.Entries) != 1 {
		t.Errorf("expected fresh index rebuilt with 1 entry, got %d", len(idx.Entries))
	}
}
