package slicehistory

import (
	"strings"
	"testing"
)

func TestArchiveAndRead_RoundTrips(t *testing.T) {
	root := t.TempDir()
	s := Open(root, ".cortexast")

	xml := "<repository_slice>\n<file path=\"widget.go\"><![CDATA[package pkg]]></file>\n</repository_slice>"
	entry, err := s.Archive("internal/widget", xml, 1700000000)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	got, err := Read(entry.Path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != xml {
		t.Errorf("Read() = %q, want %q", got, xml)
	}
}

func TestArchive_SanitizesTargetForFilename(t *testing.T) {
	root := t.TempDir()
	s := Open(root, ".cortexast")

	entry, err := s.Archive("internal/pkg:weird name", "<x/>", 1700000001)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if strings.ContainsAny(entry.Path, ":") {
		t.Errorf("expected sanitized filename, got %q", entry.Path)
	}
}

func TestList_ReturnsArchivedEntries(t *testing.T) {
	root := t.TempDir()
	s := Open(root, ".cortexast")

	if _, err := s.Archive("a", "<x/>", 1700000000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Archive("b", "<y/>", 1700000001); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
}

func TestArchive_PrunesBeyondMaxRetained(t *testing.T) {
	root := t.TempDir()
	s := Open(root, ".cortexast")

	for i := 0; i < maxRetained+5; i++ {
		if _, err := s.Archive("widget", "<x/>", int64(1700000000+i)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) > maxRetained {
		t.Errorf("List() returned %d entries, want <= %d", len(entries), maxRetained)
	}
}
