// Package slicehistory archives each one-shot `cortexast slice` run's XML
// output under the repo's output directory, zstd-compressed, so a caller
// can compare a rerun against the last few snapshots without re-slicing —
// grounded on teacher `internal/compression`'s budget/limits bookkeeping
// (the shape of tracking "what got kept, what got dropped"), generalized
// here from in-memory response compression to on-disk archival.
package slicehistory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
)

const (
	archiveDirName = "slice_history"
	// maxRetained bounds how many archived slices are kept per target
	// before the oldest are pruned, so the archive directory doesn't grow
	// unbounded across repeated one-shot CLI invocations.
	maxRetained = 20
)

// Entry describes one archived slice.
type Entry struct {
	Path      string
	Target    string
	Timestamp int64
	Bytes     int
}

// Store archives and lists slice_history entries under outputDir.
type Store struct {
	dir string
}

// Open returns a Store rooted at "<repoRoot>/<outputDir>/slice_history".
func Open(repoRoot, outputDir string) *Store {
	return &Store{dir: filepath.Join(repoRoot, outputDir, archiveDirName)}
}

// Archive zstd-compresses xml and writes it as "<target>-<timestamp>.xml.zst",
// pruning older entries for the same target beyond maxRetained.
func (s *Store) Archive(target string, xml string, nowUnix int64) (Entry, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create slice history dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return Entry{}, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer encoder.Close()
	compressed := encoder.EncodeAll([]byte(xml), nil)

	safeTarget := sanitizeTarget(target)
	fileName := fmt.Sprintf("%s-%d.xml.zst", safeTarget, nowUnix)
	fullPath := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(fullPath, compressed, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write archived slice: %w", err)
	}

	s.prune(safeTarget)

	return Entry{Path: fullPath, Target: target, Timestamp: nowUnix, Bytes: len(compressed)}, nil
}

// List returns archived entries for every target, sorted by file path in
// descending order: grouped by sanitized target name, newest first within a
// target. Entries from different targets are not ordered by time, and only
// Path and Bytes are filled in.
func (s *Store) List() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.xml.zst"))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: path, Bytes: int(info.Size())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path > entries[j].Path })
	return entries, nil
}

// Read decompresses a previously archived slice back to its XML text.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read archived slice: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return "", fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("decompress archived slice: %w", err)
	}
	return string(raw), nil
}

func (s *Store) prune(target string) {
	matches, err := filepath.Glob(filepath.Join(s.dir, target+"-*.xml.zst"))
	if err != nil || len(matches) <= maxRetained {
		return
	}
	sort.Strings(matches)
	excess := len(matches) - maxRetained
	for _, old := range matches[:excess] {
		os.Remove(old)
	}
}

func sanitizeTarget(target string) string {
	if target == "" {
		return "root"
	}
	out := make([]rune, 0, len(target))
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
