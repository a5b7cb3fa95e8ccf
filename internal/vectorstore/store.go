package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/output"
	"cortexast/internal/scanner"
	"cortexast/internal/skeleton"
)

// indexFileName and its quarantine sibling, per spec §6 on-disk layout.
const (
	indexFileName       = "index.json"
	quarantineExtension = ".bak"
)

// Store owns the on-disk flat-file index under <repo_root>/<output_dir>/db.
// Per spec §5, it is the one shared mutable resource in the whole system;
// callers are expected to run one process per repo root at a time.
type Store struct {
	repoRoot string
	dbDir    string
	cfg      *config.Config
	registry *langdriver.Registry
	embedder Embedder
}

// Open does not itself touch disk; the index is loaded lazily on first
// Refresh/Query call, matching the "refresh-on-query" protocol (there is no
// separate "open index" step in the external interface).
func Open(repoRoot string, cfg *config.Config, registry *langdriver.Registry, embedder Embedder) *Store {
	return &Store{
		repoRoot: repoRoot,
		dbDir:    filepath.Join(repoRoot, cfg.OutputDir, "db"),
		cfg:      cfg,
		registry: registry,
		embedder: embedder,
	}
}

func (s *Store) indexPath() string { return filepath.Join(s.dbDir, indexFileName) }

// load reads the index, quarantining and discarding it on any parse
// failure (IndexCorruption, per spec §7) rather than surfacing an error.
func (s *Store) load() *Index {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		s.quarantine()
		return nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]FileEntry)
	}
	return &idx
}

// quarantine renames a corrupted index file to index.json.bak so the next
// refresh starts clean without losing the evidence of the corruption.
func (s *Store) quarantine() {
	_ = os.Rename(s.indexPath(), s.indexPath()+quarantineExtension)
}

func (s *Store) save(idx *Index) error {
	if err := os.MkdirAll(s.dbDir, 0o755); err != nil {
		return err
	}
	data, err := output.DeterministicEncode(idx)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dbDir, "index-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.indexPath())
}

// Refresh runs the refresh-on-query protocol of spec §4.4 and returns the
// loaded (and possibly just-rebuilt) index ready for Query.
func (s *Store) Refresh() (*Index, error) {
	idx := s.load()
	if !idx.matchesConfig(s.embedder.ModelID(), s.cfg.VectorSearch.ChunkLines) {
		idx = newIndex(s.embedder.ModelID(), s.cfg.VectorSearch.ChunkLines)
	}

	records, err := scanner.Walk(s.repoRoot, s.cfg, scanner.Options{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.SkipReason != scanner.SkipNone {
			continue
		}
		seen[rec.Path] = true

		existing, had := idx.Entries[rec.Path]
		if had && existing.ContentHash == hashToHex(rec.ContentHash) && existing.Size == rec.Size {
			continue
		}

		entry, err := s.buildEntry(rec)
		if err != nil || entry == nil {
			continue
		}
		idx.Entries[rec.Path] = *entry
	}

	for path := range idx.Entries {
		if !seen[path] {
			delete(idx.Entries, path)
		}
	}

	if err := s.save(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func hashToHex(h uint64) string { return fmt.Sprintf("%016x", h) }

// buildEntry skeletonizes the file, slices it into fixed-size chunk_lines
// windows, and embeds every non-blank window. It only runs for files whose
// overall content_hash changed (or that are new), so every window here is
// freshly embedded. Each chunk records its own content_hash_of_chunk;
// neither Query nor Refresh reads that per-chunk hash back.
func (s *Store) buildEntry(rec scanner.FileRecord) (*FileEntry, error) {
	absPath := filepath.Join(s.repoRoot, rec.Path)
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	skel, err := skeleton.Skeletonize(s.registry, rec.Path, source, skeleton.Options{
		CharsPerToken: s.cfg.TokenEstimator.CharsPerToken,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(skel.SkeletonText) == "" {
		return nil, nil
	}

	chunkLines := s.cfg.VectorSearch.ChunkLines
	if chunkLines <= 0 {
		chunkLines = 40
	}

	symbolsByLine := s.symbolHeaders(rec.Path, source)
	lines := strings.Split(skel.SkeletonText, "\n")

	var chunks []Chunk
	for start := 0; start < len(lines); start += chunkLines {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		windowText := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(windowText) == "" {
			continue
		}

		chunk := Chunk{
			StartLine:   start,
			EndLine:     end - 1,
			ContentHash: hashToHex(xxhash.Sum64String(windowText)),
			Vector:      s.embedder.Embed(windowText),
			Symbols:     symbolHeadersInRange(symbolsByLine, start, end-1),
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return nil, nil
	}

	return &FileEntry{
		ContentHash: hashToHex(xxhash.Sum64(source)),
		Size:        rec.Size,
		Chunks:      chunks,
	}, nil
}

// symbolHeaders pairs each definition's 0-indexed start line with its
// "kind name" header, sorted for deterministic chunk assignment.
func (s *Store) symbolHeaders(path string, source []byte) []lineHeader {
	driver := s.registry.ForPath(path)
	syms, err := driver.ExtractDefinitions(path, source)
	if err != nil {
		return nil
	}
	headers := make([]lineHeader, 0, len(syms))
	for _, sym := range syms {
		headers = append(headers, lineHeader{
			line:   sym.LineStart - 1,
			header: string(sym.Kind) + " " + sym.Name,
		})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].line < headers[j].line })
	return headers
}

type lineHeader struct {
	line   int
	header string
}

func symbolHeadersInRange(headers []lineHeader, startLine, endLine int) []string {
	var out []string
	for _, h := range headers {
		if h.line >= startLine && h.line <= endLine {
			out = append(out, h.header)
		}
	}
	return out
}
