package chronos

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cortexast/internal/cortexerrors"
	"cortexast/internal/langdriver"
	"cortexast/internal/output"
	"cortexast/internal/skeleton"
)

// Store owns the <output_dir>/checkpoints/ directory tree.
type Store struct {
	repoRoot string
	baseDir  string
	registry *langdriver.Registry
}

func NewStore(repoRoot, outputDir string, registry *langdriver.Registry) *Store {
	return &Store{
		repoRoot: repoRoot,
		baseDir:  filepath.Join(repoRoot, outputDir, "checkpoints"),
		registry: registry,
	}
}

func (s *Store) namespaceDir(namespace string) string {
	return filepath.Join(s.baseDir, namespace)
}

// legacyDir is the pre-namespace flat checkpoints directory, kept for
// read/delete backward compatibility per spec §6 on-disk layout. It is
// never written to by Save.
func (s *Store) legacyDir() string { return s.baseDir }

// sanitizeForFilename mirrors the Rust original's character policy:
// alnum/underscore/hyphen pass through, whitespace becomes underscore,
// everything else becomes a hyphen, runs of underscores collapse, and
// leading/trailing underscores are trimmed.
func sanitizeForFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteByte('_')
		default:
			b.WriteByte('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

func checkpointFileName(symbol, tag string) string {
	return fmt.Sprintf("%s_%s.json", sanitizeForFilename(symbol), sanitizeForFilename(tag))
}

// Save extracts symbolName from path, computes its structural hash, and
// writes the checkpoint atomically to
// <output_dir>/checkpoints/<namespace>/<symbol>_<tag>.json. Re-saving the
// same (namespace, symbol, tag) overwrites, per spec §3 Checkpoint.
func (s *Store) Save(path, symbolName, semanticTag, namespace string, nowUnix int64) (Checkpoint, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	absPath := path
	if !filepath.IsAbs(path) {
		absPath = filepath.Join(s.repoRoot, path)
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		return Checkpoint{}, cortexerrors.New(cortexerrors.NotFound, fmt.Sprintf("cannot read %s", path)).WithHint("verify the path is relative to the repo root")
	}

	sym, allSyms, err := FindSymbol(s.registry, path, source, symbolName)
	if err != nil {
		return Checkpoint{}, notFoundWithAlternatives(symbolName, allSyms)
	}

	symbolSource := source[sym.ByteStart:sym.ByteEnd]
	shape := NormalizeShape(string(symbolSource))

	skel, err := skeleton.Skeletonize(s.registry, path, symbolSource, skeleton.Options{})
	if err != nil {
		return Checkpoint{}, err
	}

	cp := Checkpoint{
		Namespace:      namespace,
		SymbolName:     symbolName,
		SemanticTag:    semanticTag,
		Path:           path,
		SavedAt:        nowUnix,
		StructuralHash: StructuralHash(shape),
		SkeletonText:   skel.SkeletonText,
		ASTShape:       shape,
	}

	dir := s.namespaceDir(namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Checkpoint{}, err
	}

	data, err := output.DeterministicEncodeIndented(cp, "  ")
	if err != nil {
		return Checkpoint{}, err
	}

	finalPath := filepath.Join(dir, checkpointFileName(symbolName, semanticTag))
	tmp, err := os.CreateTemp(dir, "checkpoint-*.json.tmp")
	if err != nil {
		return Checkpoint{}, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Checkpoint{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Checkpoint{}, err
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return Checkpoint{}, err
	}

	return cp, nil
}

func notFoundWithAlternatives(symbolName string, available []langdriver.Symbol) error {
	names := make([]string, 0, len(available))
	for _, s := range available {
		names = append(names, s.Name)
		if len(names) >= cortexerrors.MaxAlternatives {
			break
		}
	}
	return cortexerrors.New(cortexerrors.NotFound, fmt.Sprintf("symbol %q not found", symbolName)).
		WithAlternatives(names).
		WithHint("use find_usages or map_overview to locate the correct symbol name")
}

// List enumerates every checkpoint file under every namespace directory,
// sorted by tag then symbol then path for deterministic output.
func (s *Store) List() ([]Checkpoint, error) {
	var out []Checkpoint

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		nsDir := filepath.Join(s.baseDir, e.Name())
		files, err := os.ReadDir(nsDir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(nsDir, f.Name()))
			if err != nil {
				continue
			}
			var cp Checkpoint
			if json.Unmarshal(data, &cp) != nil {
				continue
			}
			out = append(out, cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SemanticTag != out[j].SemanticTag {
			return out[i].SemanticTag < out[j].SemanticTag
		}
		if out[i].SymbolName != out[j].SymbolName {
			return out[i].SymbolName < out[j].SymbolName
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Load resolves a single checkpoint by (namespace, symbol, tag), falling
// back to the legacy flat directory when the namespaced file is absent.
func (s *Store) Load(namespace, symbolName, tag string) (Checkpoint, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	fname := checkpointFileName(symbolName, tag)

	data, err := os.ReadFile(filepath.Join(s.namespaceDir(namespace), fname))
	if err != nil {
		data, err = os.ReadFile(filepath.Join(s.legacyDir(), fname))
		if err != nil {
			return Checkpoint{}, cortexerrors.New(cortexerrors.NotFound,
				fmt.Sprintf("no checkpoint for symbol %q at tag %q", symbolName, tag)).
				WithHint("run list_checkpoints to see what exists")
		}
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, cortexerrors.New(cortexerrors.IndexCorruption, "checkpoint file is corrupted")
	}
	return cp, nil
}

// DeleteFilter selects which checkpoints Delete removes. Zero-value fields
// are wildcards; an entirely zero-value filter purges the whole namespace.
type DeleteFilter struct {
	Namespace  string
	SymbolName string
	SemanticTag string
	Path       string
}

// Delete removes every checkpoint matching filter. Omitting every field but
// Namespace purges that namespace entirely. A namespace that doesn't exist
// produces a self-teaching error distinguishing "tag" from "namespace",
// since that's the most common caller confusion (a caller usually means a
// semantic tag, which is a filter WITHIN a namespace, not the namespace
// itself). A filtered delete matching nothing in the namespace directory
// falls back to scanning the legacy flat directory.
func (s *Store) Delete(filter DeleteFilter) (deleted int, err error) {
	namespace := filter.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	nsDir := s.namespaceDir(namespace)
	if _, statErr := os.Stat(nsDir); os.IsNotExist(statErr) {
		if filter.SymbolName == "" && filter.SemanticTag == "" && filter.Path == "" {
			return 0, cortexerrors.New(cortexerrors.NotFound,
				fmt.Sprintf("namespace %q does not exist", namespace)).
				WithHint("`namespace` groups checkpoints together; `semantic_tag` is a label within a namespace — check you didn't swap the two")
		}
	}

	n, err := s.deleteFromDir(nsDir, filter)
	if err != nil {
		return 0, err
	}
	unfiltered := filter.SymbolName == "" && filter.SemanticTag == "" && filter.Path == ""
	if n > 0 || unfiltered {
		return n, nil
	}

	// Fall back to the legacy flat directory for backward compatibility.
	legacyFiles, _ := os.ReadDir(s.legacyDir())
	var legacyMatched int
	for _, f := range legacyFiles {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.legacyDir(), f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cp Checkpoint
		if json.Unmarshal(data, &cp) != nil {
			continue
		}
		if !matchesFilter(cp, filter) {
			continue
		}
		if os.Remove(path) == nil {
			legacyMatched++
		}
	}
	return legacyMatched, nil
}

func (s *Store) deleteFromDir(dir string, filter DeleteFilter) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	deleted := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cp Checkpoint
		if json.Unmarshal(data, &cp) != nil {
			continue
		}
		if !matchesFilter(cp, filter) {
			continue
		}
		if os.Remove(path) == nil {
			deleted++
		}
	}
	return deleted, nil
}

func matchesFilter(cp Checkpoint, filter DeleteFilter) bool {
	if filter.SymbolName != "" && cp.SymbolName != filter.SymbolName {
		return false
	}
	if filter.SemanticTag != "" && cp.SemanticTag != filter.SemanticTag {
		return false
	}
	if filter.Path != "" && cp.Path != filter.Path {
		return false
	}
	return true
}
