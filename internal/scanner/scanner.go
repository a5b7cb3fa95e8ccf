// Package scanner implements the Scanner/Walker component: a deterministic,
// repo-relative file enumeration that honors .gitignore semantics and a
// built-in deny-list, and flags binary/oversized/minified content without
// aborting the walk.
package scanner

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"cortexast/internal/config"
	"cortexast/internal/paths"
)

// SkipReason explains why a File Record could not be parsed.
type SkipReason string

const (
	SkipNone               SkipReason = ""
	SkipBinary             SkipReason = "binary"
	SkipTooLarge           SkipReason = "too_large"
	SkipMinified           SkipReason = "minified"
	SkipUnsupportedExt     SkipReason = "unsupported_extension"
	SkipUnreadable         SkipReason = "unreadable"
)

// FileRecord is the Scanner's output unit, per spec §3.
type FileRecord struct {
	Path         string // repo-relative, forward-slash
	Size         int64
	ModifiedTime int64 // unix seconds
	ContentHash  uint64
	LanguageTag  string
	SkipReason   SkipReason
}

// Options controls a single Walk call.
type Options struct {
	// Target is a file or directory path relative to the repo root. Empty
	// means the repo root itself.
	Target string
	// IgnoreGitignore disables .gitignore honoring when true.
	IgnoreGitignore bool
}

// binaryProbeBytes is how much of a file's head is sniffed for NUL bytes /
// invalid UTF-8 before a file is declared binary.
const binaryProbeBytes = 8 * 1024

// Walk enumerates File Records under cfg.Scan-governed rules, deterministically
// sorted by repo-relative path. Unreadable entries are recorded, never fatal.
func Walk(repoRoot string, cfg *config.Config, opts Options) ([]FileRecord, error) {
	targetAbs := repoRoot
	if opts.Target != "" {
		targetAbs = filepath.Join(repoRoot, opts.Target)
	}

	ignorer, err := newIgnorer(repoRoot, cfg.Scan.ExcludeDirNames, opts.IgnoreGitignore)
	if err != nil {
		return nil, err
	}

	var records []FileRecord
	walkErr := filepath.Walk(targetAbs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			rel, _ := filepath.Rel(repoRoot, path)
			records = append(records, FileRecord{
				Path:       paths.NormalizePath(rel),
				SkipReason: SkipUnreadable,
			})
			return nil
		}

		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = paths.NormalizePath(rel)
		if rel == "." {
			return nil
		}

		isDir := info.IsDir()
		if ignorer.shouldPrune(rel, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}

		rec := buildRecord(path, rel, info, cfg)
		records = append(records, rec)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func buildRecord(absPath, relPath string, info os.FileInfo, cfg *config.Config) FileRecord {
	rec := FileRecord{
		Path:         relPath,
		Size:         info.Size(),
		ModifiedTime: info.ModTime().Unix(),
		LanguageTag:  languageFromExt(filepath.Ext(relPath)),
	}

	maxBytes := cfg.Scan.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	if rec.Size > maxBytes {
		rec.SkipReason = SkipTooLarge
		return rec
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		rec.SkipReason = SkipUnreadable
		return rec
	}

	rec.ContentHash = xxhash.Sum64(data)

	if isBinary(data) {
		rec.SkipReason = SkipBinary
		return rec
	}

	maxLineChars := cfg.Scan.MaxLineChars
	if maxLineChars <= 0 {
		maxLineChars = 10000
	}
	if longestLineExceeds(data, maxLineChars) {
		rec.SkipReason = SkipMinified
		return rec
	}

	if rec.LanguageTag == "" {
		rec.SkipReason = SkipUnsupportedExt
	}

	return rec
}

// isBinary applies the spec's NUL-byte / lossy-UTF8 heuristic over the first
// 8 KiB of the file.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeBytes {
		probe = probe[:binaryProbeBytes]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	invalid := 0
	total := 0
	for len(probe) > 0 {
		r, size := utf8.DecodeRune(probe)
		total++
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		probe = probe[size:]
	}
	if total == 0 {
		return false
	}
	return float64(invalid)/float64(total) > 0.1
}

func longestLineExceeds(data []byte, limit int) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), limit+1024)
	for scanner.Scan() {
		if len(scanner.Text()) > limit {
			return true
		}
	}
	return false
}

var extToLanguage = map[string]string{
	".rs":    "rust",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".py":    "python",
	".pyi":   "python",
	".go":    "go",
	".proto": "proto",
}

func languageFromExt(ext string) string {
	return extToLanguage[strings.ToLower(ext)]
}
