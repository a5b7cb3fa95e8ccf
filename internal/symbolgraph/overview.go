// Package symbolgraph implements the Symbol Graph Operations coordinator:
// map_overview, read_source, find_usages, find_implementations,
// blast_radius, and propagation_checklist, each composed from the Scanner
// and Language Driver Registry the way the teacher's query engine composes
// independent backends behind one coordinator.
package symbolgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cortexast/internal/config"
	"cortexast/internal/cortexerrors"
	"cortexast/internal/langdriver"
	"cortexast/internal/scanner"
	"cortexast/internal/skeleton"
)

// StrictSummaryThreshold is the file-count cutoff above which map_overview
// collapses to a one-line summary plus single-line-per-file skeletons.
const StrictSummaryThreshold = 50

// symbolFilterFileCap is the repo-size ceiling under which search_filter
// also matches against symbol names, not just file paths.
const symbolFilterFileCap = 300

// maxDidYouMeanEntries bounds the did-you-mean listing when a target path
// does not exist.
const maxDidYouMeanEntries = 30

// OverviewParams controls a single map_overview call.
type OverviewParams struct {
	TargetDir       string
	SearchFilter    string // OR-separated by "|", case-insensitive substring
	IgnoreGitignore bool
}

// FileOverview is one file's entry in a map_overview result.
type FileOverview struct {
	Path         string
	Language     string
	Symbols      []string // "kind name", full mode only
	SkeletonLine string   // single-line skeleton, strict mode only
}

// OverviewResult is map_overview's structured output.
type OverviewResult struct {
	Strict       bool
	TotalFiles   int
	IncludedDirs string
	Files        []FileOverview
	DroppedCount int
	DidYouMean   []string
}

// MapOverview implements spec §4.5.1.
func MapOverview(repoRoot string, cfg *config.Config, registry *langdriver.Registry, p OverviewParams) (OverviewResult, error) {
	targetAbs := repoRoot
	if p.TargetDir != "" {
		targetAbs = filepath.Join(repoRoot, p.TargetDir)
	}
	if _, err := os.Stat(targetAbs); err != nil {
		entries, _ := os.ReadDir(repoRoot)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		if len(names) > maxDidYouMeanEntries {
			names = names[:maxDidYouMeanEntries]
		}
		return OverviewResult{}, cortexerrors.New(cortexerrors.NotFound,
			fmt.Sprintf("target path %q does not exist", p.TargetDir)).
			WithAlternatives(names).
			WithHint("pick one of the top-level entries listed, or call map_overview with an empty target_dir")
	}

	allRecords, err := scanner.Walk(repoRoot, cfg, scanner.Options{IgnoreGitignore: p.IgnoreGitignore})
	if err != nil {
		return OverviewResult{}, err
	}

	totalFiles := len(allRecords)
	strict := totalFiles > StrictSummaryThreshold
	allowSymbolFilter := totalFiles <= symbolFilterFileCap

	filters := parseFilters(p.SearchFilter)

	var candidates []scanner.FileRecord
	for _, r := range allRecords {
		if r.SkipReason != scanner.SkipNone {
			continue
		}
		if p.TargetDir != "" && !underTarget(r.Path, p.TargetDir) {
			continue
		}
		candidates = append(candidates, r)
	}

	result := OverviewResult{Strict: strict, TotalFiles: totalFiles}
	dropped := 0

	for _, rec := range candidates {
		source, err := os.ReadFile(filepath.Join(repoRoot, rec.Path))
		if err != nil {
			continue
		}
		driver := registry.ForPath(rec.Path)
		symbols, _ := driver.ExtractDefinitions(rec.Path, source)

		if len(filters) > 0 {
			pathMatch := matchesAny(rec.Path, filters)
			symbolMatch := false
			if allowSymbolFilter {
				for _, sym := range symbols {
					if matchesAny(sym.Name, filters) {
						symbolMatch = true
						break
					}
				}
			}
			if !pathMatch && !symbolMatch {
				dropped++
				continue
			}
		}

		fo := FileOverview{Path: rec.Path, Language: rec.LanguageTag}
		if strict {
			skel, err := skeleton.Skeletonize(registry, rec.Path, source, skeleton.Options{})
			if err == nil {
				fo.SkeletonLine = collapseToLine(skel.SkeletonText, 160)
			}
		} else {
			for _, sym := range symbols {
				fo.Symbols = append(fo.Symbols, string(sym.Kind)+" "+sym.Name)
			}
		}
		result.Files = append(result.Files, fo)
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	result.DroppedCount = dropped
	return result, nil
}

// Render formats the overview result as the textual block returned to the
// caller, per spec §4.5.1's "one-line summary... dropped-file diagnostics".
func (r OverviewResult) Render() string {
	var b strings.Builder
	if r.Strict {
		fmt.Fprintf(&b, "%d files scanned, %d included (strict summary mode)\n", r.TotalFiles, len(r.Files))
	}
	for _, f := range r.Files {
		if r.Strict {
			fmt.Fprintf(&b, "%s [%s]: %s\n", f.Path, f.Language, f.SkeletonLine)
			continue
		}
		fmt.Fprintf(&b, "%s [%s]\n", f.Path, f.Language)
		for _, sym := range f.Symbols {
			fmt.Fprintf(&b, "  %s\n", sym)
		}
	}
	if r.DroppedCount > 0 {
		fmt.Fprintf(&b, "(%d file(s) excluded by search_filter)\n", r.DroppedCount)
	}
	return b.String()
}

func parseFilters(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	filters := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			filters = append(filters, p)
		}
	}
	return filters
}

func matchesAny(s string, filters []string) bool {
	lower := strings.ToLower(s)
	for _, f := range filters {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

func underTarget(path, targetDir string) bool {
	target := strings.TrimSuffix(targetDir, "/")
	return path == target || strings.HasPrefix(path, target+"/")
}

func collapseToLine(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > maxLen {
		return collapsed[:maxLen] + "..."
	}
	return collapsed
}
