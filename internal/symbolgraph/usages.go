package symbolgraph

import (
	"os"
	"path/filepath"
	"sort"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/scanner"
)

// UsageGroup is all usages for one file, grouped by category within.
type UsageGroup struct {
	Path       string
	ByCategory map[langdriver.UsageCategory][]langdriver.Usage
}

// FindUsages implements spec §4.5.4: scans every parseable file under
// target_dir, aggregates Usage records, and groups output by path then by
// category in deterministic order.
func FindUsages(repoRoot string, cfg *config.Config, registry *langdriver.Registry, symbolName, targetDir string, ignoreGitignore bool) ([]UsageGroup, error) {
	records, err := scanner.Walk(repoRoot, cfg, scanner.Options{Target: targetDir, IgnoreGitignore: ignoreGitignore})
	if err != nil {
		return nil, err
	}

	var groups []UsageGroup
	for _, rec := range records {
		if rec.SkipReason != scanner.SkipNone {
			continue
		}
		source, err := os.ReadFile(filepath.Join(repoRoot, rec.Path))
		if err != nil {
			continue
		}
		driver := registry.ForPath(rec.Path)
		usages, err := driver.ExtractUsages(rec.Path, source, symbolName)
		if err != nil || len(usages) == 0 {
			continue
		}

		byCategory := make(map[langdriver.UsageCategory][]langdriver.Usage)
		for _, u := range usages {
			byCategory[u.Category] = append(byCategory[u.Category], u)
		}
		for cat := range byCategory {
			sort.Slice(byCategory[cat], func(i, j int) bool {
				return byCategory[cat][i].Line < byCategory[cat][j].Line
			})
		}
		groups = append(groups, UsageGroup{Path: rec.Path, ByCategory: byCategory})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Path < groups[j].Path })
	return groups, nil
}

// categoryOrder fixes a deterministic rendering order across categories.
var categoryOrder = []langdriver.UsageCategory{
	langdriver.CategoryCall,
	langdriver.CategoryTypeRef,
	langdriver.CategoryFieldInit,
	langdriver.CategoryFieldAccess,
	langdriver.CategoryImpl,
}
