package symbolgraph

import (
	"os"
	"path/filepath"
	"sort"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/scanner"
)

// ImplementationGroup is all implementors found for one language.
type ImplementationGroup struct {
	Language     langdriver.Language
	Implementors []langdriver.Implementor
}

// FindImplementations implements spec §4.5.5: uses each driver's Extract
// Implementors operation, grouping results by language in the registry's
// fixed domain order.
func FindImplementations(repoRoot string, cfg *config.Config, registry *langdriver.Registry, symbolName, targetDir string, ignoreGitignore bool) ([]ImplementationGroup, error) {
	records, err := scanner.Walk(repoRoot, cfg, scanner.Options{Target: targetDir, IgnoreGitignore: ignoreGitignore})
	if err != nil {
		return nil, err
	}

	byLang := make(map[langdriver.Language][]langdriver.Implementor)
	for _, rec := range records {
		if rec.SkipReason != scanner.SkipNone {
			continue
		}
		source, err := os.ReadFile(filepath.Join(repoRoot, rec.Path))
		if err != nil {
			continue
		}
		driver := registry.ForPath(rec.Path)
		impls, err := driver.ExtractImplementors(rec.Path, source, symbolName)
		if err != nil || len(impls) == 0 {
			continue
		}
		byLang[driver.Language()] = append(byLang[driver.Language()], impls...)
	}

	var groups []ImplementationGroup
	for _, lang := range registry.Languages() {
		impls, ok := byLang[lang]
		if !ok {
			continue
		}
		sort.Slice(impls, func(i, j int) bool {
			if impls[i].Path != impls[j].Path {
				return impls[i].Path < impls[j].Path
			}
			return impls[i].Line < impls[j].Line
		})
		groups = append(groups, ImplementationGroup{Language: lang, Implementors: impls})
	}
	return groups, nil
}
