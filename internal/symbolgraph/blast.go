package symbolgraph

import (
	"os"
	"path/filepath"
	"sort"

	"cortexast/internal/config"
	"cortexast/internal/cortexerrors"
	"cortexast/internal/langdriver"
	"cortexast/internal/scanner"
)

// IncomingCaller is one caller site, with the enclosing function/method it
// was found inside, per spec §4.5.6.
type IncomingCaller struct {
	Path        string
	Line        int
	Enclosing   string
	Category    langdriver.UsageCategory
}

// BlastRadiusResult is blast_radius's three-section output.
type BlastRadiusResult struct {
	Definition langdriver.Symbol
	DefPath    string
	Outgoing   []langdriver.OutgoingCall
	Incoming   []IncomingCaller
}

// BlastRadius implements spec §4.5.6: the primary definition, its outgoing
// calls, and every incoming caller annotated with the enclosing symbol
// found by walking ancestors from the usage site.
func BlastRadius(repoRoot string, cfg *config.Config, registry *langdriver.Registry, symbolName, targetDir string, ignoreGitignore bool) (BlastRadiusResult, error) {
	records, err := scanner.Walk(repoRoot, cfg, scanner.Options{Target: targetDir, IgnoreGitignore: ignoreGitignore})
	if err != nil {
		return BlastRadiusResult{}, err
	}

	var result BlastRadiusResult
	defFound := false

	// First pass: locate the primary definition and its outgoing calls.
	for _, rec := range records {
		if rec.SkipReason != scanner.SkipNone || defFound {
			continue
		}
		source, err := os.ReadFile(filepath.Join(repoRoot, rec.Path))
		if err != nil {
			continue
		}
		driver := registry.ForPath(rec.Path)
		symbols, _ := driver.ExtractDefinitions(rec.Path, source)
		sym, ok := findSymbolByName(symbols, symbolName)
		if !ok {
			continue
		}
		result.Definition = sym
		result.DefPath = rec.Path
		defFound = true
		calls, err := driver.ExtractOutgoingCalls(rec.Path, source, sym)
		if err == nil {
			result.Outgoing = calls
		}
	}

	if !defFound {
		return BlastRadiusResult{}, cortexerrors.New(cortexerrors.NotFound,
			"symbol "+symbolName+" has no definition under "+targetDir).
			WithHint("call map_overview or find_usages to confirm the symbol exists")
	}

	// Second pass: every usage elsewhere, annotated with its enclosing symbol.
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
		symbols, _ := driver.ExtractDefinitions(rec.Path, source)

		for _, u := range usages {
			if rec.Path == result.DefPath && u.Line >= result.Definition.LineStart && u.Line <= result.Definition.LineEnd {
				continue // inside the definition's own body; that's Outgoing's territory
			}
			result.Incoming = append(result.Incoming, IncomingCaller{
				Path:      rec.Path,
				Line:      u.Line,
				Enclosing: enclosingSymbol(symbols, u.Line),
				Category:  u.Category,
			})
		}
	}

	sort.Slice(result.Incoming, func(i, j int) bool {
		if result.Incoming[i].Path != result.Incoming[j].Path {
			return result.Incoming[i].Path < result.Incoming[j].Path
		}
		return result.Incoming[i].Line < result.Incoming[j].Line
	})
	sort.Slice(result.Outgoing, func(i, j int) bool { return result.Outgoing[i].Line < result.Outgoing[j].Line })

	return result, nil
}

// enclosingSymbol walks the symbol list for the nearest definition whose
// line range contains line, preferring the tightest (smallest) enclosing
// range so a method nested under a class reports the method, not the class.
func enclosingSymbol(symbols []langdriver.Symbol, line int) string {
	best := ""
	bestSpan := -1
	for _, s := range symbols {
		if s.LineStart <= line && line <= s.LineEnd {
			span := s.LineEnd - s.LineStart
			if bestSpan == -1 || span < bestSpan {
				best = s.Name
				bestSpan = span
			}
		}
	}
	return best
}
