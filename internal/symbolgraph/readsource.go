package symbolgraph

import (
	"fmt"
	"os"
	"sort"

	"cortexast/internal/cortexerrors"
	"cortexast/internal/langdriver"
	"cortexast/internal/paths"
	"cortexast/internal/skeleton"
)

// SymbolRead is one symbol's read_source result.
type SymbolRead struct {
	SymbolName string
	Found      bool
	Source     string
	StartLine  int
	EndLine    int
	Error      error
}

// ReadSource implements spec §4.5.3: resolves the exact byte range of each
// requested symbol, preserving input order, and reporting per-symbol status
// in batch mode so one missing symbol never aborts the whole request.
func ReadSource(repoRoot string, registry *langdriver.Registry, path string, symbolNames []string, skeletonOnly bool) ([]SymbolRead, error) {
	abs, err := paths.ResolveRepoPath(repoRoot, path)
	if err != nil {
		return nil, cortexerrors.Wrap(cortexerrors.InvalidAction, fmt.Sprintf("cannot read %q", path), err)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, cortexerrors.Wrap(cortexerrors.NotFound, fmt.Sprintf("cannot read %q", path), err)
	}

	driver := registry.ForPath(path)
	symbols, _ := driver.ExtractDefinitions(path, source)

	var available []string
	for _, s := range symbols {
		available = append(available, s.Name)
	}
	sort.Strings(available)
	if len(available) > cortexerrors.MaxAlternatives {
		available = available[:cortexerrors.MaxAlternatives]
	}

	results := make([]SymbolRead, 0, len(symbolNames))
	for _, name := range symbolNames {
		sym, found := findSymbolByName(symbols, name)
		if !found {
			results = append(results, SymbolRead{
				SymbolName: name,
				Found:      false,
				Error: cortexerrors.New(cortexerrors.NotFound, fmt.Sprintf("symbol %q not found in %q", name, path)).
					WithAlternatives(available).
					WithHint("call find_usages or map_overview to locate the symbol"),
			})
			continue
		}

		var text string
		if skeletonOnly {
			skel, err := skeleton.Skeletonize(registry, path, source[sym.ByteStart:sym.ByteEnd], skeleton.Options{})
			if err == nil {
				text = skel.SkeletonText
			}
		} else {
			text = string(source[sym.ByteStart:sym.ByteEnd])
		}

		results = append(results, SymbolRead{
			SymbolName: name,
			Found:      true,
			Source:     text,
			StartLine:  sym.LineStart,
			EndLine:    sym.LineEnd,
		})
	}
	return results, nil
}

func findSymbolByName(symbols []langdriver.Symbol, name string) (langdriver.Symbol, bool) {
	for _, s := range symbols {
		if s.Name == name {
			return s, true
		}
	}
	return langdriver.Symbol{}, false
}
