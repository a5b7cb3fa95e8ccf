package chronos

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"cortexast/internal/langdriver"
)

// FindSymbol locates the named definition in source via the appropriate
// driver, returning an error the caller can wrap into a NotFound with the
// available-symbols list, per spec §7.
func FindSymbol(registry *langdriver.Registry, path string, source []byte, symbolName string) (langdriver.Symbol, []langdriver.Symbol, error) {
	driver := registry.ForPath(path)
	syms, err := driver.ExtractDefinitions(path, source)
	if err != nil {
		return langdriver.Symbol{}, nil, err
	}
	for _, s := range syms {
		if s.Name == symbolName {
			return s, syms, nil
		}
	}
	return langdriver.Symbol{}, syms, fmt.Errorf("symbol %q not found in %s", symbolName, path)
}

// NormalizeShape collapses a symbol's source text into a structural token
// stream: identifiers, keywords, and punctuation are preserved verbatim,
// but all whitespace runs (including newlines) collapse to a single space
// and leading/trailing whitespace is trimmed. Two texts differing only in
// formatting/indentation normalize identically; a renamed identifier or
// added/removed token changes the result.
func NormalizeShape(text string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(b.String())
}

// StructuralHash hashes the normalized shape; two structurally identical
// symbols (whitespace-only differences) always hash identically.
func StructuralHash(shape string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(shape))
}
