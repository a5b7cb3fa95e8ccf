package langdriver

import (
	"regexp"
	"strings"
)

// fallbackDriver is the regex-heuristic driver used for code-like files
// with no tree-sitter grammar (or any file when cgo is unavailable). It
// makes no claim to symbol-level accuracy: ExtractDefinitions/ExtractUsages
// return empty rather than guessing, and Skeletonize keeps only lines that
// look like a declaration.
type fallbackDriver struct{}

func newFallbackDriver() Driver { return &fallbackDriver{} }

func (d *fallbackDriver) Language() Language { return LangUnknown }

func (d *fallbackDriver) ExtractDefinitions(path string, source []byte) ([]Symbol, error) {
	return nil, nil
}

func (d *fallbackDriver) ExtractUsages(path string, source []byte, name string) ([]Usage, error) {
	return nil, nil
}

func (d *fallbackDriver) ExtractOutgoingCalls(path string, source []byte, sym Symbol) ([]OutgoingCall, error) {
	return nil, nil
}

func (d *fallbackDriver) ExtractImplementors(path string, source []byte, traitName string) ([]Implementor, error) {
	return nil, nil
}

func (d *fallbackDriver) Skeletonize(source []byte, opts SkeletonOptions) (string, error) {
	return fallbackSkeletonize(source, opts), nil
}

// definitionShapedLine matches lines that plausibly declare a named symbol
// across C-family, Python, and Rust-like syntaxes: a keyword followed by an
// identifier, or a bare top-level identifier terminated by `(` or `{`.
var definitionShapedLine = regexp.MustCompile(
	`^\s*(pub\s+|export\s+|public\s+|private\s+|async\s+)*` +
		`(func|function|def|class|struct|enum|interface|trait|impl|type|const|static|fn|message)\b`,
)

var commentLineRegexp = regexp.MustCompile(`^\s*(//|#)`)

// fallbackSkeletonize keeps declaration-shaped lines, dropping everything
// else (blank lines, bodies, comments) while preserving file
// structure well enough to orient a reader. It never errors: worst case it
// returns an empty skeleton.
func fallbackSkeletonize(source []byte, opts SkeletonOptions) string {
	lines := strings.Split(string(source), "\n")
	var out []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if commentLineRegexp.MatchString(line) {
			if opts.PreserveTODOs && (strings.Contains(line, "TODO") || strings.Contains(line, "FIXME")) {
				out = append(out, line)
			}
			continue
		}
		if definitionShapedLine.MatchString(line) {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
