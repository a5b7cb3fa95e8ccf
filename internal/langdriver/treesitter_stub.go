//go:build !cgo

package langdriver

// treeSitterDriver is the non-cgo stub: it registers correctly as a driver
// for every tree-sitter-backed language but returns empty results rather
// than panicking when cgo is unavailable.
type treeSitterDriver struct {
	lang Language
}

func newTreeSitterDriver(lang Language) Driver {
	return &treeSitterDriver{lang: lang}
}

// IsAvailable reports whether the cgo tree-sitter build is active.
func IsAvailable() bool { return false }

func (d *treeSitterDriver) Language() Language { return d.lang }

func (d *treeSitterDriver) ExtractDefinitions(path string, source []byte) ([]Symbol, error) {
	return nil, nil
}

func (d *treeSitterDriver) ExtractUsages(path string, source []byte, name string) ([]Usage, error) {
	return nil, nil
}

func (d *treeSitterDriver) ExtractOutgoingCalls(path string, source []byte, sym Symbol) ([]OutgoingCall, error) {
	return nil, nil
}

func (d *treeSitterDriver) ExtractImplementors(path string, source []byte, traitName string) ([]Implementor, error) {
	return nil, nil
}

// Skeletonize falls back to the regex heuristic when tree-sitter isn't
// available, so callers always get a best-effort skeleton either way.
func (d *treeSitterDriver) Skeletonize(source []byte, opts SkeletonOptions) (string, error) {
	return fallbackSkeletonize(source, opts), nil
}
