package chronos

import (
	"os"
	"path/filepath"
	"strings"

	"cortexast/internal/cortexerrors"
	"cortexast/internal/skeleton"
)

// DiffLine is one line of a structural comparison.
type DiffLine struct {
	TagALine string
	TagBLine string
	Equal    bool
}

// CompareResult is the side-by-side structural diff of two checkpoints.
type CompareResult struct {
	SymbolName string
	TagA       string
	TagB       string
	Lines      []DiffLine
	Identical  bool
}

// Compare loads tag_a (always a saved checkpoint) and tag_b (either another
// saved checkpoint, or — when tag_b equals LiveTag — a fresh extraction
// from disk at path), and produces a line-by-line structural diff: lines
// are compared after NormalizeShape, so whitespace-only edits and line
// renumbering never register as a change.
func (s *Store) Compare(namespace, symbolName, tagA, tagB, path string) (CompareResult, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	cpA, err := s.Load(namespace, symbolName, tagA)
	if err != nil {
		return CompareResult{}, err
	}

	var skeletonB string
	if tagB == LiveTag {
		if path == "" {
			path = cpA.Path
		}
		skeletonB, err = s.liveSkeleton(path, symbolName)
		if err != nil {
			return CompareResult{}, err
		}
	} else {
		cpB, err := s.Load(namespace, symbolName, tagB)
		if err != nil {
			return CompareResult{}, err
		}
		skeletonB = cpB.SkeletonText
	}

	return diffSkeletons(symbolName, tagA, tagB, cpA.SkeletonText, skeletonB), nil
}

func (s *Store) liveSkeleton(path, symbolName string) (string, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		absPath = filepath.Join(s.repoRoot, path)
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		return "", cortexerrors.New(cortexerrors.NotFound, "cannot read "+path+" for live comparison")
	}

	sym, allSyms, err := FindSymbol(s.registry, path, source, symbolName)
	if err != nil {
		return "", notFoundWithAlternatives(symbolName, allSyms)
	}

	skel, err := skeleton.Skeletonize(s.registry, path, source[sym.ByteStart:sym.ByteEnd], skeleton.Options{})
	if err != nil {
		return "", err
	}
	return skel.SkeletonText, nil
}

func diffSkeletons(symbolName, tagA, tagB, textA, textB string) CompareResult {
	linesA := strings.Split(textA, "\n")
	linesB := strings.Split(textB, "\n")

	max := len(linesA)
	if len(linesB) > max {
		max = len(linesB)
	}

	identical := true
	diffLines := make([]DiffLine, 0, max)
	for i := 0; i < max; i++ {
		var a, b string
		if i < len(linesA) {
			a = linesA[i]
		}
		if i < len(linesB) {
			b = linesB[i]
		}
		equal := NormalizeShape(a) == NormalizeShape(b)
		if !equal {
			identical = false
		}
		diffLines = append(diffLines, DiffLine{TagALine: a, TagBLine: b, Equal: equal})
	}

	return CompareResult{
		SymbolName: symbolName,
		TagA:       tagA,
		TagB:       tagB,
		Lines:      diffLines,
		Identical:  identical,
	}
}
