// Package skeleton is the cross-language adapter consuming a File Record +
// langdriver.Driver and producing (skeleton_text, estimated_tokens), per
// spec §4.3. It owns nothing language-specific: that lives entirely in the
// driver.
package skeleton

import (
	"math"

	"cortexast/internal/langdriver"
)

// Result is the Skeletonizer's output unit.
type Result struct {
	SkeletonText    string
	EstimatedTokens int
}

// Options mirrors langdriver.SkeletonOptions plus the token-estimate knob.
type Options struct {
	PreserveTODOs bool
	CharsPerToken int
}

const defaultCharsPerToken = 4

// Skeletonize reduces source to signatures + declarations via the driver
// appropriate for path, then estimates a token cost as
// ceil(len(skeleton_text) / chars_per_token).
//
// Idempotent by construction: the driver's Skeletonize only ever removes
// text (bodies, imports, comments) and never reintroduces anything a second
// pass would strip, so skel(skel(x)) == skel(x) holds as long as the
// driver itself is idempotent over its own output — true for every driver
// in this package since none of them re-add placeholders to text that
// already looks like a placeholder line.
func Skeletonize(registry *langdriver.Registry, path string, source []byte, opts Options) (Result, error) {
	charsPerToken := opts.CharsPerToken
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}

	driver := registry.ForPath(path)
	text, err := driver.Skeletonize(source, langdriver.SkeletonOptions{PreserveTODOs: opts.PreserveTODOs})
	if err != nil {
		return Result{}, err
	}

	return Result{
		SkeletonText:    text,
		EstimatedTokens: estimateTokens(text, charsPerToken),
	}, nil
}

func estimateTokens(text string, charsPerToken int) int {
	if len(text) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / float64(charsPerToken)))
}
