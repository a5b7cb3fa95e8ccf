package vectorstore

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// embeddingDims is the vector width produced by Embedder. Chosen small
// enough that a full-repo index stays flat-file friendly.
const embeddingDims = 64

// Embedder turns a text chunk into a fixed-width vector. The production
// embedding_model_id tag ("hashed-ngram-v1") documents this as a coarse,
// deterministic proxy rather than a learned model — there is no embedding
// model library anywhere in the corpus, and shipping one is out of scope
// for a flat-file, no-external-DB index. A real model can be swapped in
// behind this interface without touching Store or Query.
type Embedder interface {
	ModelID() string
	Embed(text string) []float32
}

// hashedNgramEmbedder is a deterministic bag-of-trigrams hash embedding:
// every lowercase alnum/underscore token is split into character trigrams,
// each trigram hashed into one of embeddingDims buckets, and the resulting
// vector L2-normalized. Same text always yields the same vector; no model
// load, no network, no non-determinism.
type hashedNgramEmbedder struct{}

// NewEmbedder returns the default Embedder.
func NewEmbedder() Embedder { return hashedNgramEmbedder{} }

func (hashedNgramEmbedder) ModelID() string { return "hashed-ngram-v1" }

func (hashedNgramEmbedder) Embed(text string) []float32 {
	vec := make([]float32, embeddingDims)
	lower := strings.ToLower(text)

	tokenStart := -1
	flushToken := func(end int) {
		if tokenStart < 0 {
			return
		}
		token := lower[tokenStart:end]
		addTrigrams(vec, token)
		tokenStart = -1
	}
	for i, r := range lower {
		if isTokenRune(r) {
			if tokenStart < 0 {
				tokenStart = i
			}
			continue
		}
		flushToken(i)
	}
	flushToken(len(lower))

	normalize(vec)
	return vec
}

func isTokenRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

func addTrigrams(vec []float32, token string) {
	if len(token) < 3 {
		hashInto(vec, token)
		return
	}
	for i := 0; i+3 <= len(token); i++ {
		hashInto(vec, token[i:i+3])
	}
}

func hashInto(vec []float32, s string) {
	h := xxhash.Sum64String(s)
	idx := int(h % uint64(len(vec)))
	sign := float32(1)
	if (h>>1)&1 == 1 {
		sign = -1
	}
	vec[idx] += sign
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
