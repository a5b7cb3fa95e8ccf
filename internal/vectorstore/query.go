package vectorstore

import (
	"math"
	"sort"
	"strings"
)

// exactSymbolScore sits permanently above the cosine ceiling (1.0 for
// normalized vectors) so a Stage 1 sniper hit always outranks every Stage 2
// semantic result, per the supplemented symbol-sniper design.
const exactSymbolScore = 2.0

// Query embeds the query text once and ranks every file by the two-stage
// sniper/semantic score, per spec §4.4. Results are grouped by path (best
// chunk wins) and sorted by score descending, then by path for ties so
// output stays deterministic.
func (s *Store) Query(idx *Index, query string, limit int) []SearchResult {
	if len(idx.Entries) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = s.autoTuneLimit(query)
	}

	queryVector := s.embedder.Embed("query: " + query)
	tokens := tokenize(query)

	results := make([]SearchResult, 0, len(idx.Entries))
	for path, entry := range idx.Entries {
		results = append(results, SearchResult{
			Path:  path,
			Score: scoreFileEntry(tokens, queryVector, entry),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

// tokenize splits on everything but alnum/underscore, lowercases, and
// drops single-character tokens — deliberately no CamelCase splitting, so
// a broad token like "Request" cannot snipe unrelated files.
func tokenize(query string) map[string]bool {
	lower := strings.ToLower(query)
	tokens := make(map[string]bool)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if end-start >= 2 {
			tokens[lower[start:end]] = true
		}
		start = -1
	}
	for i, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lower))
	return tokens
}

// scoreFileEntry implements the Stage 1 sniper / Stage 2 semantic fallback
// scoring rule.
func scoreFileEntry(tokens map[string]bool, queryVector []float32, entry FileEntry) float32 {
	for _, chunk := range entry.Chunks {
		for _, sym := range chunk.Symbols {
			bare := bareSymbolName(sym)
			if tokens[bare] {
				return exactSymbolScore
			}
		}
	}

	best := float32(math.Inf(-1))
	for _, chunk := range entry.Chunks {
		if score := cosineSimilarity(queryVector, chunk.Vector); score > best {
			best = score
		}
	}
	if best == float32(math.Inf(-1)) {
		return 0
	}
	return best
}

// bareSymbolName strips the "kind " prefix from a stored "kind name"
// header and lowercases it, matching the exact-match comparison rule.
func bareSymbolName(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// autoTuneLimit returns the configured default query limit (10 when unset).
// It does not scale the count by a token budget or by per-result cost, and
// the query text is not consulted.
func (s *Store) autoTuneLimit(query string) int {
	defaultLimit := s.cfg.VectorSearch.DefaultQueryLimit
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return defaultLimit
}
