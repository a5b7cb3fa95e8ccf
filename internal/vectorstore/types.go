// Package vectorstore implements the Vector Store component: a flat-file
// JSON index of content-hashed, fixed-size chunk embeddings with a
// refresh-on-query protocol and a two-stage "symbol sniper" query router.
package vectorstore

// schemaVersion bumps whenever the on-disk shape of Index changes in a way
// existing index.json files cannot be read against. It is checked the same
// way embedding_model_id/chunk_lines are: a mismatch discards the index.
const schemaVersion = 2

// Chunk is a fixed-size embedded window of a file, sliced after
// skeletonization, per spec §3 Vector Chunk.
type Chunk struct {
	StartLine       int       `json:"start_line"`
	EndLine         int       `json:"end_line"` // inclusive
	ContentHash     string    `json:"content_hash_of_chunk"`
	Vector          []float32 `json:"vector"`
	Symbols         []string  `json:"symbols,omitempty"` // "kind name", for the sniper
}

// FileEntry is the per-path index record: a content hash pre-screen plus
// its ordered chunks.
type FileEntry struct {
	ContentHash string  `json:"content_hash"`
	Size        int64   `json:"size"`
	Chunks      []Chunk `json:"chunks"`
}

// Index is the root of the flat-file JSON vector index, per spec §3 Index
// Meta + §4.4.
type Index struct {
	EmbeddingModelID string               `json:"embedding_model_id"`
	ChunkLines       int                  `json:"chunk_lines"`
	SchemaVersion    int                  `json:"schema_version"`
	Entries          map[string]FileEntry `json:"entries"`
}

func newIndex(modelID string, chunkLines int) *Index {
	return &Index{
		EmbeddingModelID: modelID,
		ChunkLines:       chunkLines,
		SchemaVersion:    schemaVersion,
		Entries:          make(map[string]FileEntry),
	}
}

// matchesConfig reports whether the stored index can be reused as-is for
// the given model/chunk_lines, per the refresh-on-query discard rule.
func (idx *Index) matchesConfig(modelID string, chunkLines int) bool {
	return idx != nil &&
		idx.SchemaVersion == schemaVersion &&
		idx.EmbeddingModelID == modelID &&
		idx.ChunkLines == chunkLines
}

// SearchResult is one ranked hit from Query, per spec §4.4.
type SearchResult struct {
	Path  string
	Score float32
}
