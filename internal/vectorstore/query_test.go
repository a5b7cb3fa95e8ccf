package vectorstore

import "testing"

func TestScoreFileEntry_ExactSymbolMatchBeatsSemantic(t *testing.T) {
	tokens := tokenize("how does convertrequest work")

	sniped := FileEntry{Chunks: []Chunk{{
		Symbols: []string{"function convertrequest"},
		Vector:  []float32{0.1, 0.1, 0.1, 0.1},
	}}}
	semanticOnly := FileEntry{Chunks: []Chunk{{
		Symbols: []string{"message EngineProto"},
		Vector:  []float32{0.99, 0.99, 0, 0},
	}}}

	queryVector := []float32{1.0, 1.0, 0, 0}

	snipedScore := scoreFileEntry(tokens, queryVector, sniped)
	semanticScore := scoreFileEntry(tokens, queryVector, semanticOnly)

	if snipedScore != exactSymbolScore {
		t.Errorf("snipedScore = %v, want %v", snipedScore, exactSymbolScore)
	}
	if semanticScore > 1.0 {
		t.Errorf("semanticScore = %v, want <= 1.0", semanticScore)
	}
	if snipedScore <= semanticScore {
		t.Errorf("sniped hit (%v) must outrank semantic-only (%v)", snipedScore, semanticScore)
	}
}

func TestScoreFileEntry_PartialSubstringDoesNotSnipe(t *testing.T) {
	tokens := tokenize("request handling logic")
	entry := FileEntry{Chunks: []Chunk{{
		Symbols: []string{"impl ConvertRequest"},
		Vector:  []float32{0.5, 0.5, 0.5, 0.5},
	}}}
	score := scoreFileEntry(tokens, []float32{0, 0, 0, 0}, entry)
	if score >= exactSymbolScore {
		t.Errorf("partial substring 'request' must not snipe 'ConvertRequest', got score %v", score)
	}
}

func TestCosineSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	v := []float32{1, 2, 3}
	if got := cosineSimilarity(v, v); got < 0.999 || got > 1.001 {
		t.Errorf("cosineSimilarity(v, v) = %v, want ~1.0", got)
	}
}

func TestCosineSimilarity_MismatchedLengthsAreZero(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("cosineSimilarity with mismatched lengths = %v, want 0", got)
	}
}

func TestQuery_EmptyIndexReturnsNoResults(t *testing.T) {
	s := &Store{cfg: testConfig(), embedder: NewEmbedder()}
	idx := newIndex(s.embedder.ModelID(), 40)
	if got := s.Query(idx, "anything", 5); got != nil {
		t.Errorf("Query() on empty index = %v, want nil", got)
	}
}
