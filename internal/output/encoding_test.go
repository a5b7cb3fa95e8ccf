package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"unicode/utf8"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		wantJSON string
	}{
		{
			name: "simple struct with floats",
			input: struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
				Count int     `json:"count"`
			}{
				Name:  "test",
				Score: 0.123456789,
				Count: 42,
			},
			wantJSON: `{"count":42,"name":"test","score":0.123457}`,
		},
		{
			name: "struct with omitted nil fields",
			input: struct {
				Name  string   `json:"name"`
				Score *float64 `json:"score,omitempty"`
			}{
				Name:  "test",
				Score: nil,
			},
			wantJSON: `{"name":"test"}`,
		},
		{
			name: "struct with zero values and omitempty",
			input: struct {
				Name  string `json:"name"`
				Count int    `json:"count,omitempty"`
			}{
				Name:  "test",
				Count: 0,
			},
			wantJSON: `{"name":"test"}`,
		},
		{
			name: "map with sorted keys",
			input: map[string]interface{}{
				"zebra": "last",
				"alpha": "first",
				"beta":  "second",
			},
			wantJSON: `{"alpha":"first","beta":"second","zebra":"last"}`,
		},
		{
			name: "slice of structs",
			input: []struct {
				ID    string  `json:"id"`
				Value float64 `json:"value"`
			}{
				{ID: "a", Value: 1.123456789},
				{ID: "b", Value: 2.987654321},
			},
			wantJSON: `[{"id":"a","value":1.123457},{"id":"b","value":2.987654}]`,
		},
		{
			name:     "nil value",
			input:    nil,
			wantJSON: `null`,
		},
		{
			name:     "empty slice returns null",
			input:    []string{},
			wantJSON: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}

			// Compare JSON strings
			var gotObj, wantObj interface{}
			if err := json.Unmarshal(got, &gotObj); err != nil {
				t.Fatalf("Failed to unmarshal got: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.wantJSON), &wantObj); err != nil {
				t.Fatalf("Failed to unmarshal want: %v", err)
			}

			gotJSON, _ := json.Marshal(gotObj)
			wantJSON, _ := json.Marshal(wantObj)

			if !bytes.Equal(gotJSON, wantJSON) {
				t.Errorf("DeterministicEncode() = %s, want %s", string(got), tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	// Test that encoding the same data multiple times produces identical bytes
	data := map[string]interface{}{
		"modules": []struct {
			ModuleId string
			Name     string
		}{
			{ModuleId: "mod2", Name: "second"},
			{ModuleId: "mod1", Name: "first"},
		},
		"symbols": []struct {
			StableId string
			Name     string
		}{
			{StableId: "sym2", Name: "second"},
			{StableId: "sym1", Name: "first"},
		},
		"metadata": map[string]interface{}{
			"version": "1.0",
			"score":   0.123456789,
		},
	}

	// Encode 10 times
	var results [][]byte
	for i := 0; i < 10; i++ {
		encoded, err := DeterministicEncode(data)
		if err != nil {
			t.Fatalf("DeterministicEncode() error = %v", err)
		}
		results = append(results, encoded)
	}

	// All results should be byte-identical
	for i := 1; i < len(results); i++ {
		if !bytes.Equal(results[0], results[i]) {
			t.Errorf("Encoding is not deterministic:\nrun 0: %s\nrun %d: %s", string(results[0]), i, string(results[i]))
		}
	}
}

func TestFloatRounding(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{
			name:  "round to 6 decimal places",
			input: 0.123456789,
			want:  0.123457,
		},
		{
			name:  "no rounding needed",
			input: 0.123456,
			want:  0.123456,
		},
		{
			name:  "round up",
			input: 0.1234567,
			want:  0.123457,
		},
		{
			name:  "round down",
			input: 0.1234564,
			want:  0.123456,
		},
		{
			name:  "zero",
			input: 0.0,
			want:  0.0,
		},
		{
			name:  "negative",
			input: -0.123456789,
			want:  -0.123457,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.input)
			if got != tt.want {
				t.Errorf("RoundFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	data := map[string]interface{}{
		"name":  "test",
		"value": 0.123456789,
	}

	got, err := DeterministicEncodeIndented(data, "  ")
	if err != nil {
		t.Fatalf("DeterministicEncodeIndented() error = %v", err)
	}

	// Verify it's valid JSON
	var decoded map[string]interface{}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	// Verify indentation is present
	if !bytes.Contains(got, []byte("\n")) {
		t.Error("DeterministicEncodeIndented() should produce indented output")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxChars  int
		want      string
		truncated bool
	}{
		{
			name:      "under limit",
			input:     "hello",
			maxChars:  10,
			want:      "hello",
			truncated: false,
		},
		{
			name:      "exact limit",
			input:     "hello",
			maxChars:  5,
			want:      "hello",
			truncated: false,
		},
		{
			name:      "over limit",
			input:     "hello world",
			maxChars:  5,
			want:      "hello",
			truncated: true,
		},
		{
			name:      "maxChars zero disables truncation",
			input:     "hello world",
			maxChars:  0,
			want:      "hello world",
			truncated: false,
		},
		{
			name:      "maxChars negative disables truncation",
			input:     "hello world",
			maxChars:  -1,
			want:      "hello world",
			truncated: false,
		},
		{
			name:      "does not split a multi-byte rune",
			input:     "日本語のテキスト",
			maxChars:  3,
			want:      "日本語",
			truncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateUTF8(tt.input, tt.maxChars)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("TruncateUTF8(%q, %d) = (%q, %v), want (%q, %v)", tt.input, tt.maxChars, got, truncated, tt.want, tt.truncated)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateUTF8(%q, %d) produced invalid UTF-8: %q", tt.input, tt.maxChars, got)
			}
		})
	}
}

func TestComplexNestedStructure(t *testing.T) {
	type fileEntry struct {
		ModuleId string
		Name     string
	}
	type ComplexResponse struct {
		Modules   []fileEntry            `json:"modules"`
		Symbols   []fileEntry            `json:"symbols,omitempty"`
		Metadata  map[string]interface{} `json:"metadata"`
		Timestamp *string                `json:"timestamp,omitempty"`
	}

	response := ComplexResponse{
		Modules: []fileEntry{
			{ModuleId: "mod2", Name: "second"},
			{ModuleId: "mod1", Name: "first"},
		},
		Symbols: nil, // Should be omitted
		Metadata: map[string]interface{}{
			"zebra": "last",
			"alpha": "first",
			"score": 0.123456789,
		},
		Timestamp: nil, // Should be omitted
	}

	// Encode twice
	result1, err := DeterministicEncode(response)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}

	result2, err := DeterministicEncode(response)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}

	// Should be byte-identical
	if !bytes.Equal(result1, result2) {
		t.Errorf("Complex structure encoding is not deterministic:\n%s\nvs\n%s", string(result1), string(result2))
	}

	// Verify nil fields are omitted
	if bytes.Contains(result1, []byte("symbols")) {
		t.Error("Nil symbols field should be omitted")
	}
	if bytes.Contains(result1, []byte("timestamp")) {
		t.Error("Nil timestamp field should be omitted")
	}

	// Verify map keys are sorted
	var decoded map[string]interface{}
	if err := json.Unmarshal(result1, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	metadata, ok := decoded["metadata"].(map[string]interface{})
	if !ok {
		t.Fatal("metadata is not a map")
	}

	// Re-encode to check key order
	metadataJSON, _ := json.Marshal(metadata)
	if !bytes.Contains(metadataJSON, []byte(`"alpha"`)) ||
		!bytes.Contains(metadataJSON, []byte(`"score"`)) ||
		!bytes.Contains(metadataJSON, []byte(`"zebra"`)) {
		t.Error("metadata keys are not properly handled")
	}
}
