// Package output provides deterministic JSON encoding and output-safety
// primitives shared across every CortexAST tool operation, ensuring that
// identical queries produce byte-identical output.
//
// # JSON Encoding Rules
//
// DeterministicEncode / DeterministicEncodeIndented produce byte-identical
// output by:
//
//  1. Stable key ordering: object keys are sorted alphabetically
//  2. Float formatting: rounded to max 6 decimal places, no trailing zeros
//  3. Null handling: nil/undefined fields are omitted entirely
//
// # Output-safety
//
// TruncateUTF8 clips a string to a rune-safe prefix without ever splitting
// a multi-byte rune, used by internal/router and internal/slicer to enforce
// max_chars without corrupting UTF-8 mid-character.
package output
