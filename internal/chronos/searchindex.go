package chronos

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SearchIndex is an in-memory SQLite FTS5 accelerator over a checkpoint
// snapshot, used to keep list_checkpoints responsive once a namespace
// accumulates thousands of saved symbols — the flat-file Store has no
// query capability beyond "read every JSON file", which is fine for the
// common case but not for an FTS-style substring/keyword search across
// skeleton text. This index is rebuilt from Store.List() on demand; it is
// never the system of record, only a query accelerator.
type SearchIndex struct {
	db *sql.DB
}

// NewSearchIndex opens a fresh in-memory SQLite database and creates the
// FTS5 virtual table. Callers must Close it when done.
func NewSearchIndex() (*SearchIndex, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE checkpoints USING fts5(
		namespace, symbol_name, semantic_tag, path, skeleton_text
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SearchIndex{db: db}, nil
}

// Close releases the in-memory database.
func (si *SearchIndex) Close() error { return si.db.Close() }

// Load populates the index from a checkpoint snapshot.
func (si *SearchIndex) Load(checkpoints []Checkpoint) error {
	tx, err := si.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO checkpoints
		(namespace, symbol_name, semantic_tag, path, skeleton_text)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, cp := range checkpoints {
		if _, err := stmt.Exec(cp.Namespace, cp.SymbolName, cp.SemanticTag, cp.Path, cp.SkeletonText); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchHit is one FTS match.
type SearchHit struct {
	Namespace   string
	SymbolName  string
	SemanticTag string
	Path        string
}

// Search runs an FTS5 MATCH query across every indexed column (namespace,
// symbol_name, semantic_tag, path, and skeleton_text), returning up to limit hits ranked by FTS5's default
// bm25 relevance.
func (si *SearchIndex) Search(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := si.db.Query(
		`SELECT namespace, symbol_name, semantic_tag, path FROM checkpoints
		 WHERE checkpoints MATCH ? ORDER BY rank LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chronos search query failed: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Namespace, &h.SymbolName, &h.SemanticTag, &h.Path); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
