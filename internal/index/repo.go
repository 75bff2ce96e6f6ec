package index

import (
	"fmt"
	"time"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path         string
	Checksum     string
	CommentCount int
	UpdatedAt    time.Time
}

// CommentRow represents one indexed comment. StartPos/EndPos are -1 for
// orphaned records that have no live anchor in the document body.
type CommentRow struct {
	DocPath      string
	ID           string
	Author       string
	CreatedAt    string
	Content      string
	AnchoredText string
	StartPos     int
	EndPos       int
}

// SearchResult represents one comment search hit.
type SearchResult struct {
	Path      string
	CommentID string
	Author    string
	Snippet   string
}

// OverviewEntry summarizes comment activity for one document.
type OverviewEntry struct {
	Path          string
	CommentCount  int
	LastCommentAt string
}

// UpsertDocument replaces a document row and its comment set within a
// transaction. The previous comment rows are dropped wholesale: the
// document text is the source of truth, the index only mirrors it.
func (db *DB) UpsertDocument(d DocumentRow, comments []CommentRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, comment_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum      = excluded.checksum,
			comment_count = excluded.comment_count,
			updated_at    = excluded.updated_at
	`, d.Path, d.Checksum, len(comments), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM comments WHERE doc_path = ?`, d.Path)
	if len(comments) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO comments
				(doc_path, comment_id, author, created_at, content, anchored_text, start_pos, end_pos)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare comment insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range comments {
			if _, err := stmt.Exec(d.Path, c.ID, c.Author, c.CreatedAt, c.Content,
				c.AnchoredText, c.StartPos, c.EndPos); err != nil {
				return fmt.Errorf("index: insert comment: %w", err)
			}
		}
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	ftsReplace(tx, d.Path, comments)

	return tx.Commit()
}

// DeleteDocument removes a document, its comments, and its FTS entries.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM comments WHERE doc_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListDocuments returns a page of indexed documents plus the total count.
// sort accepts "updated" (most recent first) or "comments" (most commented
// first); anything else sorts by path.
func (db *DB) ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	order := "path ASC"
	switch sort {
	case "updated":
		order = "updated_at DESC"
	case "comments":
		order = "comment_count DESC, path ASC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, checksum, comment_count, updated_at
		FROM documents
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.Path, &d.Checksum, &d.CommentCount, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// ListComments returns the indexed comments for one document, anchored spans
// first in document order, orphans last.
func (db *DB) ListComments(path string) ([]CommentRow, error) {
	rows, err := db.conn.Query(`
		SELECT doc_path, comment_id, author, created_at, content, anchored_text, start_pos, end_pos
		FROM comments
		WHERE doc_path = ?
		ORDER BY start_pos >= 0 DESC, start_pos ASC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: list comments: %w", err)
	}
	defer rows.Close()

	var out []CommentRow
	for rows.Next() {
		var c CommentRow
		if err := rows.Scan(&c.DocPath, &c.ID, &c.Author, &c.CreatedAt, &c.Content,
			&c.AnchoredText, &c.StartPos, &c.EndPos); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Overview returns per-document comment activity for documents that carry
// at least one comment, most recently commented first.
func (db *DB) Overview() ([]OverviewEntry, error) {
	rows, err := db.conn.Query(`
		SELECT d.path, d.comment_count, COALESCE(MAX(c.created_at), '')
		FROM documents d
		JOIN comments c ON c.doc_path = d.path
		GROUP BY d.path
		ORDER BY MAX(c.created_at) DESC, d.path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: overview: %w", err)
	}
	defer rows.Close()

	var out []OverviewEntry
	for rows.Next() {
		var e OverviewEntry
		if err := rows.Scan(&e.Path, &e.CommentCount, &e.LastCommentAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
