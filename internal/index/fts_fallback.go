//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; comment search uses a LIKE fallback on the
	// comments table.
	return nil
}

func ftsReplace(_ *sql.Tx, _ string, _ []CommentRow) {
	// Comments are already stored in the comments table; nothing extra to do.
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search over comment content (fallback when
// FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT doc_path, comment_id, author, substr(content, 1, 200)
		FROM comments
		WHERE content LIKE ? OR anchored_text LIKE ? OR author LIKE ?
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.CommentID, &r.Author, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
