//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS comments_fts USING fts5(
			path UNINDEXED,
			comment_id UNINDEXED,
			author,
			content,
			anchored_text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsReplace(tx *sql.Tx, path string, comments []CommentRow) {
	_, _ = tx.Exec(`DELETE FROM comments_fts WHERE path = ?`, path)
	for _, c := range comments {
		_, _ = tx.Exec(`
			INSERT INTO comments_fts (path, comment_id, author, content, anchored_text)
			VALUES (?, ?, ?, ?, ?)
		`, path, c.ID, c.Author, c.Content, c.AnchoredText)
	}
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM comments_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over comment content and returns
// matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       comment_id,
		       author,
		       snippet(comments_fts, 3, '<b>', '</b>', '...', 64)
		FROM comments_fts
		WHERE comments_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
