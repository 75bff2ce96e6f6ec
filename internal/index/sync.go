package index

import (
	"log/slog"
	"time"

	"github.com/marginalia-dev/marginalia/internal/checksum"
	"github.com/marginalia-dev/marginalia/internal/docparse"
	"github.com/marginalia-dev/marginalia/internal/frontmatter"
	"github.com/marginalia-dev/marginalia/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, info.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument resolves the comments in data and upserts them into the DB.
// Anchored comments carry their body spans; frontmatter records without a
// live anchor are indexed as orphans (position -1) so search still finds
// them.
func IndexDocument(db *DB, path string, data []byte) error {
	doc := string(data)

	anchored := docparse.ParseDocumentComments(doc)
	rows := make([]CommentRow, 0, len(anchored))
	seen := make(map[string]struct{}, len(anchored))
	for _, c := range anchored {
		seen[c.ID] = struct{}{}
		rows = append(rows, CommentRow{
			DocPath:      path,
			ID:           c.ID,
			Author:       c.Author,
			CreatedAt:    c.Timestamp,
			Content:      c.Content,
			AnchoredText: c.AnchoredText,
			StartPos:     c.StartPosition,
			EndPos:       c.EndPosition,
		})
	}
	for _, c := range frontmatter.Parse(doc).Comments {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		rows = append(rows, CommentRow{
			DocPath:      path,
			ID:           c.ID,
			Author:       c.Author,
			CreatedAt:    c.Timestamp,
			Content:      c.Content,
			AnchoredText: c.AnchoredText,
			StartPos:     -1,
			EndPos:       -1,
		})
	}

	row := DocumentRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}
	return db.UpsertDocument(row, rows)
}
