package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/marginalia-dev/marginalia/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// reconcileDelay debounces the post-rename reconciliation pass.
const reconcileDelay = 200 * time.Millisecond

// watcher tracks external edits to vault documents and keeps the comment
// index current. Editors that save through temp-file renames produce noisy
// event sequences, so reconciliation is deferred and debounced.
type watcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, vaultRoot); err != nil {
		return err
	}

	wr := &watcher{db: db, store: store, root: vaultRoot, logger: logger, cb: cb}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			wr.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if wr.handleEvent(fw, ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleEvent processes one fsnotify event. It returns true when a
// reconciliation pass should be scheduled.
func (wr *watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	absPath := ev.Name

	// New directories are added to the watch list, and any documents
	// already inside them get indexed.
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fw, absPath); addErr != nil {
				wr.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			} else {
				wr.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			wr.indexDir(absPath)
			return false
		}
	}

	rel, ok := wr.relDocPath(absPath)
	if !ok {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		wr.indexOne(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		if delErr := wr.db.DeleteDocument(rel); delErr != nil {
			wr.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
			return false
		}
		wr.logger.Debug("watcher: deleted", slog.String("path", rel))
		wr.emit("deleted", rel)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify fires Rename on the OLD path only. The new path will
		// arrive as a separate Create event (if it stays within a watched
		// dir). Delete the old entry immediately and schedule a short
		// reconciliation pass to catch any stragglers.
		if delErr := wr.db.DeleteDocument(rel); delErr != nil {
			wr.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
		} else {
			wr.logger.Debug("watcher: rename old deleted", slog.String("path", rel))
			wr.emit("deleted", rel)
		}
		return true
	}
	return false
}

// relDocPath converts an absolute event path to a slash-separated vault
// path. It returns false for non-markdown files, hidden files, and temp
// files from atomic writes.
func (wr *watcher) relDocPath(absPath string) (string, bool) {
	base := filepath.Base(absPath)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(wr.root, absPath)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (wr *watcher) indexOne(rel, kind string) {
	data, err := wr.store.Read(rel)
	if err != nil {
		wr.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := IndexDocument(wr.db, rel, data); err != nil {
		wr.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wr.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wr.emit(kind, rel)
}

// indexDir indexes any documents found in a newly created directory.
func (wr *watcher) indexDir(dirPath string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := wr.relDocPath(path)
		if !ok {
			return nil
		}
		wr.indexOne(rel, "created")
		return nil
	})
}

// reconcile does a lightweight sync using batch lookups: index entries
// without a corresponding file on disk are removed, and on-disk documents
// whose checksum differs from the indexed one are re-indexed.
func (wr *watcher) reconcile() {
	checksums, err := wr.db.AllChecksums()
	if err != nil {
		wr.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := wr.store.List("")
	if err != nil {
		wr.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := wr.db.DeleteDocument(p); delErr == nil {
				wr.logger.Debug("reconcile: removed stale", slog.String("path", p))
				wr.emit("deleted", p)
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := wr.store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDocument(wr.db, p, data); idxErr == nil {
			wr.logger.Debug("reconcile: indexed new", slog.String("path", p))
			wr.emit("created", p)
		}
	}
}

func (wr *watcher) emit(kind, path string) {
	if wr.cb != nil {
		wr.cb(kind, path)
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
