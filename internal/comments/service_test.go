package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marginalia-dev/marginalia/internal/apperr"
	"github.com/marginalia-dev/marginalia/internal/models"
	"github.com/marginalia-dev/marginalia/internal/storage"
	"github.com/marginalia-dev/marginalia/internal/testutil"
)

func testService(t *testing.T) (*Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	svc := NewService(store, db, SchemeDirective, "anonymous")
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestService_AddCommentPersistsAndIndexes(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateDocument(ctx, "essay.md", []byte("# Essay\n\nThe opening is weak.\n")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	c, err := svc.AddComment(ctx, "essay.md", models.Selection{Text: "opening is weak"}, "", "rework the hook")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if c.Author != "anonymous" {
		t.Errorf("default author = %q, want %q", c.Author, "anonymous")
	}
	if c.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %q", c.Timestamp)
	}

	// The mutation must be on disk, not only in memory.
	data, err := store.Read("essay.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(string(data), c.ID) {
		t.Error("comment id not persisted to vault file")
	}

	// And reflected in the index.
	rows, err := svc.db.ListComments("essay.md")
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != c.ID {
		t.Errorf("indexed comments = %+v, want single row %s", rows, c.ID)
	}
}

func TestService_EventsEmitted(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	var kinds []string
	svc.OnEvent(func(kind, path string) { kinds = append(kinds, kind) })

	_, _ = svc.CreateDocument(ctx, "e.md", []byte("Pick this phrase apart.\n"))
	c, err := svc.AddComment(ctx, "e.md", models.Selection{Text: "this phrase"}, "maya", "unpack")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if err := svc.EditComment(ctx, "e.md", c.ID, "unpack further"); err != nil {
		t.Fatalf("EditComment: %v", err)
	}
	if err := svc.DeleteComment(ctx, "e.md", c.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}

	want := []string{"document.created", "comment.added", "comment.updated", "comment.deleted"}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestService_UpdateDocumentChecksumConflict(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "lock.md", []byte("v1"))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := svc.UpdateDocument(ctx, "lock.md", []byte("v2"), doc.Checksum); err != nil {
		t.Fatalf("update with matching checksum: %v", err)
	}
	_, err = svc.UpdateDocument(ctx, "lock.md", []byte("v3"), doc.Checksum)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale checksum err = %v, want ErrConflict", err)
	}
}

func TestService_GetDocumentNotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetDocument(context.Background(), "ghost.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestService_DeleteDocumentCleansIndex(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateDocument(ctx, "gone.md", []byte("Note the last clause here.\n"))
	_, err := svc.AddComment(ctx, "gone.md", models.Selection{Text: "last clause"}, "maya", "trim it")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	if err := svc.DeleteDocument(ctx, "gone.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	rows, _ := svc.db.ListComments("gone.md")
	if len(rows) != 0 {
		t.Errorf("index still holds %d comments after delete", len(rows))
	}
	docs, total, _ := svc.ListDocuments(ctx, 10, 0, "")
	if total != 0 || len(docs) != 0 {
		t.Errorf("documents remain after delete: total=%d", total)
	}
}
