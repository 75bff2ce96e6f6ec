package comments

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marginalia-dev/marginalia/internal/apperr"
	"github.com/marginalia-dev/marginalia/internal/checksum"
	"github.com/marginalia-dev/marginalia/internal/docparse"
	"github.com/marginalia-dev/marginalia/internal/index"
	"github.com/marginalia-dev/marginalia/internal/models"
	"github.com/marginalia-dev/marginalia/internal/storage"
)

// EventFunc is notified after a successful vault mutation.
// kind is one of "comment.added", "comment.updated", "comment.deleted",
// "document.created", "document.updated", "document.deleted".
type EventFunc func(kind, path string)

// DocumentDetail is the full representation of a vault document.
type DocumentDetail struct {
	Path      string                   `json:"path"`
	Content   string                   `json:"content"`
	Checksum  string                   `json:"checksum"`
	Comments  []models.AnchoredComment `json:"comments"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Service coordinates the lifecycle core with vault storage and the index.
type Service struct {
	store  storage.Provider
	db     *index.DB
	scheme Scheme
	author string // default author for requests that omit one
	events EventFunc
	now    func() time.Time
	newID  func() string
}

// NewService creates a comment service writing new anchors with scheme.
func NewService(store storage.Provider, db *index.DB, scheme Scheme, defaultAuthor string) *Service {
	return &Service{
		store:  store,
		db:     db,
		scheme: scheme,
		author: defaultAuthor,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// OnEvent registers the mutation callback. Pass nil to disable.
func (s *Service) OnEvent(fn EventFunc) { s.events = fn }

// GetDocument reads a document and resolves its comments.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data), nil
}

// CreateDocument writes a new document and indexes it.
func (s *Service) CreateDocument(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	s.emit("document.created", path)
	return s.buildDetail(path, content), nil
}

// UpdateDocument replaces document content with optimistic concurrency:
// a non-empty ifMatch must equal the stored content's checksum.
func (s *Service) UpdateDocument(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	s.emit("document.updated", path)
	return s.buildDetail(path, content), nil
}

// DeleteDocument removes a document from vault and index.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.emit("document.deleted", path)
	return nil
}

// ListDocuments returns paginated vault documents with comment counts.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, sort string) ([]index.DocumentRow, int, error) {
	return s.db.ListDocuments(limit, offset, sort)
}

// ListComments resolves the anchored comments of one document.
func (s *Service) ListComments(_ context.Context, path string) ([]models.AnchoredComment, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return docparse.ParseDocumentComments(string(data)), nil
}

// AddComment anchors a new comment on the selection and persists the
// mutated document. The comment id is generated here; callers receive the
// stored record back.
func (s *Service) AddComment(_ context.Context, path string, sel models.Selection, author, content string) (*models.Comment, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if author == "" {
		author = s.author
	}
	c := models.Comment{
		ID:        s.newID(),
		Author:    author,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Content:   content,
	}
	doc, err := Add(string(data), sel, c, s.scheme)
	if err != nil {
		return nil, err
	}
	// Pick up the anchored-text snapshot recorded during Add. An orphaned
	// comment has no resolved span and keeps the bare record.
	if ac, ok := docparse.FindCommentByID(doc, c.ID); ok {
		c = ac.Comment
	}
	if err := s.persist(path, doc); err != nil {
		return nil, err
	}
	s.emit("comment.added", path)
	return &c, nil
}

// EditComment rewrites a comment's content in place.
func (s *Service) EditComment(_ context.Context, path, id, newContent string) error {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	doc, err := Edit(string(data), id, newContent)
	if err != nil {
		return err
	}
	if err := s.persist(path, doc); err != nil {
		return err
	}
	s.emit("comment.updated", path)
	return nil
}

// DeleteComment strips a comment's anchor and record.
func (s *Service) DeleteComment(_ context.Context, path, id string) error {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	doc, err := Remove(string(data), id)
	if err != nil {
		return err
	}
	if err := s.persist(path, doc); err != nil {
		return err
	}
	s.emit("comment.deleted", path)
	return nil
}

// Search delegates full-text comment search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Overview returns per-document comment activity.
func (s *Service) Overview(_ context.Context) ([]index.OverviewEntry, error) {
	return s.db.Overview()
}

func (s *Service) persist(path, doc string) error {
	data := []byte(doc)
	if err := s.store.Write(path, data); err != nil {
		return err
	}
	return index.IndexDocument(s.db, path, data)
}

func (s *Service) buildDetail(path string, data []byte) *DocumentDetail {
	doc := string(data)
	cs := docparse.ParseDocumentComments(doc)
	if cs == nil {
		cs = []models.AnchoredComment{}
	}
	return &DocumentDetail{
		Path:      path,
		Content:   doc,
		Checksum:  checksum.Sum(data),
		Comments:  cs,
		UpdatedAt: time.Now(),
	}
}

func (s *Service) emit(kind, path string) {
	if s.events != nil {
		s.events(kind, path)
	}
}
