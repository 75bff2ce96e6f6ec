package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marginalia-dev/marginalia/internal/apperr"
	"github.com/marginalia-dev/marginalia/internal/comments"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *comments.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *comments.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes from OpenAPI clients
// (e.g. essays%2Fdraft.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeCommentError maps lifecycle errors onto HTTP statuses.
func writeCommentError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid selection range")
	case errors.Is(err, apperr.ErrDuplicateAnchor), errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, apperr.ErrUnsupportedSelection):
		writeError(w, http.StatusUnprocessableEntity, "selection cannot carry a comment")
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with comment counts
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, updated, comments)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	sort := q.Get("sort")

	rows, total, err := h.svc.ListDocuments(r.Context(), limit, offset, sort)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]DocumentListItem, 0, len(rows))
	for _, d := range rows {
		items = append(items, DocumentListItem{
			Path:         d.Path,
			Checksum:     d.Checksum,
			CommentCount: d.CommentCount,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a document with its resolved comments
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "path and content are required")
		return
	}
	doc, err := h.svc.CreateDocument(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "document already exists")
		} else {
			slog.Error("create document failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/*.
//
//	@Summary		Replace document content with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string					true	"Document path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateDocumentRequest	true	"Updated content"
//	@Success		200		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := docPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var req UpdateDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	doc, err := h.svc.UpdateDocument(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "checksum mismatch")
		default:
			slog.Error("update document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/*.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), path); err != nil {
		slog.Error("delete document failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListComments handles GET /api/comments?path=.
//
//	@Summary		List the resolved comments of a document
//	@Tags			comments
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	CommentListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comments [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	list, err := h.svc.ListComments(r.Context(), path)
	if err != nil {
		writeCommentError(w, "list comments", err)
		return
	}
	if list == nil {
		list = []models.AnchoredComment{}
	}
	writeJSON(w, http.StatusOK, CommentListResponse{Comments: list})
}

// AddComment handles POST /api/comments.
//
//	@Summary		Anchor a new comment on a text selection
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddCommentRequest	true	"Comment to anchor"
//	@Success		201		{object}	models.Comment
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comments [post]
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "path and content are required")
		return
	}
	sel := models.Selection{
		Start: req.Selection.Start,
		End:   req.Selection.End,
		Text:  req.Selection.Text,
	}
	c, err := h.svc.AddComment(r.Context(), req.Path, sel, req.Author, req.Content)
	if err != nil {
		writeCommentError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// EditComment handles PATCH /api/comments/{id}?path=.
//
//	@Summary		Rewrite a comment's content in place
//	@Tags			comments
//	@Accept			json
//	@Param			id		path	string				true	"Comment id"
//	@Param			path	query	string				true	"Document path"
//	@Param			body	body	EditCommentRequest	true	"New content"
//	@Success		204		"Comment updated"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comments/{id} [patch]
func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")
	path := r.URL.Query().Get("path")
	if id == "" || path == "" {
		writeError(w, http.StatusBadRequest, "id and path are required")
		return
	}
	var req EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if err := h.svc.EditComment(r.Context(), path, id, req.Content); err != nil {
		writeCommentError(w, "edit comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteComment handles DELETE /api/comments/{id}?path=.
//
//	@Summary		Remove a comment and its anchor
//	@Tags			comments
//	@Param			id		path	string	true	"Comment id"
//	@Param			path	query	string	true	"Document path"
//	@Success		204		"Comment removed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comments/{id} [delete]
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := r.URL.Query().Get("path")
	if id == "" || path == "" {
		writeError(w, http.StatusBadRequest, "id and path are required")
		return
	}
	if err := h.svc.DeleteComment(r.Context(), path, id); err != nil {
		writeCommentError(w, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across comments
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			Path:      hit.Path,
			CommentID: hit.CommentID,
			Author:    hit.Author,
			Snippet:   hit.Snippet,
		})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Overview handles GET /api/overview.
//
//	@Summary		Get per-document comment activity
//	@Tags			overview
//	@Produce		json
//	@Success		200	{object}	OverviewResponse
//	@Security		BearerAuth
//	@Router			/overview [get]
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Overview(r.Context())
	if err != nil {
		slog.Error("overview failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]OverviewEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, OverviewEntry{
			Path:          e.Path,
			CommentCount:  e.CommentCount,
			LastCommentAt: e.LastCommentAt,
		})
	}
	writeJSON(w, http.StatusOK, OverviewResponse{Documents: out})
}
