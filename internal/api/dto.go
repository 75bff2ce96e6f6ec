package api

import (
	"time"

	"github.com/marginalia-dev/marginalia/internal/comments"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"essays/draft.md" validate:"required"`
	Content string `json:"content" example:"# Draft\nBody" validate:"required"`
}

// UpdateDocumentRequest is the request body for replacing document content.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"# Updated\nBody" validate:"required"`
}

// SelectionDTO carries the selected text range for a new comment. Offsets
// are byte positions into the raw document; Text re-locates the span when
// the offsets are stale.
type SelectionDTO struct {
	Start int    `json:"start" example:"19"`
	End   int    `json:"end" example:"24"`
	Text  string `json:"text" example:"a draft"`
}

// AddCommentRequest is the request body for anchoring a new comment.
type AddCommentRequest struct {
	Path      string       `json:"path" example:"essays/draft.md" validate:"required"`
	Author    string       `json:"author" example:"maya"`
	Content   string       `json:"content" example:"needs more detail" validate:"required"`
	Selection SelectionDTO `json:"selection" validate:"required"`
}

// EditCommentRequest is the request body for rewriting a comment.
type EditCommentRequest struct {
	Content string `json:"content" example:"sharper wording" validate:"required"`
}

// DocumentDetail is the full document response type (aliased from the
// domain layer).
type DocumentDetail = comments.DocumentDetail

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path         string    `json:"path" example:"essays/draft.md" validate:"required"`
	Checksum     string    `json:"checksum" example:"abc123..." validate:"required"`
	CommentCount int       `json:"comment_count" example:"3" validate:"required"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// CommentListResponse wraps the anchored comments of one document.
type CommentListResponse struct {
	Comments []models.AnchoredComment `json:"comments" validate:"required"`
}

// SearchResult is a single comment search hit in the API response.
type SearchResult struct {
	Path      string `json:"path" example:"essays/draft.md" validate:"required"`
	CommentID string `json:"comment_id" example:"c1" validate:"required"`
	Author    string `json:"author" example:"maya"`
	Snippet   string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// OverviewEntry summarizes comment activity on one document.
type OverviewEntry struct {
	Path          string `json:"path" example:"essays/draft.md" validate:"required"`
	CommentCount  int    `json:"comment_count" example:"3" validate:"required"`
	LastCommentAt string `json:"last_comment_at" example:"2026-01-02T03:04:05Z"`
}

// OverviewResponse wraps the vault-wide comment overview.
type OverviewResponse struct {
	Documents []OverviewEntry `json:"documents" validate:"required"`
}
