package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marginalia-dev/marginalia/internal/comments"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *comments.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Comment lifecycle.
	r.Get("/comments", h.ListComments)
	r.Post("/comments", h.AddComment)
	r.Patch("/comments/{id}", h.EditComment)
	r.Delete("/comments/{id}", h.DeleteComment)

	// Search and overview.
	r.Get("/search", h.Search)
	r.Get("/overview", h.Overview)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
