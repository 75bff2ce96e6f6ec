// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Marginalia comment tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marginalia-dev/marginalia/internal/comments"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// Server wraps the MCP server with Marginalia tools.
type Server struct {
	mcp *server.MCPServer
	svc *comments.Service
}

// New creates a new MCP server with all Marginalia tools registered.
func New(svc *comments.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Marginalia",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List vault documents with their comment counts."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw content of a Markdown document, including comment markup."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. essays/draft.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_comments",
		mcp.WithDescription("List the resolved comments of a document in reading order, with anchored text and byte spans."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.listComments)

	s.mcp.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Anchor a new comment on a text selection. The selection text must "+
			"quote the document verbatim; the comment markup is written into the document "+
			"per the format described by the get_comment_contract tool or the "+
			"marginalia://comment-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("selection", mcp.Required(), mcp.Description("Exact text of the passage to comment on")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The comment text")),
		mcp.WithString("author", mcp.Description("Author name (defaults to the configured author)")),
	), s.addComment)

	s.mcp.AddTool(mcp.NewTool("edit_comment",
		mcp.WithDescription("Rewrite the content of an existing comment, leaving its anchor in place."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("id", mcp.Required(), mcp.Description("The comment id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The replacement comment text")),
	), s.editComment)

	s.mcp.AddTool(mcp.NewTool("delete_comment",
		mcp.WithDescription("Remove a comment and its anchor markup from a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("id", mcp.Required(), mcp.Description("The comment id")),
	), s.deleteComment)

	s.mcp.AddTool(mcp.NewTool("search_comments",
		mcp.WithDescription("Full-text search across comment content in the whole vault."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchComments)

	s.mcp.AddTool(mcp.NewTool("get_comment_contract",
		mcp.WithDescription("Returns the canonical Marginalia comment format contract. "+
			"Call this before writing comment markup by hand."),
	), s.getCommentContract)

	// Resource: comment format contract.
	s.mcp.AddResource(
		mcp.NewResource("marginalia://comment-format", "Comment Format Contract",
			mcp.WithResourceDescription("Canonical comment markup that annotated documents follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCommentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, _, err := s.svc.ListDocuments(ctx, 0, 0, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(rows))
	for _, d := range rows {
		lines = append(lines, fmt.Sprintf("%s (%d comments)", d.Path, d.CommentCount))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("vault is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) listComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.ListComments(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(list, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selection, err := req.RequireString("selection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author := ""
	if a, aErr := req.RequireString("author"); aErr == nil {
		author = a
	}

	sel := models.Selection{Start: -1, End: -1, Text: selection}
	c, err := s.svc.AddComment(ctx, path, sel, author, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added comment %s on %q", c.ID, c.AnchoredText)), nil
}

func (s *Server) editComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.EditComment(ctx, path, id, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) deleteComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteComment(ctx, path, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) searchComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCommentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CommentFormatContract), nil
}

func (s *Server) readCommentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "marginalia://comment-format",
			MIMEType: "text/markdown",
			Text:     CommentFormatContract,
		},
	}, nil
}
