package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marginalia-dev/marginalia/internal/comments"
	"github.com/marginalia-dev/marginalia/internal/models"
	"github.com/marginalia-dev/marginalia/internal/testutil"
)

func modelsSelection(text string) models.Selection {
	return models.Selection{Start: -1, End: -1, Text: text}
}

func testServer(t *testing.T) (*Server, *comments.Service) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	svc := comments.NewService(store, db, comments.SchemeDirective, "reviewer")
	srv := New(svc)
	return srv, svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so the tool
	// handler functions are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "list_comments":
		result, err = srv.listComments(ctx, req)
	case "add_comment":
		result, err = srv.addComment(ctx, req)
	case "edit_comment":
		result, err = srv.editComment(ctx, req)
	case "delete_comment":
		result, err = srv.deleteComment(ctx, req)
	case "search_comments":
		result, err = srv.searchComments(ctx, req)
	case "get_comment_contract":
		result, err = srv.getCommentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func seedDocument(t *testing.T, svc *comments.Service, path, content string) {
	t.Helper()
	if _, err := svc.CreateDocument(context.Background(), path, []byte(content)); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
}

func TestAddAndListComments(t *testing.T) {
	srv, svc := testServer(t)
	seedDocument(t, svc, "essay.md", "# Essay\n\nThe middle section drags.\n")

	r := callTool(t, srv, "add_comment", map[string]interface{}{
		"path":      "essay.md",
		"selection": "middle section drags",
		"content":   "cut the digression",
	})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("add_comment failed: %s", text)
	}
	if !strings.Contains(text, `on "middle section drags"`) {
		t.Errorf("add result = %q", text)
	}

	r = callTool(t, srv, "list_comments", map[string]interface{}{"path": "essay.md"})
	text = resultText(r)
	if !strings.Contains(text, "cut the digression") {
		t.Errorf("list_comments = %q, want comment content", text)
	}
	if !strings.Contains(text, `"author": "reviewer"`) {
		t.Errorf("list_comments = %q, want default author", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestListDocuments(t *testing.T) {
	srv, svc := testServer(t)
	seedDocument(t, svc, "a.md", "alpha")
	seedDocument(t, svc, "b.md", "beta")

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "b.md") {
		t.Errorf("list_documents = %q", text)
	}
}

func TestEditAndDeleteComment(t *testing.T) {
	srv, svc := testServer(t)
	seedDocument(t, svc, "doc.md", "A sentence worth flagging.\n")

	c, err := svc.AddComment(context.Background(), "doc.md",
		modelsSelection("worth flagging"), "maya", "flag it")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	r := callTool(t, srv, "edit_comment", map[string]interface{}{
		"path":    "doc.md",
		"id":      c.ID,
		"content": "flag it harder",
	})
	if r.IsError {
		t.Fatalf("edit_comment failed: %s", resultText(r))
	}

	r = callTool(t, srv, "delete_comment", map[string]interface{}{
		"path": "doc.md",
		"id":   c.ID,
	})
	if r.IsError {
		t.Fatalf("delete_comment failed: %s", resultText(r))
	}

	// A second delete reports the error through the tool result.
	r = callTool(t, srv, "delete_comment", map[string]interface{}{
		"path": "doc.md",
		"id":   c.ID,
	})
	if !r.IsError {
		t.Error("expected error deleting an already-removed comment")
	}
}

func TestSearchComments(t *testing.T) {
	srv, svc := testServer(t)
	seedDocument(t, svc, "s.md", "Prose mentioning a rare idea.\n")
	if _, err := svc.AddComment(context.Background(), "s.md",
		modelsSelection("rare idea"), "maya", "glossology needs a citation"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	r := callTool(t, srv, "search_comments", map[string]interface{}{"query": "glossology"})
	text := resultText(r)
	if !strings.Contains(text, "s.md") {
		t.Errorf("search_comments = %q, want hit in s.md", text)
	}
}

func TestGetCommentContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_comment_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, ":comment[") || !strings.Contains(text, "anchor-start") {
		t.Errorf("contract missing scheme descriptions: %q", text)
	}
}
