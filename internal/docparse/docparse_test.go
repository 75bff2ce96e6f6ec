package docparse

import (
	"testing"

	"github.com/marginalia-dev/marginalia/internal/anchor"
	"github.com/marginalia-dev/marginalia/internal/frontmatter"
	"github.com/marginalia-dev/marginalia/internal/models"
)

func TestParseDocumentComments_AnchorScheme(t *testing.T) {
	body := "# Title\n\nThis is a draft."
	wrapped, err := anchor.Wrap(body, 19, 24, "c1") // "draft"
	if err != nil {
		t.Fatal(err)
	}
	doc := frontmatter.Stringify(wrapped, frontmatter.Record{
		Comments: []models.Comment{
			{ID: "c1", Author: "ada", Timestamp: "2026-03-01T09:00:00Z", Content: "needs more detail"},
		},
	})

	comments := ParseDocumentComments(doc)
	if len(comments) != 1 {
		t.Fatalf("len = %d, want 1", len(comments))
	}
	c := comments[0]
	if c.ID != "c1" || c.Content != "needs more detail" {
		t.Errorf("comment = %+v", c)
	}
	if c.AnchoredText != "draft" {
		t.Errorf("anchored text = %q, want draft", c.AnchoredText)
	}
	if doc[c.StartPosition:c.EndPosition] != "draft" {
		t.Errorf("span = %q", doc[c.StartPosition:c.EndPosition])
	}
}

func TestParseDocumentComments_DirectiveScheme(t *testing.T) {
	doc := `Some prose with :comment[a span]{id="d1" text="inline note"} inside.`
	comments := ParseDocumentComments(doc)
	if len(comments) != 1 {
		t.Fatalf("len = %d, want 1", len(comments))
	}
	if comments[0].Content != "inline note" || comments[0].AnchoredText != "a span" {
		t.Errorf("comment = %+v", comments[0])
	}
}

func TestParseDocumentComments_OrphanOmitted(t *testing.T) {
	doc := frontmatter.Stringify("No anchors in this body.\n", frontmatter.Record{
		Comments: []models.Comment{{ID: "ghost", Content: "lost"}},
	})
	if comments := ParseDocumentComments(doc); len(comments) != 0 {
		t.Errorf("orphan surfaced: %+v", comments)
	}
}

func TestParseDocumentComments_FrontmatterMetadataWins(t *testing.T) {
	body := `Text :comment[span]{id="m" text="directive copy"} more.`
	doc := frontmatter.Stringify(body, frontmatter.Record{
		Comments: []models.Comment{{ID: "m", Author: "ada", Content: "canonical copy"}},
	})
	comments := ParseDocumentComments(doc)
	if len(comments) != 1 {
		t.Fatalf("len = %d", len(comments))
	}
	if comments[0].Content != "canonical copy" || comments[0].Author != "ada" {
		t.Errorf("frontmatter metadata not preferred: %+v", comments[0])
	}
	if comments[0].AnchoredText != "span" {
		t.Errorf("anchored text = %q", comments[0].AnchoredText)
	}
}

func TestParseDocumentComments_OrderedByPosition(t *testing.T) {
	body := "alpha beta gamma delta"
	withSecond, err := anchor.Wrap(body, 17, 22, "later") // "delta"
	if err != nil {
		t.Fatal(err)
	}
	both, err := anchor.Wrap(withSecond, 0, 5, "earlier") // "alpha"
	if err != nil {
		t.Fatal(err)
	}
	doc := frontmatter.Stringify(both, frontmatter.Record{
		Comments: []models.Comment{
			{ID: "later", Content: "z"},
			{ID: "earlier", Content: "a"},
		},
	})
	comments := ParseDocumentComments(doc)
	if len(comments) != 2 {
		t.Fatalf("len = %d", len(comments))
	}
	if comments[0].ID != "earlier" || comments[1].ID != "later" {
		t.Errorf("order = %q, %q", comments[0].ID, comments[1].ID)
	}
}

func TestFindCommentByID(t *testing.T) {
	doc := `Text :comment[span]{id="f1" text="note"} more.`
	c, ok := FindCommentByID(doc, "f1")
	if !ok {
		t.Fatal("not found")
	}
	if c.ID != "f1" {
		t.Errorf("id = %q", c.ID)
	}
	if _, ok := FindCommentByID(doc, "missing"); ok {
		t.Error("missing id reported found")
	}
}
