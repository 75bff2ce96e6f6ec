package comments

import (
	"errors"
	"strings"
	"testing"

	"github.com/marginalia-dev/marginalia/internal/apperr"
	"github.com/marginalia-dev/marginalia/internal/docparse"
	"github.com/marginalia-dev/marginalia/internal/frontmatter"
	"github.com/marginalia-dev/marginalia/internal/models"
)

const sampleDoc = "# Title\n\nThis is a draft."

func sampleComment(id string) models.Comment {
	return models.Comment{
		ID:        id,
		Author:    "maya",
		Timestamp: "2026-01-02T03:04:05Z",
		Content:   "needs more detail",
	}
}

func TestAdd_DirectiveScheme(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	out, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(out, `:comment[draft]{id="c1"`) {
		t.Fatalf("output missing inline directive:\n%s", out)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 {
		t.Fatalf("ParseDocumentComments returned %d comments, want 1", len(got))
	}
	if got[0].AnchoredText != "draft" {
		t.Errorf("AnchoredText = %q, want %q", got[0].AnchoredText, "draft")
	}
	if got[0].Content != "needs more detail" {
		t.Errorf("Content = %q, want %q", got[0].Content, "needs more detail")
	}
	if got[0].Author != "maya" {
		t.Errorf("Author = %q, want %q", got[0].Author, "maya")
	}
}

func TestAdd_AnchorScheme(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	out, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeAnchor)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(out, "<!-- anchor-start:c1-->draft<!-- anchor-end:c1-->") {
		t.Fatalf("output missing anchor pair:\n%s", out)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 {
		t.Fatalf("ParseDocumentComments returned %d comments, want 1", len(got))
	}
	if got[0].AnchoredText != "draft" {
		t.Errorf("AnchoredText = %q, want %q", got[0].AnchoredText, "draft")
	}
}

func TestAdd_RelocatesStaleOffsets(t *testing.T) {
	// Offsets point at the heading, but the selection text pins the span.
	sel := models.Selection{Start: 0, End: 5, Text: "draft"}
	out, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(out, ":comment[draft]") {
		t.Fatalf("selection not relocated:\n%s", out)
	}
}

func TestAdd_EmptyID(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	_, err := Add(sampleDoc, sel, models.Comment{Content: "x"}, SchemeDirective)
	if !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("Add with empty id: err = %v, want ErrInvalidRange", err)
	}
}

func TestAdd_DuplicateID(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	out, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("first Add: %v", err)
	}
	_, err = Add(out, models.Selection{Text: "Title"}, sampleComment("c1"), SchemeDirective)
	if !errors.Is(err, apperr.ErrDuplicateAnchor) {
		t.Fatalf("second Add: err = %v, want ErrDuplicateAnchor", err)
	}
}

func TestAdd_InvalidRangeWithoutText(t *testing.T) {
	_, err := Add(sampleDoc, models.Selection{Start: 500, End: 600}, sampleComment("c1"), SchemeDirective)
	if !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestAdd_CodeSelectionRejected(t *testing.T) {
	doc := "Intro.\n\n```go\nfmt.Println(1)\n```\n"
	start := strings.Index(doc, "fmt.Println")
	sel := models.Selection{Start: start, End: start + len("fmt.Println(1)"), Text: "fmt.Println(1)"}
	_, err := Add(doc, sel, sampleComment("c1"), SchemeDirective)
	if !errors.Is(err, apperr.ErrUnsupportedSelection) {
		t.Fatalf("err = %v, want ErrUnsupportedSelection", err)
	}
}

func TestAdd_OrphanFallback(t *testing.T) {
	// The selection text no longer exists in the document. The comment must
	// survive as a frontmatter-only record with the body untouched.
	sel := models.Selection{Start: 0, End: 4, Text: "zebra quantum"}
	out, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasSuffix(out, sampleDoc) {
		t.Fatalf("document body changed:\n%s", out)
	}

	rec := frontmatter.Parse(out)
	if len(rec.Comments) != 1 || rec.Comments[0].ID != "c1" {
		t.Fatalf("frontmatter comments = %+v, want single record c1", rec.Comments)
	}
	if got := docparse.ParseDocumentComments(out); len(got) != 0 {
		t.Fatalf("orphan surfaced as anchored: %+v", got)
	}
}

func TestAdd_MultilineSelectionUsesContainer(t *testing.T) {
	doc := "Para one.\n\nPara two.\n"
	sel := models.Selection{Start: 0, End: 20, Text: "Para one.\n\nPara two."}
	c := models.Comment{ID: "m1", Content: "tighten this section"}
	out, err := Add(doc, sel, c, SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(out, ":::comment{id=\"m1\"") {
		t.Fatalf("output missing container directive:\n%s", out)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 {
		t.Fatalf("ParseDocumentComments returned %d comments, want 1", len(got))
	}
	if got[0].AnchoredText != "Para one.\n\nPara two." {
		t.Errorf("AnchoredText = %q", got[0].AnchoredText)
	}
	if got[0].Content != "tighten this section" {
		t.Errorf("Content = %q, want %q", got[0].Content, "tighten this section")
	}
}

func TestAdd_BracketedSelectionFallsBackToAnchors(t *testing.T) {
	// A link selection cannot ride inside :comment[...] because the payload
	// is bracket-delimited; the anchor markers carry it losslessly.
	doc := "see [the docs](https://example.com) for setup.\n"
	sel := models.Selection{Text: "[the docs](https://example.com)"}
	out, err := Add(doc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if strings.Contains(out, ":comment[") {
		t.Fatalf("bracketed span forced into inline directive:\n%s", out)
	}
	if !strings.Contains(out, "<!-- anchor-start:c1-->[the docs](https://example.com)<!-- anchor-end:c1-->") {
		t.Fatalf("output missing anchor pair:\n%s", out)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 {
		t.Fatalf("ParseDocumentComments returned %d comments, want 1", len(got))
	}
	if got[0].AnchoredText != "[the docs](https://example.com)" {
		t.Errorf("AnchoredText = %q", got[0].AnchoredText)
	}
	if got[0].Content != "needs more detail" {
		t.Errorf("Content = %q, want %q", got[0].Content, "needs more detail")
	}

	restored, err := Remove(out, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := "---\ncomments: []\n---\n" + doc; restored != want {
		t.Fatalf("Remove = %q, want %q", restored, want)
	}
}

func TestAdd_BraceContentSurvivesAttrs(t *testing.T) {
	// Raw braces in the comment text would otherwise terminate the
	// brace-delimited attrs block and make the directive unreadable.
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	c := sampleComment("c1")
	c.Content = "see the {curly} config block"
	out, err := Add(sampleDoc, sel, c, SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 {
		t.Fatalf("ParseDocumentComments returned %d comments, want 1", len(got))
	}
	if got[0].Content != "see the {curly} config block" {
		t.Errorf("Content = %q", got[0].Content)
	}
	if got[0].Timestamp != c.Timestamp {
		t.Errorf("Timestamp = %q, want %q; attrs block truncated?", got[0].Timestamp, c.Timestamp)
	}
}

func TestAdd_TemplateVariablesNotItalicized(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	c := sampleComment("c1")
	c.Content = "set {{env_var}} before deploying"
	out, err := Add(sampleDoc, sel, c, SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	// The raw underscore must not appear in the document, or a renderer
	// would read the variable name as italics.
	if strings.Contains(out, "env_var") {
		t.Fatalf("template underscore written raw:\n%s", out)
	}

	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 || got[0].Content != "set {{env_var}} before deploying" {
		t.Fatalf("got %+v, want template content restored", got)
	}
}

func TestAdd_MidLineMultilineRoundTrips(t *testing.T) {
	// A container fence around a mid-line span would need inserted newlines
	// that removal cannot take back, so anchors carry it instead.
	doc := "Intro words span\nacross lines here.\n"
	start := strings.Index(doc, "span")
	sel := models.Selection{Start: start, End: start + len("span\nacross"), Text: "span\nacross"}
	out, err := Add(doc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if strings.Contains(out, ":::comment") {
		t.Fatalf("mid-line span forced into container:\n%s", out)
	}
	if !strings.Contains(out, "<!-- anchor-start:c1-->") {
		t.Fatalf("output missing anchor markers:\n%s", out)
	}

	restored, err := Remove(out, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := "---\ncomments: []\n---\n" + doc; restored != want {
		t.Fatalf("Remove = %q, want %q", restored, want)
	}
}

func TestAddRemove_ContainerRoundTrips(t *testing.T) {
	doc := "Lead-in paragraph.\n\nPara one.\n\nPara two.\n\nTail paragraph.\n"
	start := strings.Index(doc, "Para one.")
	sel := models.Selection{Start: start, End: start + len("Para one.\n\nPara two."), Text: "Para one.\n\nPara two."}
	out, err := Add(doc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.Contains(out, ":::comment{id=\"c1\"") {
		t.Fatalf("output missing container directive:\n%s", out)
	}

	restored, err := Remove(out, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := "---\ncomments: []\n---\n" + doc; restored != want {
		t.Fatalf("Remove = %q, want %q", restored, want)
	}
}

func TestEdit_UpdatesRecordAndDirective(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	doc, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := Edit(doc, "c1", "sharper wording")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !strings.Contains(out, `text="sharper wording"`) {
		t.Fatalf("directive text attribute not updated:\n%s", out)
	}
	got := docparse.ParseDocumentComments(out)
	if len(got) != 1 || got[0].Content != "sharper wording" {
		t.Fatalf("after edit got %+v, want content %q", got, "sharper wording")
	}
	if got[0].AnchoredText != "draft" {
		t.Errorf("anchor moved: AnchoredText = %q, want %q", got[0].AnchoredText, "draft")
	}
}

func TestEdit_UnknownID(t *testing.T) {
	if _, err := Edit(sampleDoc, "ghost", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove_AnchorSchemeRestoresBody(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	doc, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeAnchor)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := Remove(doc, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := "---\ncomments: []\n---\n" + sampleDoc
	if out != want {
		t.Fatalf("Remove = %q, want %q", out, want)
	}
}

func TestRemove_IsTerminal(t *testing.T) {
	sel := models.Selection{Start: 19, End: 24, Text: "draft"}
	doc, err := Add(sampleDoc, sel, sampleComment("c1"), SchemeDirective)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	out, err := Remove(doc, "c1")
	if err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if strings.Contains(out, "c1") {
		t.Fatalf("id still present after removal:\n%s", out)
	}
	if _, err := Remove(out, "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second Remove: err = %v, want ErrNotFound", err)
	}
}

func TestRemove_OrphanRecordOnly(t *testing.T) {
	// A frontmatter-only orphan can still be deleted.
	doc := frontmatter.Stringify(sampleDoc, frontmatter.Record{
		Comments: []models.Comment{sampleComment("c1")},
	})
	out, err := Remove(doc, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(frontmatter.Parse(out).Comments) != 0 {
		t.Fatalf("record survived removal:\n%s", out)
	}
}
