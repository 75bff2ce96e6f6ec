// Package comments orchestrates the comment lifecycle: Proposed selections
// become Anchored records in the document text, Edited in place, and
// Removed terminally. All transitions are pure functions over a document
// snapshot; the surrounding Service pushes results back to the vault.
package comments

import (
	"fmt"
	"strings"

	"github.com/marginalia-dev/marginalia/internal/anchor"
	"github.com/marginalia-dev/marginalia/internal/apperr"
	"github.com/marginalia-dev/marginalia/internal/directive"
	"github.com/marginalia-dev/marginalia/internal/escape"
	"github.com/marginalia-dev/marginalia/internal/frontmatter"
	"github.com/marginalia-dev/marginalia/internal/mdtext"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// Scheme selects the canonical persistence markup for new writes. Reads
// always accept both schemes; the choice is a configuration knob, not a
// migration.
type Scheme string

const (
	SchemeAnchor    Scheme = "anchor"
	SchemeDirective Scheme = "directive"
)

// Add anchors a proposed comment in doc and records it in frontmatter.
//
// The selection offsets are trusted only when they reproduce the selection
// text; otherwise the selection is re-located with the fuzzy matcher. A
// selection that cannot be located at all still becomes a frontmatter-only
// record: the comment survives as an orphan ("sidebar-only") instead of
// being lost. Selections inside code regions are rejected with
// apperr.ErrUnsupportedSelection, since code cannot carry comment markup.
func Add(doc string, sel models.Selection, c models.Comment, scheme Scheme) (string, error) {
	if c.ID == "" {
		return "", fmt.Errorf("comments: add: empty id: %w", apperr.ErrInvalidRange)
	}
	if idInUse(doc, c.ID) {
		return "", fmt.Errorf("comments: add id %q: %w", c.ID, apperr.ErrDuplicateAnchor)
	}

	start, end, located := resolveSelection(doc, sel)
	if !located {
		if sel.Text == "" {
			return "", fmt.Errorf("comments: add [%d,%d): %w", sel.Start, sel.End, apperr.ErrInvalidRange)
		}
		// Sidebar-only fallback: metadata without an anchor.
		return appendRecord(doc, c), nil
	}

	if mdtext.InCode(mdtext.CodeRegions(doc), start, end) {
		return "", fmt.Errorf("comments: add %q: selection is inside a code block: %w",
			c.ID, apperr.ErrUnsupportedSelection)
	}

	c.AnchoredText = strings.TrimSpace(doc[start:end])

	var (
		out string
		err error
	)
	switch scheme {
	case SchemeAnchor:
		out, err = anchor.Wrap(doc, start, end, c.ID)
		if err != nil {
			return "", err
		}
	default:
		out = wrapDirective(doc, start, end, c)
	}
	return appendRecord(out, c), nil
}

// Edit rewrites the content of an anchored comment in place, leaving its
// anchor untouched. Both the frontmatter record and a directive's text
// attribute (when the directive scheme persisted one) are updated.
func Edit(doc, id, newContent string) (string, error) {
	dirExists := directiveExists(doc, id)
	out := directive.Update(doc, id, newContent)

	rec := frontmatter.Parse(out)
	found := false
	for i := range rec.Comments {
		if rec.Comments[i].ID == id {
			rec.Comments[i].Content = newContent
			found = true
		}
	}
	if !found && !dirExists {
		return "", fmt.Errorf("comments: edit id %q: %w", id, apperr.ErrNotFound)
	}
	if found {
		out = frontmatter.Stringify(out, rec)
	}
	return out, nil
}

// Remove strips a comment's anchor markup and its frontmatter record.
// Removed is terminal: a second removal of the same id fails with
// apperr.ErrNotFound, and re-adding requires a fresh id.
func Remove(doc, id string) (string, error) {
	out := doc
	inBody := false
	if stripped, err := anchor.Remove(out, id); err == nil {
		out = stripped
		inBody = true
	}
	if stripped, ok := directive.Remove(out, id); ok {
		out = stripped
		inBody = true
	}

	rec := frontmatter.Parse(out)
	kept := rec.Comments[:0]
	inRecord := false
	for _, c := range rec.Comments {
		if c.ID == id {
			inRecord = true
			continue
		}
		kept = append(kept, c)
	}

	if !inBody && !inRecord {
		return "", fmt.Errorf("comments: remove id %q: %w", id, apperr.ErrNotFound)
	}
	if inRecord {
		rec.Comments = kept
		out = frontmatter.Stringify(out, rec)
	}
	return out, nil
}

// resolveSelection validates the selection offsets against the document and
// falls back to fuzzy matching when they disagree with the selection text.
func resolveSelection(doc string, sel models.Selection) (int, int, bool) {
	if sel.Start >= 0 && sel.End <= len(doc) && sel.Start < sel.End {
		if sel.Text == "" || doc[sel.Start:sel.End] == sel.Text {
			return sel.Start, sel.End, true
		}
	}
	if sel.Text == "" {
		return 0, 0, false
	}
	start, end := mdtext.FindSpan(doc, sel.Text)
	if start < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// wrapDirective encodes the span with directive markup: the container form
// for line-aligned selections spanning lines (inline payloads cannot hold
// newlines), the inline text form otherwise. Spans the directive grammar
// cannot carry losslessly fall back to anchor markers: the inline payload is
// bracket-delimited, so a span containing [ or ] would not re-parse, and a
// container around a mid-line selection would need inserted newlines that
// removal cannot take back.
func wrapDirective(doc string, start, end int, c models.Comment) string {
	spanText := doc[start:end]

	if strings.Contains(spanText, "\n") {
		atLineStart := start == 0 || doc[start-1] == '\n'
		atLineEnd := end == len(doc) || doc[end] == '\n'
		if !atLineStart || !atLineEnd || spanText != strings.TrimSpace(spanText) {
			return wrapAnchors(doc, start, end, c.ID)
		}
		return doc[:start] + ":::comment" + directiveAttrs(c) + "\n" +
			spanText + "\n:::" + doc[end:]
	}
	if strings.ContainsAny(spanText, "[]") {
		return wrapAnchors(doc, start, end, c.ID)
	}
	return doc[:start] + ":comment[" + spanText + "]" + directiveAttrs(c) + doc[end:]
}

func wrapAnchors(doc string, start, end int, id string) string {
	return doc[:start] + anchor.StartMarker(id) + doc[start:end] + anchor.EndMarker(id) + doc[end:]
}

func directiveAttrs(c models.Comment) string {
	var b strings.Builder
	b.WriteString(`{id="`)
	b.WriteString(c.ID)
	b.WriteString(`" text="`)
	b.WriteString(escape.EscapeStructural(c.Content))
	b.WriteString(`"`)
	if c.Timestamp != "" {
		b.WriteString(` timestamp="`)
		b.WriteString(c.Timestamp)
		b.WriteString(`"`)
	}
	b.WriteString("}")
	return b.String()
}

func appendRecord(doc string, c models.Comment) string {
	rec := frontmatter.Parse(doc)
	rec.Comments = append(rec.Comments, c)
	return frontmatter.Stringify(doc, rec)
}

func idInUse(doc, id string) bool {
	if anchor.Exists(doc, id) || directiveExists(doc, id) {
		return true
	}
	for _, c := range frontmatter.Parse(doc).Comments {
		if c.ID == id {
			return true
		}
	}
	return false
}

func directiveExists(doc, id string) bool {
	for _, d := range directive.Parse(doc) {
		if d.ID == id {
			return true
		}
	}
	return false
}
