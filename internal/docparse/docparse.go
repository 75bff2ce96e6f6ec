// Package docparse is the document read path: it joins the frontmatter
// comment records with the spans resolved from in-body markup and yields the
// fully anchored view consumers render.
//
// Both persistence schemes are always readable. HTML-comment anchor pairs
// and comment directives contribute spans alike, so documents written under
// either scheme (or migrated between them) reconstruct the same comment
// list.
package docparse

import (
	"sort"

	"github.com/marginalia-dev/marginalia/internal/anchor"
	"github.com/marginalia-dev/marginalia/internal/directive"
	"github.com/marginalia-dev/marginalia/internal/frontmatter"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// span is a resolved body location for a comment id.
type span struct {
	start, end int
	text       string
	// dir carries directive-borne metadata for ids absent from frontmatter.
	dir *directive.Directive
}

// ParseDocumentComments resolves every comment in documentText and returns
// them ordered by position. Frontmatter records without a live anchor or
// directive (orphans) are omitted; directives whose id is missing from
// frontmatter are still returned, with the directive's own metadata, so
// documents stripped of their frontmatter stay readable.
func ParseDocumentComments(documentText string) []models.AnchoredComment {
	spans := resolveSpans(documentText)
	rec := frontmatter.Parse(documentText)

	var out []models.AnchoredComment
	claimed := make(map[string]struct{}, len(rec.Comments))
	for _, c := range rec.Comments {
		sp, ok := spans[c.ID]
		if !ok {
			continue // orphan: invisible until its anchor is restored
		}
		claimed[c.ID] = struct{}{}
		c.AnchoredText = sp.text
		out = append(out, models.AnchoredComment{
			Comment:       c,
			StartPosition: sp.start,
			EndPosition:   sp.end,
		})
	}

	for id, sp := range spans {
		if _, ok := claimed[id]; ok || sp.dir == nil {
			continue
		}
		out = append(out, models.AnchoredComment{
			Comment: models.Comment{
				ID:           id,
				Timestamp:    sp.dir.Timestamp,
				Content:      sp.dir.Text,
				AnchoredText: sp.dir.AnchoredText,
			},
			StartPosition: sp.start,
			EndPosition:   sp.end,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartPosition < out[j].StartPosition
	})
	return out
}

// FindCommentByID returns the resolved comment with the given id, or false
// when it has no live anchor in the document.
func FindCommentByID(documentText, id string) (models.AnchoredComment, bool) {
	for _, c := range ParseDocumentComments(documentText) {
		if c.ID == id {
			return c, true
		}
	}
	return models.AnchoredComment{}, false
}

// resolveSpans collects body locations per id from both schemes. Anchors
// win over directives for the same id (first-match-wins, documented rather
// than guessed: a document carrying both for one id is already corrupted).
func resolveSpans(documentText string) map[string]span {
	spans := make(map[string]span)
	dirs := directive.Parse(documentText)
	for i := range dirs {
		d := &dirs[i]
		if _, ok := spans[d.ID]; ok {
			continue
		}
		spans[d.ID] = span{start: d.Start, end: d.End, text: d.AnchoredText, dir: d}
	}
	for _, a := range anchor.FindAll(documentText) {
		spans[a.ID] = span{start: a.Start, end: a.End, text: a.AnchoredText}
	}
	return spans
}
