// Package anchor implements the HTML-comment anchoring scheme: a text span
// is delimited by a pair of comment markers sharing an id, invisible to any
// Markdown renderer.
//
// Marker syntax:
//
//	<!-- anchor-start:ID-->anchored text<!-- anchor-end:ID-->
//
// Ids are caller-supplied opaque tokens. A duplicate id is a caller bug and
// wrapping rejects it; a start marker whose end marker was edited away is an
// orphan and is silently ignored on scan.
package anchor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marginalia-dev/marginalia/internal/apperr"
)

const (
	startPrefix  = "<!-- anchor-start:"
	endPrefix    = "<!-- anchor-end:"
	markerSuffix = "-->"
)

var (
	startRe = regexp.MustCompile(`<!-- anchor-start:([^\s>]+)-->`)
	endRe   = regexp.MustCompile(`<!-- anchor-end:([^\s>]+)-->`)
)

// Anchor is a matched start/end marker pair. Start and End are byte offsets
// of the enclosed span (marker text excluded). AnchoredText is the enclosed
// text with surrounding whitespace trimmed.
type Anchor struct {
	ID           string
	Start        int
	End          int
	AnchoredText string
}

// StartMarker returns the start marker for id.
func StartMarker(id string) string {
	return startPrefix + id + markerSuffix
}

// EndMarker returns the end marker for id.
func EndMarker(id string) string {
	return endPrefix + id + markerSuffix
}

// FindAll scans content for marker pairs and returns them in document order.
// A start marker with no end marker after it is dropped. When several end
// markers carry the same id, the first one following the start wins.
func FindAll(content string) []Anchor {
	starts := startRe.FindAllStringSubmatchIndex(content, -1)
	ends := endRe.FindAllStringSubmatchIndex(content, -1)

	// End marker offsets per id, in document order.
	endsByID := make(map[string][]int, len(ends))
	for _, m := range ends {
		id := content[m[2]:m[3]]
		endsByID[id] = append(endsByID[id], m[0])
	}

	var out []Anchor
	seen := make(map[string]struct{}, len(starts))
	for _, m := range starts {
		id := content[m[2]:m[3]]
		if _, dup := seen[id]; dup {
			continue
		}
		spanStart := m[1]
		endOff := -1
		for _, e := range endsByID[id] {
			if e >= spanStart {
				endOff = e
				break
			}
		}
		if endOff < 0 {
			continue // orphaned start
		}
		seen[id] = struct{}{}
		out = append(out, Anchor{
			ID:           id,
			Start:        spanStart,
			End:          endOff,
			AnchoredText: strings.TrimSpace(content[spanStart:endOff]),
		})
	}
	return out
}

// Exists reports whether any marker (start or end) for id is present.
func Exists(content, id string) bool {
	return strings.Contains(content, StartMarker(id)) ||
		strings.Contains(content, EndMarker(id))
}

// Wrap inserts a start marker immediately before offset start and an end
// marker immediately after offset end. It fails with apperr.ErrInvalidRange
// on bad bounds and apperr.ErrDuplicateAnchor when id is already present
// anywhere in the document.
func Wrap(content string, start, end int, id string) (string, error) {
	if start < 0 || end > len(content) || start >= end {
		return "", fmt.Errorf("anchor: wrap [%d,%d) in %d bytes: %w",
			start, end, len(content), apperr.ErrInvalidRange)
	}
	if Exists(content, id) {
		return "", fmt.Errorf("anchor: wrap id %q: %w", id, apperr.ErrDuplicateAnchor)
	}
	var b strings.Builder
	b.Grow(len(content) + len(StartMarker(id)) + len(EndMarker(id)))
	b.WriteString(content[:start])
	b.WriteString(StartMarker(id))
	b.WriteString(content[start:end])
	b.WriteString(EndMarker(id))
	b.WriteString(content[end:])
	return b.String(), nil
}

// Remove strips both markers for id, leaving the previously anchored text in
// place. It fails with apperr.ErrAnchorNotFound when no marker for id exists.
func Remove(content, id string) (string, error) {
	if !Exists(content, id) {
		return "", fmt.Errorf("anchor: remove id %q: %w", id, apperr.ErrAnchorNotFound)
	}
	out := strings.ReplaceAll(content, StartMarker(id), "")
	out = strings.ReplaceAll(out, EndMarker(id), "")
	return out, nil
}
