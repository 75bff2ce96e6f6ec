// Package directive implements the directive-based anchoring scheme, an
// extended-Markdown syntax carrying comment metadata inline:
//
//	:comment[visible text]{id="c1" text="escaped comment"}     text form
//	::comment[visible text]{id="c1" text="escaped comment"}    leaf form
//	:::comment{id="c1" text="escaped comment"}                 container form
//	multi-paragraph payload
//	:::
//
// The id attribute also accepts the shorthand #value form. Directives
// missing id or text, carrying unknown names, or lacking a closing fence are
// inert: user documents are free text and may contain arbitrary third-party
// directive syntax, so nothing here ever fails on malformed input.
package directive

import (
	"regexp"
	"strings"

	"github.com/marginalia-dev/marginalia/internal/escape"
	"github.com/marginalia-dev/marginalia/internal/models"
)

// Kind discriminates the three directive forms.
type Kind string

const (
	KindText      Kind = "text"      // single colon, inline
	KindLeaf      Kind = "leaf"      // double colon, own line
	KindContainer Kind = "container" // triple-plus colon, fenced block
)

// Directive is a recognized comment directive with its resolved document
// span. Start and End cover the full syntax, fences included.
type Directive struct {
	Kind         Kind
	ID           string
	Text         string // unescaped text attribute
	Timestamp    string
	AnchoredText string
	Start        int
	End          int

	// inner is what Remove substitutes for the directive: the bracket
	// content for text/leaf forms, the trimmed body for containers.
	inner        string
	textValStart int
	textValEnd   int
}

var (
	directiveRe = regexp.MustCompile(`(:+)comment(?:\[([^][\n]*)\])?\{([^}\n]*)\}`)
	idAttrRe    = regexp.MustCompile(`id="([^"]*)"`)
	idShortRe   = regexp.MustCompile(`(?:^|\s)#([^\s"{}]+)`)
	textAttrRe  = regexp.MustCompile(`text="([^"]*)"`)
	tsAttrRe    = regexp.MustCompile(`timestamp="([^"]*)"`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// Parse scans markdown for comment directives and returns them in document
// order. Malformed directives are skipped, never reported as errors.
func Parse(markdown string) []Directive {
	var out []Directive
	for _, m := range directiveRe.FindAllStringSubmatchIndex(markdown, -1) {
		colons := m[3] - m[2]
		hasBracket := m[4] >= 0
		attrs := markdown[m[6]:m[7]]

		id := attrValue(attrs, idAttrRe)
		if id == "" {
			id = attrValue(attrs, idShortRe)
		}
		textVal, textOK := attrSpan(markdown, m[6], m[7], textAttrRe)
		if id == "" || !textOK {
			continue
		}

		d := Directive{
			ID:           id,
			Text:         escape.Unescape(markdown[textVal[0]:textVal[1]]),
			Timestamp:    attrValue(attrs, tsAttrRe),
			Start:        m[0],
			End:          m[1],
			textValStart: textVal[0],
			textValEnd:   textVal[1],
		}

		switch {
		case colons >= 3:
			// Container form: no bracket content, opening fence on its own
			// line, payload until a closing colon fence of at least the
			// same run length.
			if hasBracket && m[5] > m[4] {
				continue
			}
			if m[0] > 0 && markdown[m[0]-1] != '\n' {
				continue
			}
			body, blockEnd, ok := containerBody(markdown, m[1], colons)
			if !ok {
				continue // unterminated
			}
			d.Kind = KindContainer
			d.AnchoredText = strings.TrimSpace(body)
			d.inner = d.AnchoredText
			d.End = blockEnd
		case colons == 2:
			d.Kind = KindLeaf
			d.AnchoredText = bracketContent(markdown, m)
			d.inner = d.AnchoredText
		default:
			d.Kind = KindText
			d.AnchoredText = bracketContent(markdown, m)
			d.inner = d.AnchoredText
		}

		out = append(out, d)
	}
	return out
}

// ParseComments returns the comments encoded by all recognized directives.
func ParseComments(markdown string) []models.Comment {
	dirs := Parse(markdown)
	out := make([]models.Comment, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, models.Comment{
			ID:           d.ID,
			Timestamp:    d.Timestamp,
			Content:      d.Text,
			AnchoredText: d.AnchoredText,
		})
	}
	return out
}

// Update rewrites the text attribute of the directive whose id matches,
// leaving the colon run, visible content, and every other attribute intact.
// When no directive matches, markdown is returned unchanged.
func Update(markdown, id, newText string) string {
	for _, d := range Parse(markdown) {
		if d.ID != id {
			continue
		}
		return markdown[:d.textValStart] +
			escape.EscapeStructural(newText) +
			markdown[d.textValEnd:]
	}
	return markdown
}

// Remove un-wraps the directive whose id matches, substituting its visible
// content: the bracket payload for text/leaf forms, the inner block for
// containers. Blank-line runs created around a removed container are
// collapsed so repeated add/remove cycles do not accumulate empty lines.
// The boolean reports whether anything was removed.
func Remove(markdown, id string) (string, bool) {
	for _, d := range Parse(markdown) {
		if d.ID != id {
			continue
		}
		out := markdown[:d.Start] + d.inner + markdown[d.End:]
		if d.Kind == KindContainer {
			out = collapseAround(out, d.Start, d.Start+len(d.inner))
		}
		return out, true
	}
	return markdown, false
}

// containerBody locates the closing fence for a container opened with the
// given colon run. from points just past the opening attrs. It returns the
// raw body between the opening line and the fence line, and the offset just
// past the fence.
func containerBody(markdown string, from, colons int) (body string, end int, ok bool) {
	nl := strings.IndexByte(markdown[from:], '\n')
	if nl < 0 {
		return "", 0, false
	}
	bodyStart := from + nl + 1

	pos := bodyStart
	for pos <= len(markdown) {
		lineEnd := strings.IndexByte(markdown[pos:], '\n')
		var line string
		if lineEnd < 0 {
			line = markdown[pos:]
			lineEnd = len(markdown) - pos
		} else {
			line = markdown[pos : pos+lineEnd]
		}
		if isFence(line, colons) {
			return markdown[bodyStart:pos], pos + len(line), true
		}
		pos += lineEnd + 1
	}
	return "", 0, false
}

// isFence reports whether line is a closing fence: a colon run of at least
// n, optionally followed by spaces or tabs.
func isFence(line string, n int) bool {
	i := 0
	for i < len(line) && line[i] == ':' {
		i++
	}
	if i < n {
		return false
	}
	return strings.TrimRight(line[i:], " \t") == ""
}

func bracketContent(markdown string, m []int) string {
	if m[4] < 0 {
		return ""
	}
	return markdown[m[4]:m[5]]
}

func attrValue(attrs string, re *regexp.Regexp) string {
	if m := re.FindStringSubmatch(attrs); m != nil {
		return m[1]
	}
	return ""
}

// attrSpan resolves the absolute byte span of an attribute value inside the
// attrs region [lo,hi) of markdown.
func attrSpan(markdown string, lo, hi int, re *regexp.Regexp) ([2]int, bool) {
	m := re.FindStringSubmatchIndex(markdown[lo:hi])
	if m == nil {
		return [2]int{}, false
	}
	return [2]int{lo + m[2], lo + m[3]}, true
}

// collapseAround rewrites runs of three or more newlines down to two, but
// only in the neighborhood of the splice [lo,hi) so unrelated document
// regions keep their exact whitespace.
func collapseAround(s string, lo, hi int) string {
	winLo := lo - 3
	if winLo < 0 {
		winLo = 0
	}
	winHi := hi + 3
	if winHi > len(s) {
		winHi = len(s)
	}
	window := blankRunRe.ReplaceAllString(s[winLo:winHi], "\n\n")
	return s[:winLo] + window + s[winHi:]
}
