// Package frontmatter stores the canonical comment records in a YAML block
// at the top of a Markdown document, under the "comments" key. The block is
// decoupled from in-body anchors: a record whose anchor was edited away
// stays in frontmatter as an orphan, available for later recovery.
package frontmatter

import (
	"strings"

	adrg "github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/marginalia-dev/marginalia/internal/models"
)

const (
	// Key is the recognized frontmatter key holding comment records.
	Key = "comments"

	// Delimiter is the standard frontmatter fence.
	Delimiter = "---"
	// AltDelimiter is a tolerated corruption of the fence: editors with
	// smart-dash substitution turn the leading hyphens into an em dash.
	// Accepted on read, always rewritten as Delimiter on write.
	AltDelimiter = "—-"
)

var formats = []*adrg.Format{
	adrg.NewFormat(Delimiter, Delimiter, yaml.Unmarshal),
	adrg.NewFormat(AltDelimiter, AltDelimiter, yaml.Unmarshal),
}

// Record is the parsed frontmatter of a document: the ordered comment list
// plus every other top-level key, preserved verbatim across comment-only
// updates.
type Record struct {
	Comments []models.Comment
	Fields   map[string]any
}

// Parse extracts the frontmatter record from documentText. A missing block,
// a block without the comments key, or malformed YAML all degrade to an
// empty record; parsing never fails on untrusted document content.
func Parse(documentText string) Record {
	var fields map[string]any
	if _, err := adrg.Parse(strings.NewReader(documentText), &fields, formats...); err != nil {
		return Record{}
	}
	if fields == nil {
		return Record{}
	}

	rec := Record{Fields: fields}
	raw, ok := fields[Key]
	if ok {
		delete(fields, Key)
		rec.Comments = decodeComments(raw)
	}
	if len(rec.Fields) == 0 {
		rec.Fields = nil
	}
	return rec
}

// Stringify serializes rec back into documentText, replacing an existing
// frontmatter block (either accepted delimiter) or prepending a fresh one.
// Everything after the block is preserved byte for byte.
func Stringify(documentText string, rec Record) string {
	fields := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	comments := rec.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	fields[Key] = comments

	encoded, err := yaml.Marshal(fields)
	if err != nil {
		return documentText
	}
	block := Delimiter + "\n" + string(encoded) + Delimiter + "\n"

	if body, found := splitBody(documentText); found {
		return block + body
	}
	return block + documentText
}

// decodeComments converts the raw YAML value under Key into typed records
// via a marshal/unmarshal round trip. Any shape mismatch degrades to nil.
func decodeComments(raw any) []models.Comment {
	encoded, err := yaml.Marshal(raw)
	if err != nil {
		return nil
	}
	var out []models.Comment
	if err := yaml.Unmarshal(encoded, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitBody returns the document content following an existing frontmatter
// block. The opening fence must be the very first line; the closing fence is
// the next line consisting solely of the same delimiter.
func splitBody(doc string) (string, bool) {
	delim := ""
	switch {
	case doc == "":
		return "", false
	case strings.HasPrefix(doc, Delimiter+"\n") || doc == Delimiter:
		delim = Delimiter
	case strings.HasPrefix(doc, AltDelimiter+"\n") || doc == AltDelimiter:
		delim = AltDelimiter
	default:
		return "", false
	}

	pos := len(delim) + 1
	if pos > len(doc) {
		return "", false
	}
	for pos <= len(doc) {
		lineEnd := strings.IndexByte(doc[pos:], '\n')
		var line string
		next := len(doc)
		if lineEnd >= 0 {
			line = doc[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		} else {
			line = doc[pos:]
		}
		if strings.TrimRight(line, " \t") == delim {
			return doc[next:], true
		}
		pos = next
		if lineEnd < 0 {
			break
		}
	}
	return "", false
}
