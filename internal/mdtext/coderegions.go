package mdtext

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Region is a half-open byte interval [Start, End) of a document.
type Region struct {
	Start int
	End   int
}

var codeParser = goldmark.New()

// CodeRegions runs a single goldmark parse over doc and returns a sorted,
// merged list of intervals covering fenced code blocks, indented code
// blocks, and inline code spans. Callers consult the list via InCode instead
// of re-scanning the document per position.
func CodeRegions(doc string) []Region {
	source := []byte(doc)
	root := codeParser.Parser().Parse(text.NewReader(source))

	var regions []Region
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			if lines.Len() == 0 {
				return ast.WalkContinue, nil
			}
			start := lines.At(0).Start
			stop := lines.At(lines.Len() - 1).Stop
			if n.Kind() == ast.KindFencedCodeBlock {
				start, stop = expandToFences(source, start, stop)
			}
			regions = append(regions, Region{Start: start, End: stop})
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					regions = append(regions, Region{Start: t.Segment.Start, End: t.Segment.Stop})
				}
			}
		}
		return ast.WalkContinue, nil
	})

	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	return mergeRegions(regions)
}

// InCode reports whether the span [start, end) overlaps any code region.
func InCode(regions []Region, start, end int) bool {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End > start })
	return i < len(regions) && regions[i].Start < end
}

// expandToFences widens a fenced block's content interval to cover the fence
// lines themselves, so a selection touching the fence syntax is also treated
// as code.
func expandToFences(source []byte, start, stop int) (int, int) {
	if start > 0 {
		if i := bytes.LastIndexByte(source[:start-1], '\n'); i >= 0 {
			start = i + 1
		} else {
			start = 0
		}
	}
	if stop < len(source) {
		if i := bytes.IndexByte(source[stop:], '\n'); i >= 0 {
			stop += i + 1
		} else {
			stop = len(source)
		}
	}
	return start, stop
}

func mergeRegions(regions []Region) []Region {
	if len(regions) < 2 {
		return regions
	}
	out := regions[:1]
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
