package mdtext

import "strings"

// Inline formatting marker bytes stripped during formatting-aware matching.
const markerChars = "*_~`"

// stripWithMap removes inline emphasis, strikethrough, and code-span markers
// and rewrites [text](url) links to their visible text. It returns the
// stripped string and, per output byte, the byte offset of its origin in s,
// so matches against the stripped form can be mapped back to source offsets.
func stripWithMap(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	idx := make([]int, 0, len(s))

	emit := func(from, to int) {
		for i := from; i < to; i++ {
			if strings.IndexByte(markerChars, s[i]) >= 0 {
				continue
			}
			b.WriteByte(s[i])
			idx = append(idx, i)
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]
		if c == '[' {
			// [text](url) collapses to text; a bare bracket stays literal.
			if textEnd, urlEnd, ok := linkBounds(s, i); ok {
				emit(i+1, textEnd)
				i = urlEnd + 1
				continue
			}
			b.WriteByte(c)
			idx = append(idx, i)
			i++
			continue
		}
		if strings.IndexByte(markerChars, c) >= 0 {
			i++
			continue
		}
		b.WriteByte(c)
		idx = append(idx, i)
		i++
	}
	return b.String(), idx
}

// stripFormatting is stripWithMap without the offset map.
func stripFormatting(s string) string {
	out, _ := stripWithMap(s)
	return out
}

// linkBounds matches [text](url) starting at the open bracket, returning the
// offsets of the closing bracket and closing parenthesis.
func linkBounds(s string, open int) (textEnd, urlEnd int, ok bool) {
	rel := strings.IndexByte(s[open:], ']')
	if rel < 0 {
		return 0, 0, false
	}
	textEnd = open + rel
	if textEnd+1 >= len(s) || s[textEnd+1] != '(' {
		return 0, 0, false
	}
	rel = strings.IndexByte(s[textEnd+1:], ')')
	if rel < 0 {
		return 0, 0, false
	}
	return textEnd, textEnd + 1 + rel, true
}

// normalizeWithMap collapses every whitespace run to a single space, again
// with a per-byte origin map. Leading and trailing runs are dropped.
func normalizeWithMap(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	idx := make([]int, 0, len(s))

	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f' {
			inRun = true
			continue
		}
		if inRun && b.Len() > 0 {
			b.WriteByte(' ')
			idx = append(idx, i-1)
		}
		inRun = false
		b.WriteByte(c)
		idx = append(idx, i)
	}
	return b.String(), idx
}
