// Package mdtext recovers the position of selection text inside Markdown
// source. Selections are captured from rendered output, so their text may
// differ from the source by inline formatting syntax or collapsed
// whitespace; the search degrades through progressively fuzzier tiers and
// reports -1 when nothing matches, leaving the fallback decision to the
// caller. The package also exposes a code-region interval mask so callers
// can reject selections inside code, where comment markup cannot live.
package mdtext

import "strings"

// longSelectionPrefix bounds the last-resort prefix match for very long
// selections whose tail may have been edited.
const longSelectionPrefix = 50

// FindText returns the byte offset of target inside markdown, or -1.
// Search tiers: exact substring; formatting-aware (inline syntax stripped
// from both sides, offsets mapped back); whitespace-normalized, with a
// prefix sub-fallback for long selections.
func FindText(markdown, target string) int {
	start, _ := FindSpan(markdown, target)
	return start
}

// FindSpan is FindText with the matched end offset, for callers that need
// the full source span to wrap. Both offsets are -1 when no tier succeeds.
func FindSpan(markdown, target string) (int, int) {
	if target == "" {
		return -1, -1
	}

	// Tier 1: exact match.
	if i := strings.Index(markdown, target); i >= 0 {
		return i, i + len(target)
	}

	// Tier 2: formatting-aware. Strip inline syntax from both sides and
	// search the stripped document, preferring an occurrence whose source
	// span borders or contains the stripped marker kinds.
	cleanTarget := stripFormatting(target)
	cleanDoc, docMap := stripWithMap(markdown)
	if cleanTarget != "" {
		if s, e, ok := matchStripped(markdown, cleanDoc, docMap, cleanTarget); ok {
			return s, e
		}
	}

	// Tier 3: whitespace-normalized.
	normTarget, _ := normalizeWithMap(target)
	normDoc, normMap := normalizeWithMap(markdown)
	if normTarget != "" {
		if i := strings.Index(normDoc, normTarget); i >= 0 {
			return spanFromMap(normMap, i, len(normTarget))
		}
		// Long selections: the tail may have been edited away; anchor on
		// the prefix alone.
		if len(normTarget) > longSelectionPrefix {
			prefix := normTarget[:longSelectionPrefix]
			if i := strings.Index(normDoc, prefix); i >= 0 {
				return spanFromMap(normMap, i, len(prefix))
			}
		}
	}

	return -1, -1
}

// matchStripped scans occurrences of cleanTarget in the stripped document.
// The first occurrence bordered by (or spanning) formatting markers wins;
// failing that, the first occurrence of any kind.
func matchStripped(markdown, cleanDoc string, docMap []int, cleanTarget string) (int, int, bool) {
	first := -1
	for from := 0; ; {
		i := strings.Index(cleanDoc[from:], cleanTarget)
		if i < 0 {
			break
		}
		i += from
		s, e := spanFromMap(docMap, i, len(cleanTarget))
		if borderedByMarkers(markdown, s, e) {
			s, e = widenOverMarkers(markdown, s, e)
			return s, e, true
		}
		if first < 0 {
			first = i
		}
		from = i + 1
	}
	if first < 0 {
		return -1, -1, false
	}
	s, e := spanFromMap(docMap, first, len(cleanTarget))
	s, e = widenOverMarkers(markdown, s, e)
	return s, e, true
}

// widenOverMarkers grows a mapped span outwards over adjacent marker bytes,
// so a match against **some** text covers the whole emphasis run instead of
// starting inside it and splitting the syntax in two.
func widenOverMarkers(markdown string, s, e int) (int, int) {
	for s > 0 && isMarkerByte(markdown[s-1]) {
		s--
	}
	for e < len(markdown) && isMarkerByte(markdown[e]) {
		e++
	}
	return s, e
}

// borderedByMarkers reports whether the source span [s, e) touches inline
// formatting syntax: a marker byte immediately outside either boundary, or
// one interleaved inside the span (as in **bold** midway through a match).
func borderedByMarkers(markdown string, s, e int) bool {
	if s > 0 && isMarkerByte(markdown[s-1]) {
		return true
	}
	if e < len(markdown) && isMarkerByte(markdown[e]) {
		return true
	}
	return strings.ContainsAny(markdown[s:e], markerChars)
}

func isMarkerByte(c byte) bool {
	return strings.IndexByte(markerChars, c) >= 0
}

// spanFromMap maps a match at clean offset i with byte length n back to its
// source span using the per-byte origin map.
func spanFromMap(m []int, i, n int) (int, int) {
	return m[i], m[i+n-1] + 1
}
