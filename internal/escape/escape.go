// Package escape provides reversible character-level transforms so comment
// text can be embedded in a single-line directive attribute without breaking
// the directive grammar or being re-interpreted by a Markdown renderer.
//
// Reserved characters are swapped for runes from the Unicode private-use
// area (U+E000 run). Private-use codepoints do not occur in legitimate
// prose, so the transform cannot collide with user text the way ASCII word
// tokens (e.g. a literal "__NEWLINE__") could.
package escape

import "strings"

// Placeholder runes. Each reserved character maps to exactly one rune and
// the mapping never nests: no placeholder is itself a reserved character.
const (
	phBackslash   = ''
	phDoubleQuote = ''
	phSingleQuote = ''
	phNewline     = ''
	phCarriage    = ''
	phVerticalTab = ''
	phAsterisk    = ''
	phOpenBrack   = ''
	phCloseBrack  = ''
	phHash        = ''
	phTilde       = ''
	phBacktick    = ''
	// phUnderscore protects underscores inside {{...}} template spans from
	// italics interpretation. A single rune, not a Markdown or regexp
	// metacharacter, so it survives both renderers and pattern matching.
	phUnderscore = ''
	phOpenBrace  = ''
	phCloseBrace = ''
)

var basePairs = []struct {
	raw rune
	ph  rune
}{
	{'\\', phBackslash},
	{'"', phDoubleQuote},
	{'\'', phSingleQuote},
	{'\n', phNewline},
	{'\r', phCarriage},
	{'\v', phVerticalTab},
}

var structuralPairs = []struct {
	raw rune
	ph  rune
}{
	{'*', phAsterisk},
	{'[', phOpenBrack},
	{']', phCloseBrack},
	{'#', phHash},
	{'~', phTilde},
	{'`', phBacktick},
	{'{', phOpenBrace},
	{'}', phCloseBrace},
}

// Escape replaces the quoting-relevant reserved characters (backslash,
// quotes, newline, carriage return, vertical tab) with placeholder runes.
// Text that already contains placeholders is returned unchanged, so
// re-escaping escaped content never double-escapes.
func Escape(text string) string {
	if Escaped(text) {
		return text
	}
	return replacePairs(text, basePairs, false)
}

// EscapeStructural applies Escape and additionally neutralizes the
// Markdown-significant characters * [ ] # ~ ` { }. Braces are placeholdered
// because the directive attribute block is brace-delimited: a raw } in the
// payload would terminate the block early. Underscores inside {{...}}
// template spans are protected before the braces are swapped. Used for
// directive attribute payloads, where stray syntax would corrupt the
// rendered document.
func EscapeStructural(text string) string {
	if Escaped(text) {
		return text
	}
	out := ProtectTemplates(text)
	out = replacePairs(out, basePairs, false)
	return replacePairs(out, structuralPairs, false)
}

// Unescape reverses Escape, EscapeStructural, and ProtectTemplates.
// Unescape(Escape(s)) == s for any s free of placeholder runes.
func Unescape(text string) string {
	out := replacePairs(text, basePairs, true)
	out = replacePairs(out, structuralPairs, true)
	return strings.ReplaceAll(out, string(phUnderscore), "_")
}

// Escaped reports whether text already carries any placeholder rune.
func Escaped(text string) bool {
	for _, r := range text {
		if r >= phBackslash && r <= phCloseBrace {
			return true
		}
	}
	return false
}

// ProtectTemplates replaces underscores inside {{...}} spans with a
// placeholder so a Markdown renderer cannot read template variable names
// like {{first_name}} as italics. Text outside template spans is untouched.
func ProtectTemplates(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], "{{")
		if open < 0 {
			b.WriteString(text[i:])
			break
		}
		open += i
		end := strings.Index(text[open+2:], "}}")
		if end < 0 {
			b.WriteString(text[i:])
			break
		}
		end += open + 2
		b.WriteString(text[i:open])
		span := text[open : end+2]
		b.WriteString(strings.ReplaceAll(span, "_", string(phUnderscore)))
		i = end + 2
	}
	return b.String()
}

// RestoreTemplates reverses ProtectTemplates without touching the other
// placeholder runes, for display paths that must keep content escaped.
func RestoreTemplates(text string) string {
	return strings.ReplaceAll(text, string(phUnderscore), "_")
}

func replacePairs(text string, pairs []struct {
	raw rune
	ph  rune
}, reverse bool) string {
	oldnew := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		if reverse {
			oldnew = append(oldnew, string(p.ph), string(p.raw))
		} else {
			oldnew = append(oldnew, string(p.raw), string(p.ph))
		}
	}
	return strings.NewReplacer(oldnew...).Replace(text)
}
