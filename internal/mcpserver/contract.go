package mcpserver

// CommentFormatContract describes the comment markup that annotated
// documents carry. LLM consumers should follow it when writing markup by
// hand instead of using the add_comment tool.
const CommentFormatContract = `# Marginalia Comment Format Contract

Comments live in two places inside the annotated Markdown file: a metadata
record in YAML frontmatter, and an anchor in the document body marking the
commented span. Both are plain text; the file stays valid Markdown.

## Frontmatter record

` + "```" + `markdown
---
comments:
    - id: 3f2a…                    # REQUIRED – unique within the document
      author: maya                 # OPTIONAL
      timestamp: 2026-03-01T12:00:00Z   # OPTIONAL – RFC 3339
      content: needs more detail   # the comment text
      anchored_text: a draft       # snapshot of the commented span
---
` + "```" + `

The ` + "`" + `---` + "`" + ` fences must be the first thing in the file. A record whose
anchor disappears from the body is an orphan: it is kept in frontmatter and
omitted from resolved comment lists until its anchor is restored.

## Body anchors

Two interchangeable anchor schemes are read; the service writes one of them
per its configuration.

**Directive scheme** (inline, single-line spans):

` + "```" + `markdown
This is :comment[a draft]{id="3f2a…" text="needs more detail"} of the essay.
` + "```" + `

Selections spanning multiple lines use the container form, fenced with at
least three colons at the start of a line:

` + "```" + `markdown
:::comment{id="3f2a…" text="needs more detail"}
First paragraph.

Second paragraph.
:::
` + "```" + `

**Anchor scheme** (HTML comments, invisible in rendered output):

` + "```" + `markdown
This is <!-- anchor-start:3f2a… -->a draft<!-- anchor-end:3f2a… --> of the essay.
` + "```" + `

## Rules

1. **Ids must be unique** within a document, across both schemes and the
   frontmatter.
2. **The anchored span is plain prose.** Selections inside code blocks or
   inline code spans are rejected.
3. **Directive text attributes** escape structural characters; do not write
   raw ` + "`" + `[` + "`" + `, ` + "`" + `]` + "`" + `, ` + "`" + `{` + "`" + `, ` + "`" + `}` + "`" + ` or ` + "`" + `"` + "`" + ` inside them.
4. **Do not edit spans by hand** when an id is anchored: keep the markers
   balanced or the comment degrades to an orphan.
5. **Encoding** is UTF-8; offsets reported by the API are byte positions.
`
