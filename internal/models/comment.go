// Package models defines the domain types for Marginalia.
package models

import "time"

// Comment is a reviewer comment persisted inside a Markdown document,
// either as a frontmatter record, a comment directive, or both.
// The id is caller-generated and treated as an opaque token.
type Comment struct {
	ID           string `json:"id" yaml:"id"`
	Author       string `json:"author,omitempty" yaml:"author,omitempty"`
	Timestamp    string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Content      string `json:"content" yaml:"content"`
	AnchoredText string `json:"anchored_text,omitempty" yaml:"anchored_text,omitempty"`
}

// AnchoredComment is a Comment joined with its resolved span in the current
// document text. Positions are byte offsets. It is a derived view rebuilt on
// every parse and never persisted.
type AnchoredComment struct {
	Comment
	StartPosition int `json:"start_position"`
	EndPosition   int `json:"end_position"`
}

// Selection is a user text selection against a document snapshot.
// Text carries the selected text as the user saw it, which may differ from
// the Markdown source when inline formatting was stripped during capture.
type Selection struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// DocumentInfo is a lightweight representation returned by list operations.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
