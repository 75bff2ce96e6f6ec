// Package apperr defines the sentinel errors shared across Marginalia.
//
// Errors raised while parsing existing document content are never surfaced
// from the core packages; untrusted documents degrade to empty or skipped
// results instead. The sentinels below cover operations on fresh input,
// where a violation indicates a caller bug and must fail loudly.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidRange reports selection bounds outside the document.
	ErrInvalidRange = errors.New("invalid range")
	// ErrDuplicateAnchor reports an anchor id already present in the document.
	ErrDuplicateAnchor = errors.New("duplicate anchor")
	// ErrAnchorNotFound reports a removal target with no marker in the document.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrUnsupportedSelection reports a selection that cannot carry comment
	// markup, such as one inside a code block.
	ErrUnsupportedSelection = errors.New("unsupported selection")
)
