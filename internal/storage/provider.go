// Package storage defines the vault file-system abstraction.
package storage

import "github.com/marginalia-dev/marginalia/internal/models"

// Provider is the interface for vault document operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// List returns metadata for every markdown document under dir.
	List(dir string) ([]models.DocumentInfo, error)
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the document at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
