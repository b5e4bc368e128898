// Package storage defines the vault file-system abstraction.
package storage

import "github.com/mvarkas/memex/internal/models"

// Provider is the read-only interface over one vault's files.
type Provider interface {
	// List returns path and modification time for every .md file under
	// the vault root. No file contents are read.
	List() ([]models.NoteMeta, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
