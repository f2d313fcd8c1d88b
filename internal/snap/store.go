package snap

import "io"

// ArchiveStore provides an interface for archive storage backends.
// The store is a flat namespace of archive objects; names follow the
// managed filename grammar, but the store itself does not interpret them.
// Content streams through io.Reader/io.Writer to support large archives
// without loading them entirely into memory.
type ArchiveStore interface {
	// List returns the names of all objects in the store, in no
	// particular order. A missing or empty store lists nothing.
	List() ([]string, error)

	// Create opens a writer for a new object. Writing an existing name
	// replaces its content once the writer is closed. The object must not
	// become visible under its final name until Close returns.
	Create(name string) (io.WriteCloser, error)

	// Open returns a reader for an existing object.
	Open(name string) (io.ReadCloser, error)

	// Rename moves an object to a new name. On backends without a native
	// rename this is copy-then-delete; the old object is only removed
	// after the copy succeeds.
	Rename(oldName, newName string) error

	// Remove deletes an object.
	Remove(name string) error

	// ValidateSetup verifies that the store is accessible and properly
	// configured.
	ValidateSetup() error
}
