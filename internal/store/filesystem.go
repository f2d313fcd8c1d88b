package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"snapkeep/internal/snap"
)

// FileSystemStore keeps archives as files in a single flat directory.
// New objects are written to a temp file in the same directory and renamed
// into place on Close, so a partially written archive never becomes visible
// under its final name.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a filesystem store rooted at the given
// directory, creating it if absent.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// List returns the names of regular files directly under the store root.
// Subdirectories are not created by this engine and are skipped.
func (s *FileSystemStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Create opens a writer for a new object. The content becomes visible under
// name only when Close succeeds; an existing object of the same name is
// replaced at that point.
func (s *FileSystemStore) Create(name string) (io.WriteCloser, error) {
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &atomicFile{f: tmp, tmpPath: tmp.Name(), destPath: filepath.Join(s.root, name)}, nil
}

// Open returns a reader for an existing object.
func (s *FileSystemStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found: %s", name)
		}
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return f, nil
}

// Rename moves an object to a new name. Same-directory renames are cheap
// and near-atomic on any sane filesystem.
func (s *FileSystemStore) Rename(oldName, newName string) error {
	if err := os.Rename(filepath.Join(s.root, oldName), filepath.Join(s.root, newName)); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// Remove deletes an object.
func (s *FileSystemStore) Remove(name string) error {
	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// ValidateSetup verifies that the store root is an accessible directory.
func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store root is not a directory: %s", s.root)
	}
	return nil
}

// atomicFile commits a temp file to its destination on Close.
type atomicFile struct {
	f        *os.File
	tmpPath  string
	destPath string
}

func (a *atomicFile) Write(p []byte) (int, error) { return a.f.Write(p) }

func (a *atomicFile) Close() error {
	if err := a.f.Close(); err != nil {
		os.Remove(a.tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(a.tmpPath, a.destPath); err != nil {
		os.Remove(a.tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Compile-time check that FileSystemStore implements snap.ArchiveStore
var _ snap.ArchiveStore = (*FileSystemStore)(nil)
