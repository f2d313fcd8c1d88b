package snap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// stagingArea is a process-exclusive scratch directory holding copies of
// source files for one run. It mirrors the source root's relative structure.
// The area is owned by the run that created it and must be released on every
// exit path.
type stagingArea struct {
	root string
}

// newStagingArea creates a fresh staging directory under parent.
// If parent is empty, the OS temp directory is used.
func newStagingArea(parent string) (*stagingArea, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("creating staging parent: %w", err)
		}
	}
	root, err := os.MkdirTemp(parent, "snapkeep-staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &stagingArea{root: root}, nil
}

// Stage copies one source file into the staging area at its relative path,
// creating intermediate directories as needed. The copy preserves the source
// modification time where the platform allows.
func (sa *stagingArea) Stage(f SourceFile) error {
	dest := filepath.Join(sa.root, f.RelPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating staging subdirectory: %w", err)
	}

	src, err := os.Open(f.AbsPath)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating staged file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", f.RelPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing staged file: %w", err)
	}

	// Best effort; archive entries carry their own mtime anyway.
	os.Chtimes(dest, f.ModTime, f.ModTime)

	return nil
}

// Root returns the staging directory path.
func (sa *stagingArea) Root() string { return sa.root }

// Release removes the staging directory and everything in it.
// Safe to call more than once.
func (sa *stagingArea) Release() error {
	return os.RemoveAll(sa.root)
}
