package testutil

import (
	"fmt"
	"io"

	"snapkeep/internal/snap"
)

// FaultyStore wraps an ArchiveStore so individual operations can be made to
// fail, for exercising the planner's recovery paths.
type FaultyStore struct {
	snap.ArchiveStore
	FailCreate bool
	FailWrite  bool // writers returned by Create fail on Write, commit on Close
	FailRename bool
	FailRemove map[string]bool // names whose removal fails
}

// NewFaultyStore wraps the given store.
func NewFaultyStore(inner snap.ArchiveStore) *FaultyStore {
	return &FaultyStore{ArchiveStore: inner, FailRemove: make(map[string]bool)}
}

func (s *FaultyStore) Create(name string) (io.WriteCloser, error) {
	if s.FailCreate {
		return nil, fmt.Errorf("injected create failure: %s", name)
	}
	w, err := s.ArchiveStore.Create(name)
	if err != nil {
		return nil, err
	}
	if s.FailWrite {
		return &brokenWriter{inner: w}, nil
	}
	return w, nil
}

// brokenWriter rejects every write but still commits whatever the inner
// writer buffered, mimicking a backend that publishes partial content.
type brokenWriter struct {
	inner io.WriteCloser
}

func (w *brokenWriter) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("injected write failure")
}

func (w *brokenWriter) Close() error { return w.inner.Close() }

func (s *FaultyStore) Rename(oldName, newName string) error {
	if s.FailRename {
		return fmt.Errorf("injected rename failure: %s", oldName)
	}
	return s.ArchiveStore.Rename(oldName, newName)
}

func (s *FaultyStore) Remove(name string) error {
	if s.FailRemove[name] {
		return fmt.Errorf("injected remove failure: %s", name)
	}
	return s.ArchiveStore.Remove(name)
}

var _ snap.ArchiveStore = (*FaultyStore)(nil)
