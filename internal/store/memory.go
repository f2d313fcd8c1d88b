package store

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"snapkeep/internal/snap"
)

// MemoryStore is an in-memory implementation of the ArchiveStore interface,
// useful for tests. It is safe for concurrent use.
type MemoryStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores an object directly. Test convenience.
func (m *MemoryStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
}

// Get returns an object's bytes and whether it exists. Test convenience.
func (m *MemoryStore) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	return data, ok
}

// List returns the names of all objects.
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return names, nil
}

// Create opens a writer whose content is stored under name on Close.
func (m *MemoryStore) Create(name string) (io.WriteCloser, error) {
	return &memoryObject{store: m, name: name}, nil
}

// Open returns a reader for an existing object.
func (m *MemoryStore) Open(name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("archive not found: %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Rename moves an object to a new name.
func (m *MemoryStore) Rename(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[oldName]
	if !ok {
		return fmt.Errorf("archive not found: %s", oldName)
	}
	m.objects[newName] = data
	delete(m.objects, oldName)
	return nil
}

// Remove deletes an object.
func (m *MemoryStore) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("archive not found: %s", name)
	}
	delete(m.objects, name)
	return nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup() error { return nil }

// memoryObject buffers writes and commits on Close.
type memoryObject struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
}

func (o *memoryObject) Write(p []byte) (int, error) { return o.buf.Write(p) }

func (o *memoryObject) Close() error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	o.store.objects[o.name] = append([]byte(nil), o.buf.Bytes()...)
	return nil
}

// Compile-time check that MemoryStore implements snap.ArchiveStore
var _ snap.ArchiveStore = (*MemoryStore)(nil)
