package config

import (
	"sync"

	"github.com/brianhealey/phonebook/internal/models"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu  sync.Mutex
	dir *models.Directory
}

// NewMemStore returns a new in-memory store. Initial contacts, if any, are
// what the first Load returns.
func NewMemStore(initial ...models.Contact) *MemStore {
	m := &MemStore{}
	if len(initial) > 0 {
		dir := models.Directory{Contacts: append([]models.Contact(nil), initial...)}
		m.dir = &dir
	}
	return m
}

// Load returns a copy of the stored directory, or an empty one if none has been saved yet.
func (m *MemStore) Load() (*models.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dir == nil {
		dir := models.EmptyDirectory()
		return &dir, nil
	}
	cp := m.dir.DeepCopy()
	return &cp, nil
}

// Save stores a deep copy of the given directory in memory.
func (m *MemStore) Save(dir *models.Directory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := dir.DeepCopy()
	m.dir = &cp
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

var _ Store = (*MemStore)(nil)
