package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianhealey/phonebook/internal/models"
)

const (
	// DataFileName is the name of the directory file inside the data dir.
	DataFileName  = "persons.json"
	debounceDelay = 500 * time.Millisecond
)

// JSONStore keeps the directory in a single JSON file. Saves are debounced
// and written atomically via a temp file and rename.
type JSONStore struct {
	path string

	mu      sync.Mutex
	timer   *time.Timer
	pending *models.Directory

	// writeMu serialises disk writes between the timer and Flush.
	writeMu sync.Mutex
}

// NewJSONStore creates a new JSON store in the given data directory.
func NewJSONStore(dataDir string) *JSONStore {
	return &JSONStore{path: filepath.Join(dataDir, DataFileName)}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the directory from disk. A missing file yields an empty
// directory. Both {"persons": [...]} and a bare array of contacts are
// accepted. An unreadable file is moved aside to <name>.corrupt-<time> so
// the next save cannot overwrite it, and an empty directory is returned.
func (s *JSONStore) Load() (*models.Directory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		dir := models.EmptyDirectory()
		return &dir, nil
	}
	if err != nil {
		return nil, err
	}

	dir, err := decodeDirectory(data)
	if err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
		if rerr := os.Rename(s.path, aside); rerr != nil {
			slog.Error("config: could not move corrupt directory file aside", "path", s.path, "err", rerr)
		}
		slog.Warn("config: corrupt directory file, starting empty", "path", s.path, "moved_to", aside, "err", err)
		empty := models.EmptyDirectory()
		return &empty, nil
	}

	normalizeDirectory(&dir)
	return &dir, nil
}

func decodeDirectory(data []byte) (models.Directory, error) {
	var dir models.Directory
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &dir.Contacts)
		return dir, err
	}
	err := json.Unmarshal(trimmed, &dir)
	return dir, err
}

// Save schedules a write of dir. Calls within debounceDelay of each other
// collapse into one write of the latest directory.
func (s *JSONStore) Save(dir *models.Directory) error {
	cp := dir.DeepCopy()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &cp
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		if err := s.Flush(); err != nil {
			slog.Error("config: failed to write directory", "path", s.path, "err", err)
		}
	})
	return nil
}

// Flush writes any pending directory now.
func (s *JSONStore) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	d := s.pending
	s.pending = nil
	s.mu.Unlock()

	if d == nil {
		return nil
	}
	if err := s.writeAtomic(d); err != nil {
		// Keep it for the next attempt unless something newer arrived.
		s.mu.Lock()
		if s.pending == nil {
			s.pending = d
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *JSONStore) writeAtomic(dir *models.Directory) error {
	data, err := json.MarshalIndent(dir, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), DataFileName+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ Store = (*JSONStore)(nil)
