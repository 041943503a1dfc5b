// Package auth implements optional API-key authentication for the phonebook
// server. Keys live in keys.json inside the data directory, indexed by owner:
//
//	{"alice": {"access_key": "...", "note": "laptop"}, "bob": {"access_key": "...", "disabled": true}}
//
// The file is watched and reloaded shortly after it changes. While it holds
// no access key at all the API is open.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeysFileName is the name of the key file inside the data directory.
const KeysFileName = "keys.json"

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Key is one entry of keys.json. A disabled key still counts towards
// securing the API but is never accepted.
type Key struct {
	AccessKey string `json:"access_key"`
	Note      string `json:"note,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// Service verifies API keys.
type Service struct {
	mu      sync.RWMutex
	path    string
	keys    map[string]Key
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// NewService loads keys.json from dataDir and starts watching it.
// A missing file means open mode; a malformed one is an error.
func NewService(dataDir string) (*Service, error) {
	s := &Service{
		path: filepath.Join(dataDir, KeysFileName),
		keys: map[string]Key{},
		done: make(chan struct{}),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher, keys will not reload", "err", err)
		return s, nil
	}
	// Watch the directory: editors replace the file rather than write it.
	if err := watcher.Add(dataDir); err != nil {
		slog.Warn("auth: could not watch data dir, keys will not reload", "dir", dataDir, "err", err)
		watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watchLoop()
	return s, nil
}

// Reload re-reads the keys file. A missing file clears all keys. On a parse
// error the previous keys stay in effect.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = []byte("{}")
	case err != nil:
		return fmt.Errorf("read %s: %w", KeysFileName, err)
	}

	keys := map[string]Key{}
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse %s: %w", KeysFileName, err)
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()
	slog.Debug("auth: keys loaded", "owners", len(keys), "open", s.IsOpenMode())
	return nil
}

// IsOpenMode reports whether no access key is configured, in which case
// every request is allowed.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.AccessKey != "" {
			return false
		}
	}
	return true
}

// Authenticate returns the owner of key if it is a configured, enabled key.
// Every configured key is compared in constant time.
func (s *Service) Authenticate(key string) (owner string, ok bool) {
	if key == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, k := range s.keys {
		if k.AccessKey == "" {
			continue
		}
		match := subtle.ConstantTimeCompare([]byte(key), []byte(k.AccessKey)) == 1
		if match && !k.Disabled {
			owner, ok = name, true
		}
	}
	return owner, ok
}

// Close stops watching the keys file.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.watcher != nil {
			s.watcher.Close()
		}
	})
}

func (s *Service) watchLoop() {
	var reload *time.Timer
	defer func() {
		if reload != nil {
			reload.Stop()
		}
	}()

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if reload != nil {
				reload.Stop()
			}
			reload = time.AfterFunc(reloadDelay, func() {
				if err := s.Reload(); err != nil {
					slog.Warn("auth: keeping previous keys", "err", err)
				}
			})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}
