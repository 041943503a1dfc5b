// Package config handles loading and saving the phonebook directory and
// reading runtime settings from the environment.
package config

import "github.com/brianhealey/phonebook/internal/models"

// Store is the interface for persisting the directory.
type Store interface {
	// Load loads the current directory. Returns an empty directory if no file exists.
	Load() (*models.Directory, error)

	// Save persists the directory. Implementations may debounce rapid saves.
	Save(dir *models.Directory) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending directory.
	Flush() error
}
