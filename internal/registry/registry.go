// Package registry implements the server side of the record store: the single
// source of truth for all phonebook contacts.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brianhealey/phonebook/internal/config"
	"github.com/brianhealey/phonebook/internal/events"
	"github.com/brianhealey/phonebook/internal/models"
)

// Registry owns the directory. All mutations go through apply(), which
// ensures atomicity, persistence and event publishing.
type Registry struct {
	mu    sync.RWMutex
	dir   models.Directory
	store config.Store
	bus   *events.Bus
	now   func() time.Time
}

// New creates a Registry and loads the directory from the store.
func New(store config.Store, bus *events.Bus) (*Registry, error) {
	dir, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Registry{
		dir:   *dir,
		store: store,
		bus:   bus,
		now:   time.Now,
	}, nil
}

// List returns all contacts in insertion order.
func (r *Registry) List() []models.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]models.Contact, len(r.dir.Contacts))
	copy(result, r.dir.Contacts)
	return result
}

// Get returns a single contact by ID.
func (r *Registry) Get(id string) (*models.Contact, *models.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := findContact(&r.dir, id)
	if c == nil {
		return nil, notFound(id)
	}
	cp := *c
	return &cp, nil
}

// Create validates req, assigns an ID and appends the new contact.
func (r *Registry) Create(_ context.Context, req models.ContactCreate) (models.Contact, *models.AppError) {
	name, number := normalize(req.Name), normalize(req.Number)
	if appErr := validate(name, number); appErr != nil {
		return models.Contact{}, appErr
	}

	var created models.Contact
	err := r.apply(func(d *models.Directory) (models.Change, error) {
		if findByName(d, name) != nil {
			return models.Change{}, models.ErrConflict("name must be unique")
		}
		created = models.Contact{ID: models.NewID(), Name: name, Number: number}
		d.Contacts = append(d.Contacts, created)
		return models.Change{Kind: models.ChangeCreated, Contact: created}, nil
	})
	if err != nil {
		return models.Contact{}, asAppError(err)
	}
	return created, nil
}

// Update replaces the name and number of the contact with the given ID.
// Renaming onto another contact's name is rejected.
func (r *Registry) Update(_ context.Context, id string, req models.ContactUpdate) (models.Contact, *models.AppError) {
	name, number := normalize(req.Name), normalize(req.Number)
	if appErr := validate(name, number); appErr != nil {
		return models.Contact{}, appErr
	}

	var updated models.Contact
	err := r.apply(func(d *models.Directory) (models.Change, error) {
		c := findContact(d, id)
		if c == nil {
			return models.Change{}, notFound(id)
		}
		if other := findByName(d, name); other != nil && other.ID != id {
			return models.Change{}, models.ErrConflict("name must be unique")
		}
		c.Name = name
		c.Number = number
		updated = *c
		return models.Change{Kind: models.ChangeUpdated, Contact: updated}, nil
	})
	if err != nil {
		return models.Contact{}, asAppError(err)
	}
	return updated, nil
}

// Delete removes the contact with the given ID.
func (r *Registry) Delete(_ context.Context, id string) *models.AppError {
	err := r.apply(func(d *models.Directory) (models.Change, error) {
		for i := range d.Contacts {
			if d.Contacts[i].ID == id {
				removed := d.Contacts[i]
				d.Contacts = append(d.Contacts[:i], d.Contacts[i+1:]...)
				return models.Change{Kind: models.ChangeDeleted, Contact: removed}, nil
			}
		}
		return models.Change{}, notFound(id)
	})
	if err != nil {
		return asAppError(err)
	}
	return nil
}

// Count returns the number of contacts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dir.Contacts)
}

// Now returns the registry clock's current time, used by GET /info.
func (r *Registry) Now() time.Time { return r.now() }

// apply is the core mutation primitive. It:
//  1. Acquires the write lock
//  2. Makes a deep copy of the current directory
//  3. Calls fn to modify the copy (fn may return an error to abort)
//  4. If fn succeeds: swaps the copy in, schedules save, publishes the change
func (r *Registry) apply(fn func(*models.Directory) (models.Change, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.dir.DeepCopy()
	change, err := fn(&next)
	if err != nil {
		return err
	}

	r.dir = next
	_ = r.store.Save(&r.dir) // debounced, async
	r.bus.Publish(change)
	return nil
}

func findContact(d *models.Directory, id string) *models.Contact {
	for i := range d.Contacts {
		if d.Contacts[i].ID == id {
			return &d.Contacts[i]
		}
	}
	return nil
}

func findByName(d *models.Directory, name string) *models.Contact {
	for i := range d.Contacts {
		if d.Contacts[i].SameName(name) {
			return &d.Contacts[i]
		}
	}
	return nil
}

func notFound(id string) *models.AppError {
	return models.ErrNotFound(fmt.Sprintf("contact %s not found", id))
}

func asAppError(err error) *models.AppError {
	if appErr, ok := err.(*models.AppError); ok {
		return appErr
	}
	return models.ErrInternal(err.Error())
}
