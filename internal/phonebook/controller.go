// Package phonebook implements the phonebook controller: the single owner of
// UI state. It talks to a RecordStore, asks a Prompter before destructive
// changes and shows self-clearing banners.
package phonebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brianhealey/phonebook/internal/models"
	"github.com/brianhealey/phonebook/internal/recordstore"
)

// DefaultBannerDelay is how long a banner stays up.
const DefaultBannerDelay = 5 * time.Second

// RecordStore is the remote collection of contacts.
type RecordStore interface {
	List(ctx context.Context) ([]models.Contact, error)
	Create(ctx context.Context, req models.ContactCreate) (models.Contact, error)
	Update(ctx context.Context, id string, contact models.Contact) (models.Contact, error)
	Delete(ctx context.Context, id string) error
}

// Prompter asks the user a yes/no question and blocks until answered.
type Prompter interface {
	Confirm(ctx context.Context, message string) bool
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, message string) bool

func (f PrompterFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// Option configures a Controller.
type Option func(*Controller)

// WithBannerDelay sets how long banners stay visible.
func WithBannerDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.bannerDelay = d
		}
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithOnChange registers fn to be called with a snapshot after every state
// change. fn runs outside the controller lock and may call back into it.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns the phonebook State. Every mutation goes through one of its
// methods. Network calls run in the background; use Wait to join them.
type Controller struct {
	mu    sync.Mutex
	state State

	store    RecordStore
	prompt   Prompter
	log      *slog.Logger
	onChange func(State)

	bannerDelay time.Duration
	bannerSeq   uint64
	bannerTimer *time.Timer
	closed      bool

	wg sync.WaitGroup
}

// New returns a controller with empty state. Call Initialize to load contacts.
func New(store RecordStore, prompt Prompter, opts ...Option) *Controller {
	c := &Controller{
		state:       State{Contacts: []models.Contact{}},
		store:       store,
		prompt:      prompt,
		log:         slog.New(slog.DiscardHandler),
		bannerDelay: DefaultBannerDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DeepCopy()
}

// VisibleContacts returns the contacts matching the current search.
func (c *Controller) VisibleContacts() []models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Visible()
}

// Initialize replaces the contacts with the store's list. On failure the
// contacts are left as they are, an error banner is shown and the error is
// returned. There is no retry.
func (c *Controller) Initialize(ctx context.Context) error {
	contacts, err := c.store.List(ctx)
	if err != nil {
		c.log.Warn("phonebook: initial load failed", "err", err)
		c.update(func(s *State) { c.showErrorLocked(s, recordstore.Message(err)) })
		return fmt.Errorf("load contacts: %w", err)
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.update(func(s *State) { s.Contacts = contacts })
	return nil
}

// SetNameInput binds the name field.
func (c *Controller) SetNameInput(v string) {
	c.update(func(s *State) { s.NameInput = v })
}

// SetNumberInput binds the number field.
func (c *Controller) SetNumberInput(v string) {
	c.update(func(s *State) { s.NumberInput = v })
}

// UpdateSearch sets the search text. Entering text turns show-all off;
// clearing it leaves show-all alone.
func (c *Controller) UpdateSearch(text string) {
	c.update(func(s *State) {
		s.SearchText = text
		if text != "" {
			s.ShowAll = false
		}
	})
}

// ToggleShowAll flips the show-all switch.
func (c *Controller) ToggleShowAll() {
	c.update(func(s *State) { s.ShowAll = !s.ShowAll })
}

// Submit submits the bound name and number inputs.
func (c *Controller) Submit(ctx context.Context) {
	name, number := c.TakeInputs()
	c.SubmitEntry(ctx, name, number)
}

// TakeInputs returns the bound name and number and clears them in one step.
func (c *Controller) TakeInputs() (name, number string) {
	c.update(func(s *State) {
		name, number = s.NameInput, s.NumberInput
		s.NameInput = ""
		s.NumberInput = ""
	})
	return name, number
}

// SubmitContact adds a contact, or offers to replace the number when a
// contact with the same name (ignoring case) already exists. The inputs are
// cleared before it returns, whatever the outcome. The create call itself
// runs in the background.
func (c *Controller) SubmitContact(ctx context.Context, name, number string) {
	c.update(func(s *State) {
		s.NameInput = ""
		s.NumberInput = ""
	})
	c.SubmitEntry(ctx, name, number)
}

// SubmitEntry is SubmitContact for values already taken with TakeInputs. It
// leaves the inputs alone, so text typed since then is kept.
func (c *Controller) SubmitEntry(ctx context.Context, name, number string) {
	name = strings.TrimSpace(name)
	number = strings.TrimSpace(number)

	c.mu.Lock()
	_, exists := findByName(c.state.Contacts, name)
	c.mu.Unlock()
	if exists {
		c.ReplaceNumber(ctx, name, number)
		return
	}
	c.create(ctx, name, number)
}

func (c *Controller) create(ctx context.Context, name, number string) {
	c.goAsync(func() {
		created, err := c.store.Create(ctx, models.ContactCreate{Name: name, Number: number})
		if err != nil {
			c.log.Info("phonebook: create failed", "name", name, "err", err)
			c.update(func(s *State) { c.showErrorLocked(s, recordstore.Message(err)) })
			return
		}
		c.update(func(s *State) {
			s.Contacts = append(s.Contacts, created)
			c.showSuccessLocked(s, "Added "+created.Name)
		})
	})
}

// ReplaceNumber asks whether to overwrite the number of the existing contact
// called name and, if so, updates it in the background. A successful update
// replaces the contact in place. A failed one removes it from the list, since
// the record is most likely gone on the server. If no contact is called name
// by the time the user answers, the contact is created instead.
func (c *Controller) ReplaceNumber(ctx context.Context, name, number string) {
	msg := name + " is already added to phonebook, replace the old number with a new one?"
	if !c.prompt.Confirm(ctx, msg) {
		return
	}

	c.mu.Lock()
	existing, ok := findByName(c.state.Contacts, name)
	c.mu.Unlock()
	if !ok {
		c.create(ctx, name, number)
		return
	}

	changed := existing
	changed.Number = number
	c.goAsync(func() {
		updated, err := c.store.Update(ctx, existing.ID, changed)
		if err != nil {
			c.log.Info("phonebook: update failed", "id", existing.ID, "err", err)
			c.update(func(s *State) {
				if i := indexOf(s.Contacts, existing.ID); i >= 0 {
					s.Contacts = removeAt(s.Contacts, i)
				}
				c.showErrorLocked(s, recordstore.Message(err))
			})
			return
		}
		c.update(func(s *State) {
			if i := indexOf(s.Contacts, existing.ID); i >= 0 {
				s.Contacts[i] = updated
			}
			c.showSuccessLocked(s, "Number changed for "+updated.Name)
		})
	})
}

// RemoveContact asks for confirmation, then removes the contact from the list
// at once and deletes it from the store in the background. If the delete
// fails the contact is put back where it was. Unknown IDs are ignored.
func (c *Controller) RemoveContact(ctx context.Context, id string) {
	c.mu.Lock()
	i := indexOf(c.state.Contacts, id)
	var target models.Contact
	if i >= 0 {
		target = c.state.Contacts[i]
	}
	c.mu.Unlock()
	if i < 0 {
		return
	}

	if !c.prompt.Confirm(ctx, "Delete "+target.Name+" ?") {
		return
	}

	// Optimistic: the row disappears before the server answers.
	var index int
	c.update(func(s *State) {
		s.NameInput = ""
		s.NumberInput = ""
		index = indexOf(s.Contacts, id)
		if index >= 0 {
			s.Contacts = removeAt(s.Contacts, index)
		}
	})
	if index < 0 {
		return
	}

	c.goAsync(func() {
		if err := c.store.Delete(ctx, id); err != nil {
			c.log.Info("phonebook: delete failed, restoring", "id", id, "err", err)
			c.update(func(s *State) {
				if indexOf(s.Contacts, id) < 0 {
					s.Contacts = insertAt(s.Contacts, index, target)
				}
				c.showErrorLocked(s, recordstore.Message(err))
			})
			return
		}
		c.update(func(s *State) { c.showSuccessLocked(s, "Deleted "+target.Name) })
	})
}

// Wait blocks until every background store call has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops the banner timer. Banners shown afterwards never clear.
// It does not wait for in-flight calls.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
}

func (c *Controller) goAsync(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// update applies fn under the lock, then notifies the observer.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.state.DeepCopy()
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(snap)
	}
}

func (c *Controller) showSuccessLocked(s *State, msg string) {
	s.SuccessMessage = msg
	s.ErrorMessage = ""
	c.armBannerLocked()
}

func (c *Controller) showErrorLocked(s *State, msg string) {
	s.ErrorMessage = msg
	s.SuccessMessage = ""
	c.armBannerLocked()
}

// armBannerLocked replaces any pending clear with a fresh one. A timer that
// already fired for an older banner sees a stale sequence number and does
// nothing.
func (c *Controller) armBannerLocked() {
	c.bannerSeq++
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	if c.closed {
		return
	}
	seq := c.bannerSeq
	c.bannerTimer = time.AfterFunc(c.bannerDelay, func() { c.clearBanner(seq) })
}

func (c *Controller) clearBanner(seq uint64) {
	c.mu.Lock()
	if seq != c.bannerSeq {
		c.mu.Unlock()
		return
	}
	c.bannerTimer = nil
	c.state.SuccessMessage = ""
	c.state.ErrorMessage = ""
	snap := c.state.DeepCopy()
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(snap)
	}
}
