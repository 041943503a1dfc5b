package phonebook

import (
	"strings"

	"github.com/brianhealey/phonebook/internal/models"
)

// State is everything the phonebook UI renders. An empty message means no
// banner of that kind.
type State struct {
	Contacts       []models.Contact
	SearchText     string
	NameInput      string
	NumberInput    string
	ShowAll        bool
	SuccessMessage string
	ErrorMessage   string
}

// DeepCopy returns a copy of s that shares no memory with it.
func (s State) DeepCopy() State {
	cp := s
	cp.Contacts = make([]models.Contact, len(s.Contacts))
	copy(cp.Contacts, s.Contacts)
	return cp
}

// Visible returns the contacts the list should show for s.
func (s State) Visible() []models.Contact {
	return Visible(s.Contacts, s.SearchText, s.ShowAll)
}

// Visible filters contacts by search. With showAll set, or an empty search,
// every contact is returned. Matching is a case-insensitive substring test
// against the trimmed search text. Order is preserved.
func Visible(contacts []models.Contact, search string, showAll bool) []models.Contact {
	out := make([]models.Contact, 0, len(contacts))
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, c := range contacts {
		if showAll || strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}

func findByName(contacts []models.Contact, name string) (models.Contact, bool) {
	for _, c := range contacts {
		if c.SameName(name) {
			return c, true
		}
	}
	return models.Contact{}, false
}

func indexOf(contacts []models.Contact, id string) int {
	for i := range contacts {
		if contacts[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(contacts []models.Contact, i int) []models.Contact {
	out := make([]models.Contact, 0, len(contacts)-1)
	out = append(out, contacts[:i]...)
	return append(out, contacts[i+1:]...)
}

func insertAt(contacts []models.Contact, i int, c models.Contact) []models.Contact {
	if i > len(contacts) {
		i = len(contacts)
	}
	out := make([]models.Contact, 0, len(contacts)+1)
	out = append(out, contacts[:i]...)
	out = append(out, c)
	return append(out, contacts[i:]...)
}
