package config

import (
	"log/slog"
	"strings"

	"github.com/brianhealey/phonebook/internal/models"
)

// normalizeDirectory repairs hand-edited or older directory files: fields are
// trimmed, records without an ID get one, and duplicate IDs keep the first record.
func normalizeDirectory(dir *models.Directory) {
	if dir.Contacts == nil {
		dir.Contacts = []models.Contact{}
		return
	}

	seen := make(map[string]bool, len(dir.Contacts))
	kept := dir.Contacts[:0]
	for _, c := range dir.Contacts {
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		c.Number = strings.TrimSpace(c.Number)

		if c.ID == "" {
			c.ID = models.NewID()
			slog.Warn("config: contact without id, assigning one", "name", c.Name, "id", c.ID)
		}
		if seen[c.ID] {
			slog.Warn("config: duplicate contact id, dropping", "id", c.ID, "name", c.Name)
			continue
		}
		seen[c.ID] = true
		kept = append(kept, c)
	}
	dir.Contacts = kept
}
