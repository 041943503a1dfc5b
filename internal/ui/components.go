package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/brianhealey/phonebook/internal/models"
)

// SuccessNotification renders msg in a success banner, or nothing when msg is empty.
func SuccessNotification(msg string) string {
	if msg == "" {
		return ""
	}
	return successStyle.Render(msg)
}

// ErrorNotification renders msg in an error banner, or nothing when msg is empty.
func ErrorNotification(msg string) string {
	if msg == "" {
		return ""
	}
	return errorStyle.Render(msg)
}

// Filter renders the search input.
func Filter(input textinput.Model) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("filter"), input.View())
}

// ContactForm renders the name and number inputs.
func ContactForm(name, number textinput.Model) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("name"), name.View()),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("number"), number.View()),
	)
}

// ContactList renders one row per contact. The row whose ID is selectedID is
// highlighted; its delete action is the one the model triggers.
func ContactList(contacts []models.Contact, selectedID string) string {
	if len(contacts) == 0 {
		return deleteStyle.Render("no contacts")
	}
	rows := make([]string, 0, len(contacts))
	for _, c := range contacts {
		row := nameColumn.Render(c.Name) + numberColumn.Render(c.Number) + deleteStyle.Render("[delete]")
		if c.ID == selectedID {
			row = selectedStyle.Render("> " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func confirmDialog(question string) string {
	return dialogStyle.Render(question + "\n\n" + deleteStyle.Render("[y] yes   [n] no"))
}
