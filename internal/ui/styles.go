// Package ui is the terminal front end of the phonebook: a bubbletea model
// that renders controller state and forwards key events to it.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.Color("#2e7d32")
	colorError   = lipgloss.Color("#c62828")
	colorMuted   = lipgloss.Color("241")
	colorAccent  = lipgloss.Color("62")

	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorSuccess).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorError).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(8)
	nameColumn   = lipgloss.NewStyle().Width(28).MaxHeight(1)
	numberColumn = lipgloss.NewStyle().Width(18).MaxHeight(1)
	deleteStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	selectedStyle = lipgloss.NewStyle().
			Background(colorAccent).
			Foreground(lipgloss.Color("230"))

	dialogStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
)
