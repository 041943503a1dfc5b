package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brianhealey/phonebook/internal/models"
	"github.com/brianhealey/phonebook/internal/phonebook"
)

// Controller is what the model drives. *phonebook.Controller implements it.
type Controller interface {
	State() phonebook.State
	Initialize(ctx context.Context) error
	UpdateSearch(text string)
	ToggleShowAll()
	SetNameInput(v string)
	SetNumberInput(v string)
	TakeInputs() (name, number string)
	SubmitEntry(ctx context.Context, name, number string)
	RemoveContact(ctx context.Context, id string)
}

type focus int

const (
	focusFilter focus = iota
	focusName
	focusNumber
	focusList
	focusCount
)

// Model is the bubbletea model of the phonebook screen.
type Model struct {
	ctx  context.Context
	ctrl Controller

	state    phonebook.State
	focus    focus
	filter   textinput.Model
	name     textinput.Model
	number   textinput.Model
	selected string

	// Pending questions, oldest first. Only the first is shown.
	confirms []confirmMsg
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 30
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorMuted)
	return ti
}

// New returns a model bound to ctrl. ctx bounds every store call the model starts.
func New(ctx context.Context, ctrl Controller) Model {
	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		state:  ctrl.State(),
		filter: newInput("search by name", 64),
		name:   newInput("Arto Hellas", 64),
		number: newInput("040-1234567", 32),
	}
	m.setFocus(focusName)
	return m
}

// Init loads the contacts.
func (m Model) Init() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_ = ctrl.Initialize(ctx)
		return stateChangedMsg{}
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.refresh()
		return m, nil

	case confirmMsg:
		m.confirms = append(m.confirms, msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.declineAll()
			return m, tea.Quit
		}
		if len(m.confirms) > 0 {
			return m.updateConfirm(msg), nil
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) Model {
	var answer bool
	switch {
	case key.Matches(msg, keys.Yes):
		answer = true
	case key.Matches(msg, keys.No):
		answer = false
	default:
		return m
	}
	m.confirms[0].reply <- answer
	m.confirms = m.confirms[1:]
	return m
}

func (m *Model) declineAll() {
	for _, c := range m.confirms {
		c.reply <- false
	}
	m.confirms = nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Next):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, keys.Prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case key.Matches(msg, keys.ShowAll):
		m.ctrl.ToggleShowAll()
		m.refresh()
		return m, nil
	}

	switch m.focus {
	case focusList:
		return m.updateList(msg)
	case focusName, focusNumber:
		if key.Matches(msg, keys.Submit) {
			return m.submit()
		}
	}
	return m.updateInput(msg)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.state.Visible()
	switch {
	case key.Matches(msg, keys.Up):
		m.moveSelection(visible, -1)
	case key.Matches(msg, keys.Down):
		m.moveSelection(visible, 1)
	case key.Matches(msg, keys.Delete):
		if m.selected == "" {
			return m, nil
		}
		ctx, ctrl, id := m.ctx, m.ctrl, m.selected
		return m, func() tea.Msg {
			ctrl.RemoveContact(ctx, id)
			return stateChangedMsg{}
		}
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	// Take the bound inputs now so later keystrokes start a fresh entry. The
	// name lookup may block on a question, so the rest runs off the loop.
	ctx, ctrl := m.ctx, m.ctrl
	name, number := ctrl.TakeInputs()
	m.state = ctrl.State()
	m.name.SetValue("")
	m.number.SetValue("")
	return m, func() tea.Msg {
		ctrl.SubmitEntry(ctx, name, number)
		return stateChangedMsg{}
	}
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != m.state.SearchText {
			m.ctrl.UpdateSearch(m.filter.Value())
		}
	case focusName:
		m.name, cmd = m.name.Update(msg)
		if m.name.Value() != m.state.NameInput {
			m.ctrl.SetNameInput(m.name.Value())
		}
	case focusNumber:
		m.number, cmd = m.number.Update(msg)
		if m.number.Value() != m.state.NumberInput {
			m.ctrl.SetNumberInput(m.number.Value())
		}
	}
	m.refresh()
	return m, cmd
}

// refresh pulls the latest controller state and brings the inputs and the
// selection in line with it.
func (m *Model) refresh() {
	m.state = m.ctrl.State()
	syncInput(&m.filter, m.state.SearchText)
	syncInput(&m.name, m.state.NameInput)
	syncInput(&m.number, m.state.NumberInput)

	visible := m.state.Visible()
	for _, c := range visible {
		if c.ID == m.selected {
			return
		}
	}
	m.selected = ""
	if len(visible) > 0 {
		m.selected = visible[0].ID
	}
}

func syncInput(ti *textinput.Model, v string) {
	if ti.Value() != v {
		ti.SetValue(v)
	}
}

func (m *Model) moveSelection(visible []models.Contact, delta int) {
	if len(visible) == 0 {
		m.selected = ""
		return
	}
	i := 0
	for j, c := range visible {
		if c.ID == m.selected {
			i = j
			break
		}
	}
	i += delta
	if i < 0 {
		i = 0
	}
	if i >= len(visible) {
		i = len(visible) - 1
	}
	m.selected = visible[i].ID
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.filter.Blur()
	m.name.Blur()
	m.number.Blur()
	switch f {
	case focusFilter:
		return m.filter.Focus()
	case focusName:
		return m.name.Focus()
	case focusNumber:
		return m.number.Focus()
	}
	return nil
}

// View renders the screen.
func (m Model) View() string {
	sections := []string{titleStyle.Render("Phonebook")}
	if s := SuccessNotification(m.state.SuccessMessage); s != "" {
		sections = append(sections, s)
	}
	if s := ErrorNotification(m.state.ErrorMessage); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections,
		Filter(m.filter),
		"",
		headingStyle.Render("Add a new"),
		ContactForm(m.name, m.number),
		"",
		headingStyle.Render(m.numbersHeading()),
	)

	selected := ""
	if m.focus == focusList {
		selected = m.selected
	}
	sections = append(sections, ContactList(m.state.Visible(), selected))

	if len(m.confirms) > 0 {
		sections = append(sections, "", confirmDialog(m.confirms[0].question))
	}
	sections = append(sections, helpStyle.Render(helpLine(
		keys.Next, keys.Submit, keys.Up, keys.Down, keys.Delete, keys.ShowAll, keys.Quit,
	)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) numbersHeading() string {
	if m.state.ShowAll {
		return "Numbers (showing all)"
	}
	return "Numbers"
}
