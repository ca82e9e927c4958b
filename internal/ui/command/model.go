package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/theme"
)

// Names lists the commands the palette suggests.
var Names = []string{
	"refresh",
	"autosend on",
	"autosend off",
	"autosend run",
	"settings",
	"all",
	"pending",
	"clear",
	"quit",
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, autosend run, settings..."
	ti.Prompt = ": "
	ti.Width = width - 6
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		cmd := strings.ToLower(strings.TrimSpace(m.input.Value()))
		m.input.Reset()
		if cmd == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(cmd) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Command Palette"),
		m.input.View(),
	)
	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
