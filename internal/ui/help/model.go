package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/keys"
	"github.com/nhle/crm-alerts/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width - 4
	h.ShowAll = true
	return Model{
		keys:   k,
		help:   h,
		width:  width,
		height: height,
	}
}

// Update is a no-op; the parent closes the overlay.
func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the full key map grouped by concern.
func (m Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		theme.LabelStyle.Render("Snoozed, completed and dismissed alerts are never auto-sent."),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
