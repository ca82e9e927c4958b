package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/keys"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Detail is everything the view shows about one alert.
type Detail struct {
	Alert model.Alert

	// Recipient and RecipientSource describe where a send would go.
	// RecipientErr is set when no address could be resolved.
	Recipient       string
	RecipientSource string
	RecipientErr    error
	Attempts        []string

	LastSent *model.SentAlertRecord
}

// DetailLoadedMsg carries the loaded alert detail.
type DetailLoadedMsg struct {
	Detail *Detail
}

// Model is the alert detail view.
type Model struct {
	detail   *Detail
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetDetail(msg.Detail)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return placeholder.Render("Loading alert...")
	}
	if m.detail == nil {
		return placeholder.Render("No alert selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	if m.detail == nil {
		return ""
	}
	a := m.detail.Alert

	sections := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(a.Title),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.TypeStyle(a.Type).Render(string(a.Type)), "  ",
			theme.StatusStyle(a.Status).Render(string(a.Status)), "  ",
			theme.PriorityStyle(a.Priority).Render(strings.ToUpper(string(a.Priority))),
		),
		"",
	}

	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, fmt.Sprintf("%-16s %s",
			theme.LabelStyle.Render(label+":"), theme.ValueStyle.Render(value)))
	}

	row("ID", a.ID)
	row("Due", fmt.Sprintf("%s (%s)", a.DueDate, dateutil.Phrase(a.DaysUntil)))
	row(relatedLabel(a.RelatedType), a.RelatedName)
	row("Owner", a.ContactOwner)
	row("Vice president", a.VicePresident)
	if a.CompletedAt != nil {
		row("Completed", a.CompletedAt.Format("2006-01-02 15:04"))
	}

	separator := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "", a.Description, "", separator, "")

	sections = append(sections, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Delivery"))
	if m.detail.RecipientErr != nil {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.detail.RecipientErr.Error()))
		for _, at := range m.detail.Attempts {
			sections = append(sections, theme.LabelStyle.Render("  · "+at))
		}
	} else {
		row("Send to", m.detail.Recipient)
		row("Resolved from", m.detail.RecipientSource)
	}
	if ls := m.detail.LastSent; ls != nil {
		how := "manually"
		if ls.AutoSent {
			how = "automatically"
		}
		row("Last sent", fmt.Sprintf("%s (%s)", ls.SentAt.Format("2006-01-02 15:04"), how))
	} else {
		row("Last sent", "never")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func relatedLabel(t model.RelatedType) string {
	switch t {
	case model.RelatedContact:
		return "Contact"
	case model.RelatedAccount:
		return "Account"
	case model.RelatedTask:
		return "Task"
	default:
		return "Related"
	}
}

// SetDetail replaces the shown alert and scrolls to the top.
func (m *Model) SetDetail(d *Detail) {
	m.detail = d
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Current returns the alert being shown.
func (m Model) Current() (model.Alert, bool) {
	if m.detail == nil {
		return model.Alert{}, false
	}
	return m.detail.Alert, true
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.detail != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
