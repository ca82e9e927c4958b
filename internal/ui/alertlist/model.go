package alertlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/keys"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/theme"
)

// Loader produces the current alert list. It is satisfied by
// *alerts.Service.
type Loader interface {
	Refresh(ctx context.Context) ([]model.Alert, error)
}

// AlertsLoadedMsg is sent when alerts have been derived.
type AlertsLoadedMsg struct {
	Alerts []model.Alert
	Err    error
}

// SelectedAlertMsg is sent when the user opens an alert.
type SelectedAlertMsg struct {
	Alert model.Alert
}

// typeCycle is the order the type filter steps through. The empty type
// means all types.
var typeCycle = append([]model.AlertType{""}, model.DispatchableTypes...)

// Filter narrows the visible alerts.
type Filter struct {
	// ShowAll includes completed and dismissed alerts.
	ShowAll bool
	Type    model.AlertType
	Query   string
}

// Active reports whether the filter hides anything beyond the default.
func (f Filter) Active() bool {
	return f.Type != "" || f.Query != ""
}

// Apply returns the alerts in list that pass f, preserving order.
func (f Filter) Apply(list []model.Alert) []model.Alert {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.Alert, 0, len(list))
	for _, a := range list {
		if !f.ShowAll && !a.IsPending() {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if q != "" && !matches(a, q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matches(a model.Alert, q string) bool {
	for _, s := range []string{a.Title, a.RelatedName, a.Description, a.ContactOwner} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Model is the alert list view.
type Model struct {
	list        list.Model
	loader      Loader
	keys        *keys.KeyMap
	all         []model.Alert
	filter      Filter
	typeIndex   int
	searchMode  bool
	searchInput textinput.Model
	loadErr     error
	width       int
	height      int
}

// New creates a new alert list model.
func New(loader Loader, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, AlertDelegate{}, width, height-2)
	l.Title = "Alerts"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("alert", "alerts")
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search alerts..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		loader:      loader,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init loads the initial alert list.
func (m Model) Init() tea.Cmd {
	return m.LoadAlerts()
}

// Update handles messages for the alert list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AlertsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.all = msg.Alerts
		}
		cmd := m.applyFilter()
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = m.searchInput.Value()
		cmd := m.applyFilter()
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		cmd := m.applyFilter()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		a, ok := m.SelectedAlert()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedAlertMsg{Alert: a} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleType):
		m.typeIndex = (m.typeIndex + 1) % len(typeCycle)
		m.filter.Type = typeCycle[m.typeIndex]
		cmd := m.applyFilter()
		return m, cmd

	case key.Matches(msg, m.keys.ClearTypes):
		cmd := m.ClearFilters()
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter rebuilds the list items from the last loaded alerts.
func (m *Model) applyFilter() tea.Cmd {
	visible := m.filter.Apply(m.all)
	items := make([]list.Item, len(visible))
	for i, a := range visible {
		items[i] = AlertItem{Alert: a}
	}
	return m.list.SetItems(items)
}

// View renders the alert list.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loadErr != nil:
		return style.Foreground(theme.ColorRed).Render("Could not load alerts:\n" + m.loadErr.Error())
	case m.filter.Active():
		return style.Render("No matching alerts.\nPress 0 to clear filters.")
	case len(m.all) > 0:
		return style.Render("Nothing pending.\nPress H to show completed and dismissed alerts.")
	default:
		return style.Render("No alerts.\n\nImport CRM data with `crmalerts import <file.json>`.")
	}
}

// LoadAlerts returns a tea.Cmd that derives the current alerts.
func (m Model) LoadAlerts() tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		list, err := loader.Refresh(context.Background())
		return AlertsLoadedMsg{Alerts: list, Err: err}
	}
}

// SelectedAlert returns the alert under the cursor.
func (m Model) SelectedAlert() (model.Alert, bool) {
	item, ok := m.list.SelectedItem().(AlertItem)
	if !ok {
		return model.Alert{}, false
	}
	return item.Alert, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Alerts returns every loaded alert, ignoring the filter.
func (m Model) Alerts() []model.Alert {
	return m.all
}

// PendingCount returns how many loaded alerts are still pending.
func (m Model) PendingCount() int {
	n := 0
	for _, a := range m.all {
		if a.IsPending() {
			n++
		}
	}
	return n
}

// ToggleShowAll shows or hides completed and dismissed alerts.
func (m *Model) ToggleShowAll() tea.Cmd {
	m.filter.ShowAll = !m.filter.ShowAll
	return m.applyFilter()
}

// SetShowAll sets whether completed and dismissed alerts are listed.
func (m *Model) SetShowAll(all bool) tea.Cmd {
	m.filter.ShowAll = all
	return m.applyFilter()
}

// ClearFilters drops the type filter and search query.
func (m *Model) ClearFilters() tea.Cmd {
	m.typeIndex = 0
	m.filter.Type = ""
	m.filter.Query = ""
	m.searchInput.Reset()
	return m.applyFilter()
}

// FilterSummary describes the active filter for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Type != "" {
		parts = append(parts, fmt.Sprintf("type: %s", m.filter.Type))
	}
	if m.filter.Query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.filter.Query))
	}
	return strings.Join(parts, " | ")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
