package snoozeform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/theme"
)

// SnoozeSubmittedMsg is dispatched when the user confirms a snooze.
type SnoozeSubmittedMsg struct {
	AlertID string
	Days    int
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// Presets are the snooze lengths offered before the custom field.
var Presets = []int{1, 3, 7, 14, 30}

// formBindings lives on the heap so huh's Value pointers survive model
// copies.
type formBindings struct {
	days   int
	custom string
}

// Model is the snooze form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	alert  model.Alert
	width  int
	height int
}

// New creates a snooze form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start opens the form for a.
func (m *Model) Start(a model.Alert) tea.Cmd {
	m.alert = a
	m.fb.days = Presets[0]
	m.fb.custom = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		days, err := m.fb.resolve()
		if err != nil {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		id := m.alert.ID
		return m, func() tea.Msg { return SnoozeSubmittedMsg{AlertID: id, Days: days} }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := theme.TitleStyle.Render("Snooze " + m.alert.Title)
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[int], 0, len(Presets)+1)
	for _, d := range Presets {
		opts = append(opts, huh.NewOption(daysLabel(d), d))
	}
	opts = append(opts, huh.NewOption("Custom...", 0))

	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Hide this alert for").
				Options(opts...).
				Value(&fb.days),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Days").
				Placeholder("e.g. 10").
				Value(&fb.custom).
				Validate(ValidateDays),
		).WithHideFunc(func() bool { return fb.days != 0 }),
	).WithWidth(m.formWidth())
}

// resolve returns the chosen number of days.
func (fb *formBindings) resolve() (int, error) {
	if fb.days > 0 {
		return fb.days, nil
	}
	if err := ValidateDays(fb.custom); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(fb.custom))
}

// ValidateDays accepts a positive whole number of days.
func ValidateDays(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number of days")
	}
	return nil
}

func daysLabel(d int) string {
	if d == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", d)
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}
