package settingsform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/theme"
)

// SettingsSubmittedMsg carries the edited settings.
type SettingsSubmittedMsg struct {
	Settings model.AlertSettings
	AutoSend bool
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

type formBindings struct {
	birthday  []model.LeadOption
	followUp  []model.LeadOption
	task      []model.LeadOption
	jbp       []model.LeadOption
	event     []model.LeadOption
	frequency model.ReminderFrequency
	autoSend  bool
}

// Model is the alert settings form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a settings form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start opens the form prefilled with s and the auto-send toggle.
func (m *Model) Start(s model.AlertSettings, autoSend bool) tea.Cmd {
	m.fb.load(s, autoSend)
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
		out := SettingsSubmittedMsg{Settings: m.fb.settings(), AutoSend: m.fb.autoSend}
		return m, func() tea.Msg { return out }
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
	title := theme.TitleStyle.Render("Alert Settings")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (fb *formBindings) load(s model.AlertSettings, autoSend bool) {
	fb.birthday = clone(s.BirthdayAlertOptions)
	fb.followUp = clone(s.NextContactAlertOptions)
	fb.task = clone(s.TaskAlertOptions)
	fb.jbp = clone(s.JBPAlertOptions)
	fb.event = clone(s.EventAlertOptions)
	fb.frequency = s.ReminderFrequency
	if fb.frequency == "" {
		fb.frequency = model.FrequencyOnce
	}
	fb.autoSend = autoSend
}

func (fb *formBindings) settings() model.AlertSettings {
	return model.AlertSettings{
		BirthdayAlertOptions:    clone(fb.birthday),
		NextContactAlertOptions: clone(fb.followUp),
		TaskAlertOptions:        clone(fb.task),
		JBPAlertOptions:         clone(fb.jbp),
		EventAlertOptions:       clone(fb.event),
		ReminderFrequency:       fb.frequency,
	}
}

func clone(opts []model.LeadOption) []model.LeadOption {
	return append([]model.LeadOption{}, opts...)
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			leadField("Birthdays", &fb.birthday),
			leadField("Follow-ups", &fb.followUp),
			leadField("Tasks", &fb.task),
		),
		huh.NewGroup(
			leadField("Joint business plans", &fb.jbp),
			leadField("Custom events", &fb.event),
		),
		huh.NewGroup(
			huh.NewSelect[model.ReminderFrequency]().
				Title("Re-send reminders").
				Description("How often auto-send may repeat an alert it already sent").
				Options(
					huh.NewOption("Once", model.FrequencyOnce),
					huh.NewOption("Daily", model.FrequencyDaily),
					huh.NewOption("Every 3 days", model.FrequencyEveryThree),
					huh.NewOption("Weekly", model.FrequencyWeekly),
				).
				Value(&fb.frequency),
			huh.NewConfirm().
				Title("Auto-send").
				Affirmative("On").
				Negative("Off").
				Value(&fb.autoSend),
		),
	).WithWidth(m.formWidth())
}

func leadField(title string, v *[]model.LeadOption) huh.Field {
	return huh.NewMultiSelect[model.LeadOption]().
		Title(title).
		Description("Leave empty to turn these alerts off").
		Options(
			huh.NewOption("Same day", model.LeadSameDay),
			huh.NewOption("Day before", model.LeadDayBefore),
			huh.NewOption("Week before", model.LeadWeekBefore),
		).
		Value(v)
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}
