package alertlist

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/keys"
	"github.com/nhle/crm-alerts/internal/model"
)

type stubLoader struct {
	alerts []model.Alert
	err    error
}

func (s stubLoader) Refresh(context.Context) ([]model.Alert, error) {
	return s.alerts, s.err
}

var sample = []model.Alert{
	{ID: "task-t1", Type: model.AlertTypeTaskDue, Title: "Task due: Deck", Priority: model.PriorityCritical, Status: model.AlertStatusPending, DaysUntil: -1},
	{ID: "birthday-c1", Type: model.AlertTypeBirthday, Title: "Birthday: Ada Lovelace", RelatedName: "Ada Lovelace", Priority: model.PriorityMedium, Status: model.AlertStatusPending, DaysUntil: 5},
	{ID: "jbp-a1", Type: model.AlertTypeJBP, Title: "JBP: Acme", Priority: model.PriorityHigh, Status: model.AlertStatusCompleted, DaysUntil: 3},
	{ID: "follow-up-c2", Type: model.AlertTypeFollowUp, Title: "Follow up with Alan", Priority: model.PriorityHigh, Status: model.AlertStatusDismissed, ContactOwner: "Grace"},
}

func ids(list []model.Alert) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"pending only by default", Filter{}, []string{"task-t1", "birthday-c1"}},
		{"show all", Filter{ShowAll: true}, []string{"task-t1", "birthday-c1", "jbp-a1", "follow-up-c2"}},
		{"by type", Filter{ShowAll: true, Type: model.AlertTypeJBP}, []string{"jbp-a1"}},
		{"query matches related name", Filter{Query: "lovelace"}, []string{"birthday-c1"}},
		{"query matches owner", Filter{ShowAll: true, Query: "GRACE"}, []string{"follow-up-c2"}},
		{"no match", Filter{Query: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(sample)))
		})
	}
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.LoadAlerts()()
	loaded, ok := msg.(AlertsLoadedMsg)
	require.True(t, ok)
	m, _ = m.Update(loaded)
	return m
}

func TestModel_LoadAndToggleShowAll(t *testing.T) {
	m := load(t, New(stubLoader{alerts: sample}, keys.DefaultKeyMap(), 80, 20))

	assert.Len(t, m.list.Items(), 2)
	assert.Equal(t, 2, m.PendingCount())
	assert.Len(t, m.Alerts(), 4)

	m.ToggleShowAll()
	assert.Len(t, m.list.Items(), 4)

	sel, ok := m.SelectedAlert()
	require.True(t, ok)
	assert.Equal(t, "task-t1", sel.ID)
}

func TestModel_CycleTypeFilter(t *testing.T) {
	m := load(t, New(stubLoader{alerts: sample}, keys.DefaultKeyMap(), 80, 20))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "type: birthday", m.FilterSummary())
	assert.Len(t, m.list.Items(), 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("0")})
	assert.Empty(t, m.FilterSummary())
	assert.Len(t, m.list.Items(), 2)
}

func TestModel_LoadErrorKeepsPreviousAlerts(t *testing.T) {
	m := load(t, New(stubLoader{alerts: sample}, keys.DefaultKeyMap(), 80, 20))

	m, _ = m.Update(AlertsLoadedMsg{Err: errors.New("store locked")})

	assert.Len(t, m.Alerts(), 4)
	assert.Len(t, m.list.Items(), 2)
}
