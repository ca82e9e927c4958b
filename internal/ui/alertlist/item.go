package alertlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/theme"
)

// AlertItem wraps a model.Alert so it can be used in a bubbles/list.
type AlertItem struct {
	Alert model.Alert
}

// FilterValue returns the string used for search.
func (i AlertItem) FilterValue() string {
	return i.Alert.Title + " " + i.Alert.RelatedName
}

// Title returns the alert title.
func (i AlertItem) Title() string { return i.Alert.Title }

// Description returns a short summary line.
func (i AlertItem) Description() string {
	return strings.Join([]string{
		string(i.Alert.Type),
		string(i.Alert.Priority),
		whenLabel(i.Alert),
	}, " | ")
}

// AlertDelegate renders one alert per line.
type AlertDelegate struct{}

// Height returns the number of lines each item takes.
func (d AlertDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d AlertDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d AlertDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single alert line.
func (d AlertDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ai, ok := item.(AlertItem)
	if !ok {
		return
	}
	a := ai.Alert

	prefix := "○"
	switch a.Status {
	case model.AlertStatusCompleted:
		prefix = "✓"
	case model.AlertStatusDismissed:
		prefix = "–"
	}

	typeBadge := theme.TypeStyle(a.Type).Render(theme.TypeLabel(a.Type))
	priBadge := theme.PriorityStyle(a.Priority).Render(priorityLabel(a.Priority))

	related := ""
	if a.RelatedName != "" {
		related = lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  " + a.RelatedName)
	}

	when := theme.DueDateStyle.Render("  " + whenLabel(a))
	if a.DaysUntil < 0 && a.IsPending() {
		when = theme.OverdueStyle.Render("  " + whenLabel(a))
	}

	line := fmt.Sprintf("%s %s %s %s%s%s", prefix, typeBadge, priBadge, a.Title, related, when)

	if !a.IsPending() {
		line = theme.DimmedStyle.Render(line)
	}
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// whenLabel returns the relative due phrase, e.g. "in 3 days" or
// "2 days overdue".
func whenLabel(a model.Alert) string {
	return dateutil.Phrase(a.DaysUntil)
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "CRIT"
	case model.PriorityHigh:
		return "HIGH"
	case model.PriorityMedium:
		return "MED "
	case model.PriorityLow:
		return "LOW "
	default:
		return "?   "
	}
}
