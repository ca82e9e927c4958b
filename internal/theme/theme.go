package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// NoticeStyle highlights a transient message in the status bar.
var NoticeStyle = StatusBarStyle.
	Foreground(ColorYellow).
	Bold(true)

// PanelStyle wraps overlay panels such as help and the command palette.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

var (
	ListItemStyle = lipgloss.NewStyle().PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(ColorBlue).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorBlue)

	DimmedStyle  = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	DueDateStyle = lipgloss.NewStyle().Foreground(ColorGray)
	OverdueStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite).MarginBottom(1)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorWhite)
)

// PriorityStyle returns a color-coded style for an alert priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityCritical:
		return base.Foreground(ColorRed)
	case model.PriorityHigh:
		return base.Foreground(ColorOrange)
	case model.PriorityMedium:
		return base.Foreground(ColorYellow)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// StatusStyle returns a color-coded style for an alert status.
func StatusStyle(s model.AlertStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch s {
	case model.AlertStatusCompleted:
		return base.Foreground(ColorGreen)
	case model.AlertStatusDismissed:
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorBlue)
	}
}

// TypeStyle returns a color-coded style for an alert type badge.
func TypeStyle(t model.AlertType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.AlertTypeBirthday:
		return base.Foreground(ColorMagenta)
	case model.AlertTypeFollowUp:
		return base.Foreground(ColorBlue)
	case model.AlertTypeTaskDue:
		return base.Foreground(ColorOrange)
	case model.AlertTypeJBP:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorYellow)
	}
}

// TypeLabel returns a three letter badge for an alert type.
func TypeLabel(t model.AlertType) string {
	switch t {
	case model.AlertTypeBirthday:
		return "BDY"
	case model.AlertTypeFollowUp:
		return "FUP"
	case model.AlertTypeTaskDue:
		return "TSK"
	case model.AlertTypeJBP:
		return "JBP"
	case model.AlertTypeAccountEvent, model.AlertTypeContactEvent:
		return "EVT"
	default:
		return "???"
	}
}
