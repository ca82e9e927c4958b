package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-alerts/internal/theme"
)

// Layout holds the terminal dimensions and renders the frame around the
// active view.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with one-line header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the rows left for the active view.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the title on the left and the auto-send state on
// the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.fill(theme.HeaderStyle, left, right), right)
}

// RenderStatusBar renders key hints, or notice in their place when set.
func (l Layout) RenderStatusBar(hints, notice string) string {
	style := theme.StatusBarStyle
	text := hints
	if notice != "" {
		style = theme.NoticeStyle
		text = notice
	}
	rendered := style.Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.fill(style, rendered))
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill pads the row so the bar background spans the full width.
func (l Layout) fill(style lipgloss.Style, parts ...string) string {
	gap := l.Width
	for _, p := range parts {
		gap -= lipgloss.Width(p)
	}
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}
