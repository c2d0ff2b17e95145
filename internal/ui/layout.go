// Package ui renders the frame and the individual panels of the terminal
// interface. Components here are pure rendering; state lives in app.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with a one-line header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the rows left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the title on the left and view info on the right.
func (l Layout) RenderHeader(title, info string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), theme.HeaderStyle.Render(info))
}

// RenderStatusBar renders key hints, or the toast when one is set.
func (l Layout) RenderStatusBar(hints, toast string) string {
	if toast != "" {
		return l.bar(theme.ToastStyle, theme.ToastStyle.Render(toast), "")
	}
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// bar joins left and right with a filler in style's background.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
