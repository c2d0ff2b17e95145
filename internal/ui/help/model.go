// Package help renders the keyboard shortcut overlay.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys  *keys.KeyMap
	help  help.Model
	width int
}

// New creates a help overlay for keys.
func New(keys *keys.KeyMap, width int) Model {
	h := help.New()
	h.ShowAll = true
	m := Model{keys: keys, help: h}
	m.SetWidth(width)
	return m
}

// View renders every binding grouped by FullHelp.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(m.keys)))
}

// SetWidth updates the overlay width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.help.Width = max(width-8, 0)
}
