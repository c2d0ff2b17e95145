// Package theme holds the lipgloss styles shared by the terminal views.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the title bar.
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

// ToastStyle replaces the status bar while an error toast is showing.
var ToastStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// PanelStyle wraps overlays such as help and the calendar.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the row under the cursor.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

var (
	HelpStyle     = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	DimmedStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	DueDateStyle  = lipgloss.NewStyle().Foreground(ColorGray)
	OverdueStyle  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	TagStyle      = lipgloss.NewStyle().Foreground(ColorMagenta)
	StreakStyle   = lipgloss.NewStyle().Foreground(ColorYellow)
	FavoriteStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
)

// StatusStyle returns a color-coded style for an item status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "active":
		return base.Foreground(ColorBlue)
	case "completed":
		return base.Foreground(ColorGreen)
	case "voided":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// CellStyle returns the style for a calendar cell state.
func CellStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Width(4).Align(lipgloss.Right)

	switch state {
	case "done":
		return base.Foreground(ColorGreen).Bold(true)
	case "bonus":
		return base.Foreground(ColorMagenta).Bold(true)
	case "missed":
		return base.Foreground(ColorRed)
	case "target":
		return base.Foreground(ColorBlue).Underline(true)
	default:
		return base.Foreground(ColorGray)
	}
}
