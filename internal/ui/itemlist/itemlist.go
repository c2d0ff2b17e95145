// Package itemlist renders the item rows of the main list.
package itemlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/theme"
)

// maxTags is how many tags a row shows before eliding.
const maxTags = 2

// Done reports whether a row should render as done: completed one-off
// items, and recurring items whose current cycle is satisfied.
func Done(it model.Item, today time.Time, eval recurrence.Evaluator) bool {
	if it.IsRecurring() {
		return eval.IsCycleSatisfied(it.Metadata.CompletedDates, *it.Recurrence, today)
	}
	return it.Status == model.StatusCompleted
}

// Overdue reports whether the due date is before today and the item is
// still open.
func Overdue(it model.Item, today time.Time, eval recurrence.Evaluator) bool {
	if it.DueDate == nil || it.Status.Terminal() || Done(it, today, eval) {
		return false
	}
	return it.DueDate.Before(recurrence.Day(today))
}

// Row renders a single item line.
func Row(it model.Item, selected bool, today time.Time, eval recurrence.Evaluator) string {
	done := Done(it, today, eval)

	prefix := "○"
	switch {
	case done:
		prefix = "✓"
	case it.IsRecurring():
		prefix = "↻"
	}
	if it.Metadata.IsFavorite {
		prefix += theme.FavoriteStyle.Render("★")
	}

	parts := []string{prefix}
	if it.Status != model.StatusActive {
		parts = append(parts, theme.StatusStyle(string(it.Status)).Render(string(it.Status)))
	}
	parts = append(parts, it.Title)

	if it.IsRecurring() {
		parts = append(parts, theme.StreakStyle.Render(fmt.Sprintf("%s ×%d", *it.Recurrence, it.Metadata.Streak)))
	}
	if tags := it.Metadata.Tags; len(tags) > 0 {
		display := tags
		if len(display) > maxTags {
			display = append(display[:maxTags:maxTags], "…")
		}
		parts = append(parts, theme.TagStyle.Render("#"+strings.Join(display, " #")))
	}
	if it.DueDate != nil {
		parts = append(parts, theme.DueDateStyle.Render(it.DueDate.Format("Jan 02")))
	}
	if Overdue(it, today, eval) {
		parts = append(parts, theme.OverdueStyle.Render("OVERDUE"))
	}

	line := strings.Join(parts, " ")
	if done {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// Window returns the [start, end) range of rows to show so that cursor
// stays visible in height rows.
func Window(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := min(max(cursor-height/2, 0), n-height)
	return start, start + height
}

// View renders the visible window of items.
func View(items []model.Item, cursor, width, height int, today time.Time, eval recurrence.Evaluator) string {
	if len(items) == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing here.\nPress f to change the status filter or / to search.")
	}

	start, end := Window(len(items), cursor, height)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, Row(items[i], i == cursor, today, eval))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
