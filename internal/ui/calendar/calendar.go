// Package calendar renders an item's completion calendar as a month grid.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/theme"
)

// Grid lays cells out in weeks starting on weekStart. Leading and
// trailing slots outside the month are -1.
func Grid(cells []recurrence.Cell, weekStart time.Weekday) [][]int {
	if len(cells) == 0 {
		return nil
	}

	lead := (int(cells[0].Date.Weekday()) - int(weekStart) + 7) % 7
	var weeks [][]int
	week := make([]int, 0, 7)
	for range lead {
		week = append(week, -1)
	}
	for i := range cells {
		week = append(week, i)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]int, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, -1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// View renders the calendar for title with a legend.
func View(title string, cells []recurrence.Cell, weekStart time.Weekday) string {
	if len(cells) == 0 {
		return theme.PanelStyle.Render("No calendar")
	}

	var b strings.Builder
	for d := range 7 {
		wd := time.Weekday((int(weekStart) + d) % 7)
		b.WriteString(theme.CellStyle("none").Render(wd.String()[:2]))
	}
	b.WriteString("\n")

	for _, week := range Grid(cells, weekStart) {
		for _, i := range week {
			if i < 0 {
				b.WriteString(theme.CellStyle("none").Render(""))
				continue
			}
			c := cells[i]
			b.WriteString(theme.CellStyle(string(c.State)).Render(strconv.Itoa(c.Date.Day())))
		}
		b.WriteString("\n")
	}

	legend := strings.Join([]string{
		theme.CellStyle("done").Width(0).Render("done"),
		theme.CellStyle("bonus").Width(0).Render("bonus"),
		theme.CellStyle("missed").Width(0).Render("missed"),
		theme.CellStyle("target").Width(0).Render("target"),
	}, "  ")

	header := lipgloss.NewStyle().Bold(true).Render(title + "  " + cells[0].Date.Format("January 2006"))
	return theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", b.String(), legend))
}
