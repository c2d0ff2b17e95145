package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/position"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/ui/itemlist"
)

// shortID trims uuids for display; prefixes are accepted wherever an id is.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusText(it model.Item, today time.Time, eval recurrence.Evaluator) string {
	switch {
	case it.Status.Terminal():
		return text.FgHiBlack.Sprint(it.Status)
	case itemlist.Done(it, today, eval):
		return text.FgHiGreen.Sprint("done")
	case itemlist.Overdue(it, today, eval):
		return text.FgHiRed.Sprint("overdue")
	default:
		return text.FgHiYellow.Sprint(it.Status)
	}
}

// renderItems writes items as a table.
func renderItems(w io.Writer, items []model.Item, today time.Time, eval recurrence.Evaluator) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Recurrence", "Due", "Bucket", "Pos", "Streak", "Tags"})

	for _, it := range items {
		due := ""
		if it.DueDate != nil {
			due = it.DueDate.Format(time.DateOnly)
		}
		title := it.Title
		if it.Metadata.IsFavorite {
			title = "★ " + title
		}
		t.AppendRow(table.Row{
			shortID(it.ID),
			title,
			statusText(it, today, eval),
			it.RecurrenceOrOneOff(),
			due,
			it.Bucket,
			fmt.Sprintf("%g", it.Position),
			it.Metadata.Streak,
			strings.Join(it.Metadata.Tags, ", "),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d items", len(items))})
	t.Render()
}

// renderEntries writes a bucket's order after a reorder.
func renderEntries(w io.Writer, entries []position.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "ID", "Position"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, shortID(e.ID), fmt.Sprintf("%g", e.Position)})
	}
	t.Render()
}
