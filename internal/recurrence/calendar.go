package recurrence

import (
	"time"

	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
)

// CellState is the rendering state of one calendar day for one item.
type CellState string

const (
	CellNone   CellState = "none"
	CellDone   CellState = "done"
	CellBonus  CellState = "bonus"
	CellMissed CellState = "missed"
	CellTarget CellState = "target"
)

// Cell is one day of an item's completion calendar.
type Cell struct {
	Date  time.Time `json:"date"`
	Key   string    `json:"key"`
	State CellState `json:"state"`
	Count int       `json:"count"`
}

// Calendar returns one cell per day of the month containing month.
//
// A day with ledger entries is done, or bonus when every entry that day is
// a bonus. Month and quarter buckets are stamped on the first of the
// month, so for those recurrences a satisfied target day also shows done.
func (e Evaluator) Calendar(it model.Item, month, today time.Time) []Cell {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.Local)
	n := daysIn(first)

	perDay := make(map[string][]string, len(it.Metadata.CompletedDates))
	for _, entry := range it.Metadata.CompletedDates {
		key := ledger.DateKey(entry)
		perDay[key] = append(perDay[key], entry)
	}

	cells := make([]Cell, 0, n)
	for i := 0; i < n; i++ {
		day := first.AddDate(0, 0, i)
		key := ledger.DayKey(day)
		cell := Cell{Date: day, Key: key, State: CellNone, Count: len(perDay[key])}

		switch {
		case cell.Count > 0:
			cell.State = CellBonus
			for _, entry := range perDay[key] {
				if !ledger.IsBonus(entry) {
					cell.State = CellDone
					break
				}
			}
		case !TargetDayMatches(day, it):
		case it.IsRecurring() && e.completedIn(it, day):
			cell.State = CellDone
		case e.IsMissed(day, today, it):
			cell.State = CellMissed
		default:
			cell.State = CellTarget
		}
		cells = append(cells, cell)
	}
	return cells
}
