// Package recurrence decides whether a recurring item's current cycle is
// satisfied, advances due dates and applies smart completion.
package recurrence

import (
	"fmt"
	"slices"
	"time"

	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
)

// Evaluator holds the calendar conventions recurrence checks depend on.
type Evaluator struct {
	// WeekStart is the first day of a weekly cycle.
	WeekStart time.Weekday

	// MissedFloor suppresses missed-day flags before this date. The zero
	// value disables the floor.
	MissedFloor time.Time
}

// New builds an Evaluator from calendar configuration.
func New(cfg model.CalendarConfig) (Evaluator, error) {
	floor, err := cfg.Floor()
	if err != nil {
		return Evaluator{}, fmt.Errorf("parsing missed floor %q: %w", cfg.MissedFloor, err)
	}
	start, err := cfg.FirstWeekday()
	if err != nil {
		return Evaluator{}, err
	}
	return Evaluator{WeekStart: start, MissedFloor: floor}, nil
}

// Default returns an Evaluator using the default calendar configuration.
func Default() Evaluator {
	e, err := New(model.DefaultAppConfig().Calendar)
	if err != nil {
		panic(err)
	}
	return e
}

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// IsCycleSatisfied reports whether the ledger already holds a completion
// in the cycle containing now. One-off items are never cycle satisfied;
// their status governs instead.
func (e Evaluator) IsCycleSatisfied(dates []string, r model.Recurrence, now time.Time) bool {
	if r == model.RecurrenceOneOff {
		return false
	}
	return e.cycleHas(ledger.Days(dates), r, Day(now))
}

func (e Evaluator) cycleHas(days []time.Time, r model.Recurrence, day time.Time) bool {
	start, end := e.cycle(r, day)
	for _, d := range days {
		if !d.Before(start) && d.Before(end) {
			return true
		}
	}
	return false
}

// cycle returns the half-open range [start, end) of the cycle containing day.
func (e Evaluator) cycle(r model.Recurrence, day time.Time) (time.Time, time.Time) {
	switch r {
	case model.RecurrenceWeekly:
		offset := (int(day.Weekday()) - int(e.WeekStart) + 7) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.Local)
		return start, start.AddDate(0, 1, 0)
	case model.RecurrenceQuarterly:
		first := time.Month((int(day.Month())-1)/3*3 + 1)
		start := time.Date(day.Year(), first, 1, 0, 0, 0, 0, time.Local)
		return start, start.AddDate(0, 3, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// NextDueDate advances current by one recurrence period. Month arithmetic
// clamps to the last day of the target month. One-off dates are returned
// unchanged.
func NextDueDate(current time.Time, r model.Recurrence) time.Time {
	switch r {
	case model.RecurrenceDaily:
		return current.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		return current.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		return addMonths(current, 1)
	case model.RecurrenceQuarterly:
		return addMonths(current, 3)
	default:
		return current
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// TargetDayMatches reports whether day is a day the item is expected to
// be done on.
func TargetDayMatches(day time.Time, it model.Item) bool {
	day = Day(day)
	md := it.Metadata

	switch it.RecurrenceOrOneOff() {
	case model.RecurrenceDaily:
		if len(md.ActiveDays) == 0 {
			return true
		}
		return slices.Contains(md.ActiveDays, int(day.Weekday()))
	case model.RecurrenceWeekly:
		want, ok := preferredWeekday(it)
		return ok && day.Weekday() == want
	case model.RecurrenceMonthly:
		want, ok := preferredDayNum(it)
		return ok && day.Day() == want
	case model.RecurrenceQuarterly:
		want, ok := preferredDayNum(it)
		return ok && day.Day() == want && (day.Month()-time.January)%3 == 0
	default:
		return it.DueDate != nil && Day(*it.DueDate).Equal(day)
	}
}

// preferredWeekday falls back to the due date's weekday.
func preferredWeekday(it model.Item) (time.Weekday, bool) {
	if w := it.Metadata.PreferredWeekday; w != nil {
		return time.Weekday(*w), true
	}
	if it.DueDate != nil {
		return it.DueDate.Weekday(), true
	}
	return 0, false
}

// preferredDayNum falls back to the due date's day of month.
func preferredDayNum(it model.Item) (int, bool) {
	if d := it.Metadata.PreferredDayNum; d != nil {
		return *d, true
	}
	if it.DueDate != nil {
		return it.DueDate.Day(), true
	}
	return 0, false
}

// IsMissed reports whether day was a target day, lies before today and on
// or after the missed floor, and has no completion in its cycle.
func (e Evaluator) IsMissed(day, today time.Time, it model.Item) bool {
	day = Day(day)
	if !day.Before(Day(today)) {
		return false
	}
	if !e.MissedFloor.IsZero() && day.Before(Day(e.MissedFloor)) {
		return false
	}
	if !TargetDayMatches(day, it) {
		return false
	}
	return !e.completedIn(it, day)
}

func (e Evaluator) completedIn(it model.Item, day time.Time) bool {
	r := it.RecurrenceOrOneOff()
	if r == model.RecurrenceOneOff {
		return it.Status == model.StatusCompleted || ledger.Contains(it.Metadata.CompletedDates, ledger.DayKey(day))
	}
	return e.cycleHas(ledger.Days(it.Metadata.CompletedDates), r, day)
}
