package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
)

// Outcome is the result of a smart completion.
type Outcome int

const (
	// Completed means a one-off item was marked completed.
	Completed Outcome = iota

	// Logged means a recurring completion was appended to the ledger.
	Logged

	// AlreadySatisfied means nothing changed: the current cycle already
	// holds a completion, or the one-off item is already completed.
	AlreadySatisfied
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Logged:
		return "logged"
	case AlreadySatisfied:
		return "already satisfied"
	default:
		return "unknown"
	}
}

// SmartComplete applies a completion to it at now and returns the updated
// copy. The input item is never modified.
func (e Evaluator) SmartComplete(it model.Item, bonus bool, now time.Time) (model.Item, Outcome) {
	out := it.Clone()
	md := &out.Metadata

	if !it.IsRecurring() {
		if it.Status == model.StatusCompleted && !bonus {
			return out, AlreadySatisfied
		}
		out.Status = model.StatusCompleted
		for _, s := range md.SubActions {
			if !md.SubActionDone(s) {
				md.CompletedSubActions = append(md.CompletedSubActions, s.Key())
			}
		}
		md.CompletedDates = ledger.Log(md.CompletedDates, now, bonus)
		md.Streak = ledger.Streak(md.CompletedDates)
		return out, Completed
	}

	r := it.RecurrenceOrOneOff()
	if !bonus && e.IsCycleSatisfied(md.CompletedDates, r, now) {
		return out, AlreadySatisfied
	}

	entry := ledger.Entry(now, bonus)
	if r == model.RecurrenceMonthly || r == model.RecurrenceQuarterly {
		entry = ledger.MonthBucketEntry(now, bonus)
	}
	md.CompletedDates = ledger.LogEntry(md.CompletedDates, entry)
	md.Streak = ledger.Streak(md.CompletedDates)

	base := Day(now)
	if it.DueDate != nil {
		base = *it.DueDate
	}
	next := NextDueDate(base, r)
	out.DueDate = &next
	out.Status = model.StatusActive

	return out, Logged
}

// Undo pops the most recent ledger entry. Recurring items keep their
// advanced due date. One-off items are reopened and their sub-actions
// uncompleted. It reports whether anything changed.
func Undo(it model.Item) (model.Item, bool) {
	out := it.Clone()
	md := &out.Metadata

	if it.IsRecurring() {
		if len(md.CompletedDates) == 0 {
			return out, false
		}
		md.CompletedDates = ledger.UndoLast(md.CompletedDates)
		md.Streak = ledger.Streak(md.CompletedDates)
		return out, true
	}

	if it.Status != model.StatusCompleted && len(md.CompletedDates) == 0 {
		return out, false
	}
	md.CompletedDates = ledger.UndoLast(md.CompletedDates)
	md.Streak = ledger.Streak(md.CompletedDates)
	if out.Status == model.StatusCompleted {
		out.Status = model.StatusActive
	}
	md.CompletedSubActions = slices.DeleteFunc(md.CompletedSubActions, func(key string) bool {
		return slices.ContainsFunc(md.SubActions, func(s model.SubAction) bool {
			return s.Key() == key || s.Text == key
		})
	})
	return out, true
}

// RemoveEntry deletes the ledger entry at index i and recomputes the streak.
func RemoveEntry(it model.Item, i int) (model.Item, error) {
	out := it.Clone()
	dates, err := ledger.RemoveAt(out.Metadata.CompletedDates, i)
	if err != nil {
		return it, err
	}
	out.Metadata.CompletedDates = dates
	out.Metadata.Streak = ledger.Streak(dates)
	return out, nil
}

// ErrUnknownSubAction is returned when no sub-action matches a toggle key.
var ErrUnknownSubAction = errors.New("unknown sub-action")

// ToggleSubAction flips the completion of the sub-action identified by
// key (its id or text). It returns the updated copy, the matched
// sub-action and its new state. Linked sub-actions are the caller's
// concern.
func ToggleSubAction(it model.Item, key string) (model.Item, model.SubAction, bool, error) {
	out := it.Clone()
	md := &out.Metadata

	idx := slices.IndexFunc(md.SubActions, func(s model.SubAction) bool {
		return s.ID == key || s.Text == key
	})
	if idx < 0 {
		return it, model.SubAction{}, false, fmt.Errorf("toggling %q: %w", key, ErrUnknownSubAction)
	}
	s := md.SubActions[idx]

	if md.SubActionDone(s) {
		md.CompletedSubActions = slices.DeleteFunc(md.CompletedSubActions, func(k string) bool {
			return k == s.Key() || k == s.Text
		})
		return out, s, false, nil
	}
	md.CompletedSubActions = append(md.CompletedSubActions, s.Key())
	return out, s, true, nil
}
