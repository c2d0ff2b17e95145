// Package position assigns and rebalances the floating-point sort keys that
// define manual order among sibling items.
package position

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Increment is the conventional gap between appended positions.
const Increment = 1000.0

// ErrUnknownID is returned when a reorder names an id not in the list.
var ErrUnknownID = errors.New("unknown item id")

// Strategy selects how positions are rewritten after a move.
type Strategy int

const (
	// Indexed rewrites every element's position to its new index. Used by
	// the daily schedule, where a drag persists the whole list.
	Indexed Strategy = iota

	// Midpoint rewrites only the moved element to the midpoint of its new
	// neighbours. Used by Task Master.
	Midpoint
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Indexed:
		return "indexed"
	case Midpoint:
		return "midpoint"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Entry is the minimal view of an item needed for sequencing.
type Entry struct {
	ID       string
	Position float64
}

// Sequencer computes positions with a configurable increment.
type Sequencer struct {
	Increment float64

	// MinGap is the smallest neighbour gap a midpoint insert accepts
	// before the whole list is renormalized. Zero disables the check.
	MinGap float64
}

// New returns a Sequencer with the conventional increment and no
// automatic renormalization.
func New() Sequencer {
	return Sequencer{Increment: Increment}
}

func (s Sequencer) inc() float64 {
	if s.Increment <= 0 {
		return Increment
	}
	return s.Increment
}

// InsertBetween returns a position strictly between before and after.
// Nil neighbours mean "start of list" and "end of list".
func (s Sequencer) InsertBetween(before, after *float64) float64 {
	switch {
	case before == nil && after == nil:
		return s.inc()
	case after == nil:
		return *before + s.inc()
	case before == nil:
		if *after > 0 {
			return *after / 2
		}
		return *after - s.inc()
	default:
		return (*before + *after) / 2
	}
}

// Append returns the position for a new last element.
func (s Sequencer) Append(last *float64) float64 {
	return s.InsertBetween(last, nil)
}

// InsertBetween uses the default sequencer.
func InsertBetween(before, after *float64) float64 {
	return New().InsertBetween(before, after)
}

// Sort orders entries by ascending position, keeping the current order for ties.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		default:
			return 0
		}
	})
}

// Reorder moves movedID to targetID's index and assigns new positions
// according to strategy. entries must already be in display order. It
// returns the reordered list and the entries whose position changed.
func (s Sequencer) Reorder(entries []Entry, movedID, targetID string, strategy Strategy) ([]Entry, []Entry, error) {
	from := indexOf(entries, movedID)
	to := indexOf(entries, targetID)
	if from < 0 {
		return nil, nil, fmt.Errorf("reorder moved %s: %w", movedID, ErrUnknownID)
	}
	if to < 0 {
		return nil, nil, fmt.Errorf("reorder target %s: %w", targetID, ErrUnknownID)
	}

	ordered := slices.Clone(entries)
	if from == to {
		return ordered, nil, nil
	}

	moved := ordered[from]
	ordered = slices.Delete(ordered, from, from+1)
	ordered = slices.Insert(ordered, to, moved)

	switch strategy {
	case Indexed:
		return ordered, reindex(ordered), nil
	case Midpoint:
		return s.midpoint(ordered, to)
	default:
		return nil, nil, fmt.Errorf("unknown strategy %v", strategy)
	}
}

// Move is a convenience wrapper that moves by a relative offset (-1 up,
// +1 down), clamped to the list bounds.
func (s Sequencer) Move(entries []Entry, movedID string, offset int, strategy Strategy) ([]Entry, []Entry, error) {
	from := indexOf(entries, movedID)
	if from < 0 {
		return nil, nil, fmt.Errorf("move %s: %w", movedID, ErrUnknownID)
	}
	to := min(max(from+offset, 0), len(entries)-1)
	return s.Reorder(entries, movedID, entries[to].ID, strategy)
}

func (s Sequencer) midpoint(ordered []Entry, at int) ([]Entry, []Entry, error) {
	var before, after *float64
	if at > 0 {
		before = &ordered[at-1].Position
	}
	if at < len(ordered)-1 {
		after = &ordered[at+1].Position
	}

	if s.MinGap > 0 && before != nil && after != nil && math.Abs(*after-*before) < s.MinGap {
		return ordered, s.renormalize(ordered), nil
	}

	ordered[at].Position = s.InsertBetween(before, after)
	return ordered, []Entry{ordered[at]}, nil
}

// reindex sets each position to its index and returns the changed entries.
func reindex(ordered []Entry) []Entry {
	var changed []Entry
	for i := range ordered {
		p := float64(i)
		if ordered[i].Position != p {
			ordered[i].Position = p
			changed = append(changed, ordered[i])
		}
	}
	return changed
}

// Renormalize assigns evenly spaced positions, in place, to entries in
// their current order and returns those whose position changed. Run it
// once before switching a collection from Indexed to Midpoint.
func (s Sequencer) Renormalize(entries []Entry) []Entry {
	return s.renormalize(entries)
}

func (s Sequencer) renormalize(entries []Entry) []Entry {
	var changed []Entry
	for i := range entries {
		p := float64(i+1) * s.inc()
		if entries[i].Position != p {
			entries[i].Position = p
			changed = append(changed, entries[i])
		}
	}
	return changed
}

func indexOf(entries []Entry, id string) int {
	return slices.IndexFunc(entries, func(e Entry) bool { return e.ID == id })
}
