// Package ledger manipulates completion ledgers: append-ordered lists of
// "YYYY-MM-DD @ HH:MM" strings stored in item metadata.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// Format is the time layout of a ledger entry.
	Format = "2006-01-02 @ 15:04"

	// DayFormat is the layout of the date portion, the calendar join key.
	DayFormat = "2006-01-02"

	// Separator splits an entry into its date key and time.
	Separator = " @ "

	// BonusSuffix marks a completion logged beyond the cycle requirement.
	BonusSuffix = " (BONUS)"
)

// ErrIndexOutOfRange is returned by RemoveAt for a bad index.
var ErrIndexOutOfRange = errors.New("ledger index out of range")

// Entry formats a completion at now in local time.
func Entry(now time.Time, bonus bool) string {
	e := now.Local().Format(Format)
	if bonus {
		e += BonusSuffix
	}
	return e
}

// MonthBucketEntry formats a completion whose date portion is normalized
// to the first of the month, so a whole month or quarter shares one cell.
func MonthBucketEntry(now time.Time, bonus bool) string {
	local := now.Local()
	first := time.Date(local.Year(), local.Month(), 1, local.Hour(), local.Minute(), 0, 0, time.Local)
	return Entry(first, bonus)
}

// Log appends an entry for now. The input slice is not modified.
func Log(l []string, now time.Time, bonus bool) []string {
	return LogEntry(l, Entry(now, bonus))
}

// LogEntry appends a preformatted entry. The input slice is not modified.
func LogEntry(l []string, entry string) []string {
	out := make([]string, len(l), len(l)+1)
	copy(out, l)
	return append(out, entry)
}

// UndoLast removes the most recent entry. An empty ledger is returned
// unchanged; undoing the only entry yields a nil ledger.
func UndoLast(l []string) []string {
	if len(l) == 0 {
		return l
	}
	if len(l) == 1 {
		return nil
	}
	return slices.Clone(l[:len(l)-1])
}

// RemoveAt removes the entry at index i. Duplicates are distinguished only
// by position, never by value.
func RemoveAt(l []string, i int) ([]string, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("removing entry %d of %d: %w", i, len(l), ErrIndexOutOfRange)
	}
	return slices.Delete(slices.Clone(l), i, i+1), nil
}

// Streak is the lifetime completion count: every entry counts, consecutive
// or not. The UI labels this value "Streak".
func Streak(l []string) int {
	return len(l)
}

// DateKey returns the date portion of an entry.
func DateKey(entry string) string {
	key, _, _ := strings.Cut(entry, Separator)
	return key
}

// Dates returns the date keys of every entry, in ledger order.
func Dates(l []string) []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = DateKey(e)
	}
	return out
}

// Contains reports whether any entry falls on the given date key.
func Contains(l []string, day string) bool {
	for _, e := range l {
		if DateKey(e) == day {
			return true
		}
	}
	return false
}

// IsBonus reports whether the entry was logged as a bonus completion.
func IsBonus(entry string) bool {
	return strings.HasSuffix(entry, BonusSuffix)
}

// DayKey formats t as a date key in local time.
func DayKey(t time.Time) string {
	return t.Local().Format(DayFormat)
}

// ParseDay parses a date key as local midnight.
func ParseDay(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing ledger day %q: %w", key, err)
	}
	return t, nil
}

// Days parses every entry's date key, skipping entries that do not parse.
func Days(l []string) []time.Time {
	out := make([]time.Time, 0, len(l))
	for _, e := range l {
		if d, err := ParseDay(DateKey(e)); err == nil {
			out = append(out, d)
		}
	}
	return out
}
