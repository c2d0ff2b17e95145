package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEntryFormat(t *testing.T) {
	assert.Equal(t, "2026-03-07 @ 09:05", Entry(at("2026-03-07 09:05"), false))
	assert.Equal(t, "2026-03-07 @ 21:30 (BONUS)", Entry(at("2026-03-07 21:30"), true))
}

func TestMonthBucketEntry(t *testing.T) {
	assert.Equal(t, "2026-03-01 @ 09:05", MonthBucketEntry(at("2026-03-27 09:05"), false))
	assert.Equal(t, "2026-12-01 @ 23:59 (BONUS)", MonthBucketEntry(at("2026-12-31 23:59"), true))
}

func TestLogDoesNotMutateInput(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "2026-01-01 @ 08:00"

	a := Log(base, at("2026-01-02 08:00"), false)
	b := Log(base, at("2026-01-03 08:00"), false)

	assert.Equal(t, []string{"2026-01-01 @ 08:00", "2026-01-02 @ 08:00"}, a)
	assert.Equal(t, []string{"2026-01-01 @ 08:00", "2026-01-03 @ 08:00"}, b)
	assert.Len(t, base, 1)
}

func TestLogUndoRoundTrip(t *testing.T) {
	ledgers := [][]string{
		{},
		{"2026-01-01 @ 08:00"},
		{"2026-01-01 @ 08:00", "2026-01-01 @ 08:00", "2026-01-02 @ 07:00 (BONUS)"},
	}
	for _, l := range ledgers {
		got := UndoLast(Log(l, at("2026-05-05 12:00"), false))
		assert.Equal(t, len(l), len(got))
		for i := range l {
			assert.Equal(t, l[i], got[i])
		}
	}
}

func TestUndoLastOnEmpty(t *testing.T) {
	assert.Empty(t, UndoLast(nil))
}

func TestLogUndoRoundTripOnNilLedger(t *testing.T) {
	var l []string
	assert.Equal(t, l, UndoLast(Log(l, at("2026-05-05 12:00"), false)))
	assert.Nil(t, UndoLast([]string{"2026-05-05 @ 12:00"}))
}

func TestRemoveAtByIndexNotValue(t *testing.T) {
	l := []string{"2026-01-01 @ 08:00", "2026-01-01 @ 08:00", "2026-01-02 @ 08:00"}

	out, err := RemoveAt(l, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01 @ 08:00", "2026-01-02 @ 08:00"}, out)
	assert.Len(t, l, 3, "input ledger is untouched")

	_, err = RemoveAt(l, 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = RemoveAt(l, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStreakIsLifetimeCount(t *testing.T) {
	l := []string{"2026-01-01 @ 08:00", "2026-02-15 @ 08:00", "2026-06-30 @ 08:00"}
	assert.Equal(t, 3, Streak(l))
	assert.Equal(t, 0, Streak(nil))
}

func TestDateKeyAndBonus(t *testing.T) {
	assert.Equal(t, "2026-04-01", DateKey("2026-04-01 @ 10:00 (BONUS)"))
	assert.Equal(t, "2026-04-01", DateKey("2026-04-01"))
	assert.True(t, IsBonus("2026-04-01 @ 10:00 (BONUS)"))
	assert.False(t, IsBonus("2026-04-01 @ 10:00"))
	assert.True(t, Contains([]string{"2026-04-01 @ 10:00"}, "2026-04-01"))
	assert.False(t, Contains([]string{"2026-04-01 @ 10:00"}, "2026-04-02"))
}

func TestDaysSkipsGarbage(t *testing.T) {
	days := Days([]string{"2026-04-01 @ 10:00", "not a date", "2026-04-03 @ 11:00"})
	require.Len(t, days, 2)
	assert.Equal(t, "2026-04-03", DayKey(days[1]))
}
