package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
)

func date(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func clock(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(r model.Recurrence) *model.Recurrence { return &r }

func intPtr(i int) *int { return &i }

func recurring(r model.Recurrence, due string, dates ...string) model.Item {
	it := model.Item{
		ID:         "item-1",
		Title:      "Stretch",
		Status:     model.StatusActive,
		Recurrence: rec(r),
		Metadata:   model.Metadata{CompletedDates: dates, Streak: len(dates)},
	}
	if due != "" {
		d := date(due)
		it.DueDate = &d
	}
	return it
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		from string
		r    model.Recurrence
		want string
	}{
		{"2026-01-31", model.RecurrenceMonthly, "2026-02-28"},
		{"2026-02-01", model.RecurrenceQuarterly, "2026-05-01"},
		{"2026-11-30", model.RecurrenceQuarterly, "2027-02-28"},
		{"2028-01-31", model.RecurrenceMonthly, "2028-02-29"},
		{"2026-12-31", model.RecurrenceDaily, "2027-01-01"},
		{"2026-10-15", model.RecurrenceWeekly, "2026-10-22"},
		{"2026-10-15", model.RecurrenceOneOff, "2026-10-15"},
	}
	for _, tt := range tests {
		t.Run(string(tt.r)+"/"+tt.from, func(t *testing.T) {
			got := NextDueDate(date(tt.from), tt.r)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestIsCycleSatisfied(t *testing.T) {
	now := clock("2026-10-15 10:00") // Thursday
	sunday := Evaluator{WeekStart: time.Sunday}
	monday := Evaluator{WeekStart: time.Monday}

	assert.True(t, sunday.IsCycleSatisfied([]string{"2026-10-15 @ 07:00"}, model.RecurrenceDaily, now))
	assert.False(t, sunday.IsCycleSatisfied([]string{"2026-10-14 @ 23:59"}, model.RecurrenceDaily, now))

	assert.True(t, sunday.IsCycleSatisfied([]string{"2026-10-11 @ 08:00"}, model.RecurrenceWeekly, now))
	assert.False(t, sunday.IsCycleSatisfied([]string{"2026-10-10 @ 08:00"}, model.RecurrenceWeekly, now))
	assert.False(t, monday.IsCycleSatisfied([]string{"2026-10-11 @ 08:00"}, model.RecurrenceWeekly, now))

	assert.True(t, sunday.IsCycleSatisfied([]string{"2026-10-01 @ 08:00"}, model.RecurrenceMonthly, now))
	assert.False(t, sunday.IsCycleSatisfied([]string{"2026-09-01 @ 08:00"}, model.RecurrenceMonthly, now))

	assert.True(t, sunday.IsCycleSatisfied([]string{"2026-10-01 @ 08:00"}, model.RecurrenceQuarterly, now))
	assert.False(t, sunday.IsCycleSatisfied([]string{"2026-09-01 @ 08:00"}, model.RecurrenceQuarterly, now))

	assert.False(t, sunday.IsCycleSatisfied([]string{"2026-10-15 @ 08:00"}, model.RecurrenceOneOff, now))
}

func TestSmartCompleteDailyIsIdempotentWithinCycle(t *testing.T) {
	e := Default()
	it := recurring(model.RecurrenceDaily, "2026-10-15")

	first, outcome := e.SmartComplete(it, false, clock("2026-10-15 08:00"))
	require.Equal(t, Logged, outcome)
	assert.Equal(t, []string{"2026-10-15 @ 08:00"}, first.Metadata.CompletedDates)
	assert.Equal(t, 1, first.Metadata.Streak)
	assert.Equal(t, "2026-10-16", first.DueDate.Format("2006-01-02"))

	second, outcome := e.SmartComplete(first, false, clock("2026-10-15 18:00"))
	assert.Equal(t, AlreadySatisfied, outcome)
	assert.Len(t, second.Metadata.CompletedDates, 1)

	bonus, outcome := e.SmartComplete(first, true, clock("2026-10-15 19:00"))
	assert.Equal(t, Logged, outcome)
	assert.Equal(t, "2026-10-15 @ 19:00 (BONUS)", bonus.Metadata.CompletedDates[1])
	assert.Equal(t, 2, bonus.Metadata.Streak)

	assert.Empty(t, it.Metadata.CompletedDates, "input is not modified")
}

func TestSmartCompleteMonthlyUsesBucketAndAdvancesDue(t *testing.T) {
	it := recurring(model.RecurrenceMonthly, "2026-10-15")

	out, outcome := Default().SmartComplete(it, false, clock("2026-10-20 09:30"))
	require.Equal(t, Logged, outcome)
	assert.Equal(t, []string{"2026-10-01 @ 09:30"}, out.Metadata.CompletedDates)
	assert.Equal(t, "2026-11-15", out.DueDate.Format("2006-01-02"))
	assert.Equal(t, model.StatusActive, out.Status)
}

func TestSmartCompleteWithoutDueDateStartsFromToday(t *testing.T) {
	it := recurring(model.RecurrenceWeekly, "")
	out, _ := Default().SmartComplete(it, false, clock("2026-10-15 09:30"))
	require.NotNil(t, out.DueDate)
	assert.Equal(t, "2026-10-22", out.DueDate.Format("2006-01-02"))
}

func TestSmartCompleteOneOffCascadesSubActions(t *testing.T) {
	it := model.Item{
		ID:     "t1",
		Status: model.StatusActive,
		Metadata: model.Metadata{
			SubActions:          []model.SubAction{{Text: "draft"}, {ID: "s2", Text: "send"}},
			CompletedSubActions: []string{"draft"},
		},
	}

	out, outcome := Default().SmartComplete(it, false, clock("2026-10-15 12:00"))
	require.Equal(t, Completed, outcome)
	assert.Equal(t, model.StatusCompleted, out.Status)
	assert.ElementsMatch(t, []string{"draft", "s2"}, out.Metadata.CompletedSubActions)
	assert.Len(t, out.Metadata.CompletedDates, 1)

	_, outcome = Default().SmartComplete(out, false, clock("2026-10-15 13:00"))
	assert.Equal(t, AlreadySatisfied, outcome)

	reopened, changed := Undo(out)
	require.True(t, changed)
	assert.Equal(t, model.StatusActive, reopened.Status)
	assert.Empty(t, reopened.Metadata.CompletedSubActions)
	assert.Empty(t, reopened.Metadata.CompletedDates)
}

func TestUndoKeepsAdvancedDueDate(t *testing.T) {
	it := recurring(model.RecurrenceDaily, "2026-10-15")
	done, _ := Default().SmartComplete(it, false, clock("2026-10-15 08:00"))

	undone, changed := Undo(done)
	require.True(t, changed)
	assert.Empty(t, undone.Metadata.CompletedDates)
	assert.Equal(t, 0, undone.Metadata.Streak)
	assert.Equal(t, "2026-10-16", undone.DueDate.Format("2006-01-02"))

	_, changed = Undo(undone)
	assert.False(t, changed)
}

func TestRemoveEntry(t *testing.T) {
	it := recurring(model.RecurrenceDaily, "", "2026-10-01 @ 08:00", "2026-10-02 @ 08:00")

	out, err := RemoveEntry(it, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-02 @ 08:00"}, out.Metadata.CompletedDates)
	assert.Equal(t, 1, out.Metadata.Streak)

	_, err = RemoveEntry(it, 5)
	assert.Error(t, err)
}

func TestTargetDayMatches(t *testing.T) {
	daily := recurring(model.RecurrenceDaily, "")
	assert.True(t, TargetDayMatches(date("2026-10-15"), daily))

	daily.Metadata.ActiveDays = []int{int(time.Monday), int(time.Wednesday)}
	assert.True(t, TargetDayMatches(date("2026-10-12"), daily))
	assert.False(t, TargetDayMatches(date("2026-10-15"), daily))

	weekly := recurring(model.RecurrenceWeekly, "")
	assert.False(t, TargetDayMatches(date("2026-10-15"), weekly), "no preference and no due date")
	weekly.Metadata.PreferredWeekday = intPtr(int(time.Thursday))
	assert.True(t, TargetDayMatches(date("2026-10-15"), weekly))
	assert.False(t, TargetDayMatches(date("2026-10-16"), weekly))

	monthly := recurring(model.RecurrenceMonthly, "2026-10-03")
	assert.True(t, TargetDayMatches(date("2026-11-03"), monthly), "falls back to due date's day")

	quarterly := recurring(model.RecurrenceQuarterly, "")
	quarterly.Metadata.PreferredDayNum = intPtr(15)
	assert.True(t, TargetDayMatches(date("2026-10-15"), quarterly))
	assert.True(t, TargetDayMatches(date("2026-01-15"), quarterly))
	assert.False(t, TargetDayMatches(date("2026-11-15"), quarterly))
}

func TestIsMissedRespectsFloor(t *testing.T) {
	it := recurring(model.RecurrenceDaily, "", "2024-12-30 @ 08:00")
	today := date("2026-10-15")

	e := Evaluator{WeekStart: time.Sunday, MissedFloor: date("2025-01-01")}
	assert.False(t, e.IsMissed(date("2024-12-31"), today, it), "before floor")
	assert.True(t, e.IsMissed(date("2025-01-02"), today, it))
	assert.False(t, e.IsMissed(date("2024-12-30"), today, it), "completed")
	assert.False(t, e.IsMissed(today, today, it), "today is not missed yet")

	noFloor := Evaluator{WeekStart: time.Sunday}
	assert.True(t, noFloor.IsMissed(date("2024-12-31"), today, it))
}

func TestIsMissedWeeklyIsCycleAware(t *testing.T) {
	it := recurring(model.RecurrenceWeekly, "", "2026-10-07 @ 08:00")
	it.Metadata.PreferredWeekday = intPtr(int(time.Monday))
	e := Evaluator{WeekStart: time.Sunday}

	assert.False(t, e.IsMissed(date("2026-10-05"), date("2026-10-15"), it), "done later that week")
	assert.True(t, e.IsMissed(date("2026-10-12"), date("2026-10-15"), it))
}

func TestCalendar(t *testing.T) {
	it := recurring(model.RecurrenceDaily, "",
		"2026-10-01 @ 08:00",
		"2026-10-02 @ 21:00 (BONUS)",
		"2026-10-04 @ 08:00",
		"2026-10-04 @ 09:00 (BONUS)",
	)
	e := Evaluator{WeekStart: time.Sunday, MissedFloor: date("2025-01-01")}

	cells := e.Calendar(it, date("2026-10-20"), date("2026-10-15"))
	require.Len(t, cells, 31)

	assert.Equal(t, CellDone, cells[0].State)
	assert.Equal(t, CellBonus, cells[1].State)
	assert.Equal(t, CellMissed, cells[2].State)
	assert.Equal(t, CellDone, cells[3].State)
	assert.Equal(t, 2, cells[3].Count)
	assert.Equal(t, CellTarget, cells[19].State)
	assert.Equal(t, "2026-10-31", cells[30].Key)
}

func TestCalendarQuarterlyBucket(t *testing.T) {
	it := recurring(model.RecurrenceQuarterly, "", "2026-10-01 @ 08:00")
	it.Metadata.PreferredDayNum = intPtr(15)

	cells := Default().Calendar(it, date("2026-10-01"), date("2026-10-20"))
	assert.Equal(t, CellDone, cells[0].State)
	assert.Equal(t, CellDone, cells[14].State, "quarter already satisfied")
	assert.Equal(t, CellNone, cells[15].State)
}

func TestToggleSubAction(t *testing.T) {
	it := model.Item{Metadata: model.Metadata{SubActions: []model.SubAction{{Text: "call"}, {ID: "x", Text: "mail", TaskMasterID: "tm"}}}}

	out, s, done, err := ToggleSubAction(it, "call")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "call", s.Text)
	assert.Equal(t, []string{"call"}, out.Metadata.CompletedSubActions)

	out, _, done, err = ToggleSubAction(out, "call")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, out.Metadata.CompletedSubActions)

	_, s, _, err = ToggleSubAction(it, "x")
	require.NoError(t, err)
	assert.Equal(t, "tm", s.TaskMasterID)

	_, _, _, err = ToggleSubAction(it, "nope")
	assert.ErrorIs(t, err, ErrUnknownSubAction)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(model.CalendarConfig{MissedFloor: "yesterday"})
	assert.Error(t, err)

	e, err := New(model.CalendarConfig{MissedFloor: "2025-01-01", WeekStart: "Monday"})
	require.NoError(t, err)
	assert.Equal(t, time.Monday, e.WeekStart)
}
