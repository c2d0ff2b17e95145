package planner_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/planner"
	"github.com/nhle/planner/internal/position"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/sync"
	"github.com/nhle/planner/internal/view"
	"github.com/nhle/planner/tests/testutil"
)

var now = time.Date(2026, 10, 15, 9, 30, 0, 0, time.Local)

func day(s string) *time.Time {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		panic(err)
	}
	return &t
}

func rec(r model.Recurrence) *model.Recurrence { return &r }

func newService(t *testing.T, d *sync.Dispatcher) (*planner.Service, store.Store, context.Context) {
	t.Helper()
	s := testutil.NewTestStore(t)
	svc, err := planner.New(s, d, model.DefaultAppConfig(), zerolog.Nop())
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return now })
	return svc, s, testutil.UserContext("alice")
}

func create(t *testing.T, svc *planner.Service, ctx context.Context, it model.Item) model.Item {
	t.Helper()
	out, err := svc.Create(ctx, it)
	require.NoError(t, err)
	return *out
}

func TestCreateAppendsWithinBucket(t *testing.T) {
	svc, _, ctx := newService(t, nil)

	a := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "a", DueDate: day("2026-10-15")})
	b := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "b", DueDate: day("2026-10-15")})
	other := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "c", DueDate: day("2026-10-16")})
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "t",
		Metadata: model.Metadata{Kind: model.KindTicket}})

	assert.Equal(t, "2026-10-15", a.Bucket)
	assert.Equal(t, 1000.0, a.Position)
	assert.Equal(t, 2000.0, b.Position)
	assert.Equal(t, 1000.0, other.Position)
	assert.Equal(t, "ticket", tm.Bucket)
	assert.Equal(t, model.StatusActive, a.Status)
}

func TestSmartCompleteSignalsAlreadySatisfied(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	it := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Stretch",
		Recurrence: rec(model.RecurrenceDaily), DueDate: day("2026-10-15")})

	done, err := svc.SmartComplete(ctx, model.CollectionSchedule, it.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-15 @ 09:30"}, done.Metadata.CompletedDates)
	assert.Equal(t, 1, done.Metadata.Streak)
	assert.Equal(t, *day("2026-10-16"), *done.DueDate)

	again, err := svc.SmartComplete(ctx, model.CollectionSchedule, it.ID, false)
	require.ErrorIs(t, err, planner.ErrAlreadySatisfied)
	assert.Equal(t, planner.KindAlreadySatisfied, planner.Classify(err))
	assert.Len(t, again.Metadata.CompletedDates, 1)

	res := planner.ResultOf(err)
	assert.False(t, res.Success)
	assert.Equal(t, "Already done for this cycle", res.Message)

	bonus, err := svc.SmartComplete(ctx, model.CollectionSchedule, it.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-15 @ 09:30", "2026-10-15 @ 09:30 (BONUS)"}, bonus.Metadata.CompletedDates)
}

func TestSmartCompletePropagatesToLinkedSchedule(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Ship report"})
	sched := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Work on report",
		Metadata: model.Metadata{TaskMasterID: tm.ID}})

	_, err := svc.SmartComplete(ctx, model.CollectionTaskMaster, tm.ID, false)
	require.NoError(t, err)

	got, err := s.Get(ctx, model.CollectionSchedule, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, []string{"2026-10-15 @ 09:30"}, got.Metadata.CompletedDates)
	assert.Equal(t, tm.ID, got.Metadata.TaskMasterID)
}

func TestPropagationThroughDispatcher(t *testing.T) {
	d := sync.New(zerolog.Nop(), 8)
	d.Start()
	defer d.Stop()

	svc, s, ctx := newService(t, d)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Plan"})
	sched := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Plan today",
		Metadata: model.Metadata{TaskMasterID: tm.ID}})

	_, err := svc.Void(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Flush(flushCtx))

	got, err := s.Get(ctx, model.CollectionSchedule, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, got.Status)
	assert.Equal(t, uint64(1), d.Stats().Succeeded)
}

func TestUndoAndRemoveEntry(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	it := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Call"})

	_, err := svc.SmartComplete(ctx, model.CollectionTaskMaster, it.ID, false)
	require.NoError(t, err)

	undone, err := svc.Undo(ctx, model.CollectionTaskMaster, it.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, undone.Status)
	assert.Empty(t, undone.Metadata.CompletedDates)

	_, err = svc.Undo(ctx, model.CollectionTaskMaster, it.ID)
	require.NoError(t, err, "undo on empty ledger is a no-op")

	_, err = svc.RemoveLedgerEntry(ctx, model.CollectionTaskMaster, it.ID, 3)
	assert.Equal(t, planner.KindInvalid, planner.Classify(err))
}

func TestReorderScheduleRewritesIndexes(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		it := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: title, DueDate: day("2026-10-15")})
		ids = append(ids, it.ID)
	}

	ordered, err := svc.Reorder(ctx, model.CollectionSchedule, "2026-10-15", ids[2], ids[0])
	require.NoError(t, err)
	assert.Equal(t, []position.Entry{{ID: ids[2], Position: 0}, {ID: ids[0], Position: 1}, {ID: ids[1], Position: 2}}, ordered)

	items, err := svc.List(ctx, model.CollectionSchedule, view.Options{Sort: view.SortManual})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].Title)
	assert.Equal(t, "a", items[1].Title)
}

func TestReorderTaskMasterMovesOnlyOneItem(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		it := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: title,
			Metadata: model.Metadata{Kind: model.KindTask}})
		ids = append(ids, it.ID)
	}

	_, err := svc.Reorder(ctx, model.CollectionTaskMaster, "task", ids[2], ids[0])
	require.NoError(t, err)

	moved, err := s.Get(ctx, model.CollectionTaskMaster, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 500.0, moved.Position)

	untouched, err := s.Get(ctx, model.CollectionTaskMaster, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 2000.0, untouched.Position)

	_, err = svc.Reorder(ctx, model.CollectionTaskMaster, "task", "missing", ids[0])
	assert.Equal(t, planner.KindNotFound, planner.Classify(err))
}

func TestRenormalize(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	a := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "a", Position: 0.25,
		Metadata: model.Metadata{Kind: model.KindIdea}})
	b := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "b", Position: 0.5,
		Metadata: model.Metadata{Kind: model.KindIdea}})

	_, err := svc.Renormalize(ctx, model.CollectionTaskMaster, "idea")
	require.NoError(t, err)

	gotA, err := s.Get(ctx, model.CollectionTaskMaster, a.ID)
	require.NoError(t, err)
	gotB, err := s.Get(ctx, model.CollectionTaskMaster, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, gotA.Position)
	assert.Equal(t, 2000.0, gotB.Position)
}

func TestToggleLinkedSubActionCompletesOnlyLinkedItem(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Send invoice"})
	sibling := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Other"})
	sched := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Admin",
		Metadata: model.Metadata{SubActions: []model.SubAction{
			{Text: "invoice", TaskMasterID: tm.ID},
			{Text: "tidy desk"},
		}}})

	got, err := svc.ToggleSubAction(ctx, model.CollectionSchedule, sched.ID, "invoice")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice"}, got.Metadata.CompletedSubActions)
	assert.Equal(t, model.StatusActive, got.Status)

	linked, err := s.Get(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, linked.Status)
	assert.Equal(t, []string{"2026-10-15 @ 09:30"}, linked.Metadata.CompletedDates)

	other, err := s.Get(ctx, model.CollectionTaskMaster, sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, other.Status)

	got, err = svc.ToggleSubAction(ctx, model.CollectionSchedule, sched.ID, "tidy desk")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice", "tidy desk"}, got.Metadata.CompletedSubActions)

	_, err = svc.ToggleSubAction(ctx, model.CollectionSchedule, sched.ID, "nope")
	assert.Equal(t, planner.KindInvalid, planner.Classify(err))
}

func TestLinkedCompletionSurvivesLaterWrites(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Practice",
		Recurrence: rec(model.RecurrenceDaily), DueDate: day("2026-10-15")})
	follower := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Practice block",
		Recurrence: rec(model.RecurrenceDaily),
		Metadata: model.Metadata{TaskMasterID: tm.ID, SubActions: []model.SubAction{{Text: "scales"}}}})
	routine := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Evening",
		Metadata: model.Metadata{SubActions: []model.SubAction{{Text: "practice", TaskMasterID: tm.ID}}}})

	_, err := svc.ToggleSubAction(ctx, model.CollectionSchedule, routine.ID, "practice")
	require.NoError(t, err)

	want := []string{"2026-10-15 @ 09:30"}
	got, err := s.Get(ctx, model.CollectionSchedule, follower.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got.Metadata.CompletedDates, "completion reaches items that reference the task-master item")

	_, err = svc.ToggleSubAction(ctx, model.CollectionSchedule, follower.ID, "scales")
	require.NoError(t, err)

	master, err := s.Get(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, want, master.Metadata.CompletedDates)
	assert.Equal(t, 1, master.Metadata.Streak)
}

func TestPlainSubActionToggleStaysLocal(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Read",
		Recurrence: rec(model.RecurrenceDaily), DueDate: day("2026-10-15")})
	_, err := svc.SmartComplete(ctx, model.CollectionTaskMaster, tm.ID, false)
	require.NoError(t, err)

	// created after the completion, so its own ledger is still empty
	stale := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Reading",
		Metadata: model.Metadata{TaskMasterID: tm.ID, SubActions: []model.SubAction{{Text: "chapter 3"}}}})

	got, err := svc.ToggleSubAction(ctx, model.CollectionSchedule, stale.ID, "chapter 3")
	require.NoError(t, err)
	assert.Equal(t, []string{"chapter 3"}, got.Metadata.CompletedSubActions)

	master, err := s.Get(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-15 @ 09:30"}, master.Metadata.CompletedDates)
	require.NotNil(t, master.DueDate)
	assert.Equal(t, *day("2026-10-16"), *master.DueDate)
}

func TestOneOffCompletionCompletesLinkedSubActions(t *testing.T) {
	svc, s, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "File taxes"})
	done := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Already filed"})
	errand := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Paperwork",
		Metadata: model.Metadata{
			SubActions: []model.SubAction{
				{Text: "taxes", TaskMasterID: tm.ID},
				{Text: "receipts", TaskMasterID: done.ID},
				{Text: "shred"},
			},
			CompletedSubActions: []string{"receipts"},
		}})

	got, err := svc.SmartComplete(ctx, model.CollectionSchedule, errand.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	linked, err := s.Get(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, linked.Status)
	assert.Equal(t, []string{"2026-10-15 @ 09:30"}, linked.Metadata.CompletedDates)

	prior, err := s.Get(ctx, model.CollectionTaskMaster, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, prior.Status, "sub-actions done before the completion are not replayed")
}

func TestLoadTemplate(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	tmpl := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Morning routine",
		Recurrence: rec(model.RecurrenceDaily),
		Metadata: model.Metadata{
			IsTemplate:          true,
			Tags:                []string{"health"},
			CompletedDates:      []string{"2026-10-01 @ 07:00"},
			Streak:              1,
			CompletedSubActions: []string{"stretch"},
			SubActions:          []model.SubAction{{Text: "stretch"}},
		}})
	create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Existing", DueDate: day("2026-10-20")})

	loaded, err := svc.LoadTemplate(ctx, model.CollectionSchedule, nil, *day("2026-10-20"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	it := loaded[0]
	assert.NotEqual(t, tmpl.ID, it.ID)
	assert.False(t, it.Metadata.IsTemplate)
	assert.Empty(t, it.Metadata.CompletedDates)
	assert.Empty(t, it.Metadata.CompletedSubActions)
	assert.Zero(t, it.Metadata.Streak)
	assert.Equal(t, []string{"health"}, it.Metadata.Tags)
	assert.Equal(t, "2026-10-20", it.Bucket)
	assert.Equal(t, 2000.0, it.Position)

	items, err := svc.List(ctx, model.CollectionSchedule, view.Options{})
	require.NoError(t, err)
	assert.Len(t, items, 2, "templates are not listed")

	templates, err := svc.Templates(ctx, model.CollectionSchedule)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	_, err = svc.LoadTemplate(ctx, model.CollectionSchedule, []string{"missing"}, now)
	assert.Equal(t, planner.KindNotFound, planner.Classify(err))
}

func TestArchiveRestoreDelete(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	it := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "x"})

	archived, err := svc.Archive(ctx, model.CollectionTaskMaster, it.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)

	list, err := svc.List(ctx, model.CollectionTaskMaster, view.Options{Status: view.StatusAll})
	require.NoError(t, err)
	assert.Empty(t, list)

	restored, err := svc.Restore(ctx, model.CollectionTaskMaster, it.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, restored.Status)

	require.NoError(t, svc.Delete(ctx, model.CollectionTaskMaster, it.ID))
	_, err = svc.Get(ctx, model.CollectionTaskMaster, it.ID)
	assert.Equal(t, planner.KindNotFound, planner.Classify(err))
	assert.Equal(t, "Item not found", planner.ResultOf(err).Message)
}

func TestErrorsClassified(t *testing.T) {
	svc, _, _ := newService(t, nil)

	_, err := svc.Get(context.Background(), model.CollectionSchedule, "x")
	assert.Equal(t, planner.KindAuthRequired, planner.Classify(err))
	assert.Equal(t, "Please sign in to continue", planner.ResultOf(err).Message)

	_, err = svc.Get(testutil.UserContext("alice"), model.Collection("notes"), "x")
	assert.Equal(t, planner.KindInvalid, planner.Classify(err))

	assert.True(t, planner.ResultOf(nil).Success)
}

func TestCalendar(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	it := create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Run",
		Recurrence: rec(model.RecurrenceDaily), DueDate: day("2026-10-01")})
	_, err := svc.SmartComplete(ctx, model.CollectionSchedule, it.ID, false)
	require.NoError(t, err)

	cells, err := svc.Calendar(ctx, model.CollectionSchedule, it.ID, now)
	require.NoError(t, err)
	require.Len(t, cells, 31)
	assert.Equal(t, "done", string(cells[14].State))
}

func TestLinks(t *testing.T) {
	svc, _, ctx := newService(t, nil)
	tm := create(t, svc, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "Goal"})
	create(t, svc, ctx, model.Item{Collection: model.CollectionSchedule, Title: "Step",
		Metadata: model.Metadata{TaskMasterID: tm.ID}})

	links, err := svc.Links(ctx, model.CollectionTaskMaster, tm.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Step", links[0].ScheduleTitle)
}
