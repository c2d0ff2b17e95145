package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/tests/testutil"
)

func insert(t *testing.T, s store.Store, ctx context.Context, it model.Item) *model.Item {
	t.Helper()
	out, err := s.Insert(ctx, it)
	require.NoError(t, err)
	return out
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	daily := model.RecurrenceDaily
	due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.Local)
	created := insert(t, s, ctx, model.Item{
		Collection: model.CollectionSchedule,
		Title:      "Stretch",
		Recurrence: &daily,
		DueDate:    &due,
		Position:   1000,
		Bucket:     "2026-10-15",
		Metadata: model.Metadata{
			Tags:           []string{"health"},
			CompletedDates: []string{"2026-10-14 @ 07:00"},
			Streak:         1,
			TaskMasterID:   "tm-1",
		},
	})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, model.StatusActive, created.Status)

	got, err := s.Get(ctx, model.CollectionSchedule, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stretch", got.Title)
	assert.Equal(t, model.CollectionSchedule, got.Collection)
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, model.RecurrenceDaily, *got.Recurrence)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-10-15", got.DueDate.Format("2006-01-02"))
	assert.Equal(t, []string{"2026-10-14 @ 07:00"}, got.Metadata.CompletedDates)
	assert.Equal(t, "tm-1", got.Metadata.TaskMasterID)
}

func TestRowsAreScopedToUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	alice := testutil.UserContext("alice")
	bob := testutil.UserContext("bob")

	it := insert(t, s, alice, model.Item{Collection: model.CollectionTaskMaster, Title: "private"})

	_, err := s.Get(bob, model.CollectionTaskMaster, it.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Delete(bob, model.CollectionTaskMaster, it.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	items, err := s.Query(bob, store.Filter{Collection: model.CollectionTaskMaster})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMissingUserIsRejected(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.Query(context.Background(), store.Filter{Collection: model.CollectionSchedule})
	assert.ErrorIs(t, err, auth.ErrAuthRequired)

	_, err = s.Insert(context.Background(), model.Item{Collection: model.CollectionSchedule})
	assert.ErrorIs(t, err, auth.ErrAuthRequired)
}

func TestQueryFiltersAndOrders(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	bucket := "b"
	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "C", Position: 3000, Bucket: bucket})
	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "A", Position: 1000, Bucket: bucket})
	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "B", Position: 2000, Bucket: bucket, Status: model.StatusArchived})
	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "other", Position: 10, Bucket: "x"})

	items, err := s.Query(ctx, store.Filter{Collection: model.CollectionTaskMaster, Bucket: &bucket})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{items[0].Title, items[1].Title, items[2].Title})

	items, err = s.Query(ctx, store.Filter{
		Collection: model.CollectionTaskMaster,
		Bucket:     &bucket,
		Statuses:   []model.Status{model.StatusActive},
		SortDesc:   true,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C", items[0].Title)

	items, err = s.Query(ctx, store.Filter{Collection: model.CollectionTaskMaster, IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPatchUpdatesOnlyGivenFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.Local)
	it := insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "walk", Content: "park", DueDate: &due})

	archived := model.StatusArchived
	require.NoError(t, s.Patch(ctx, model.CollectionSchedule, it.ID, store.Patch{Status: &archived, ClearDueDate: true}))

	got, err := s.Get(ctx, model.CollectionSchedule, it.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, got.Status)
	assert.Equal(t, "park", got.Content)
	assert.Nil(t, got.DueDate)

	err = s.Patch(ctx, model.CollectionSchedule, "missing", store.Patch{Status: &archived})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateOverwritesRow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	it := insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Title: "draft"})
	it.Title = "final"
	it.Metadata.Streak = 4
	require.NoError(t, s.Update(ctx, *it))

	got, err := s.Get(ctx, model.CollectionTaskMaster, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, 4, got.Metadata.Streak)

	it.ID = "missing"
	assert.ErrorIs(t, s.Update(ctx, *it), store.ErrNotFound)
}

func TestUpdatePositions(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	a := insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "A", Position: 1000})
	b := insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "B", Position: 2000})
	c := insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "C", Position: 3000})

	err := s.UpdatePositions(ctx, model.CollectionSchedule, []store.PositionUpdate{
		{ID: a.ID, Position: 0}, {ID: c.ID, Position: 1}, {ID: b.ID, Position: 2},
	})
	require.NoError(t, err)

	items, err := s.Query(ctx, store.Filter{Collection: model.CollectionSchedule})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, []string{items[0].Title, items[1].Title, items[2].Title})

	err = s.UpdatePositions(ctx, model.CollectionSchedule, []store.PositionUpdate{{ID: "gone", Position: 5}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindByMetadata(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "linked", Metadata: model.Metadata{TaskMasterID: "tm-1"}})
	insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Title: "other", Metadata: model.Metadata{TaskMasterID: "tm-2"}})
	insert(t, s, testutil.UserContext("bob"), model.Item{Collection: model.CollectionSchedule, Title: "bob's", Metadata: model.Metadata{TaskMasterID: "tm-1"}})

	items, err := s.FindByMetadata(ctx, model.CollectionSchedule, "task_master_id", "tm-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "linked", items[0].Title)

	items, err = s.FindByMetadata(ctx, model.CollectionSchedule, "task_master_id", "none")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.FindByMetadata(ctx, model.CollectionSchedule, "x'; DROP TABLE", "1")
	assert.Error(t, err)
}

func TestLastPosition(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	last, err := s.LastPosition(ctx, model.CollectionSchedule, "day")
	require.NoError(t, err)
	assert.Nil(t, last)

	insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Position: 1000, Bucket: "day"})
	insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Position: 2500, Bucket: "day"})
	insert(t, s, ctx, model.Item{Collection: model.CollectionSchedule, Position: 9000, Bucket: "other"})

	last, err = s.LastPosition(ctx, model.CollectionSchedule, "day")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 2500.0, *last)
}

func TestTags(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.UserContext("alice")

	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Metadata: model.Metadata{Tags: []string{"work", "Urgent"}}})
	insert(t, s, ctx, model.Item{Collection: model.CollectionTaskMaster, Metadata: model.Metadata{
		Tags:       []string{"Urgent", " "},
		SubActions: []model.SubAction{{Text: "call", Tags: []string{"phone"}}},
	}})

	tags, err := s.Tags(ctx, model.CollectionTaskMaster)
	require.NoError(t, err)
	assert.Equal(t, []string{"phone", "Urgent", "work"}, tags)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(model.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	_, err = store.Open(model.DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err, "empty dsn")
}
