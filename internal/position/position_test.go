package position

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func entries(ids ...string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Position: float64(i+1) * Increment}
	}
	return out
}

func ids(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestInsertBetween(t *testing.T) {
	assert.Equal(t, 1000.0, InsertBetween(nil, nil))
	assert.Equal(t, 3000.0, InsertBetween(ptr(2000), nil))
	assert.Equal(t, 1500.0, InsertBetween(ptr(1000), ptr(2000)))
	assert.Equal(t, 500.0, InsertBetween(nil, ptr(1000)))
	assert.Less(t, InsertBetween(nil, ptr(-5)), -5.0)
}

func TestSequencerCustomIncrement(t *testing.T) {
	s := Sequencer{Increment: 10}
	assert.Equal(t, 10.0, s.Append(nil))
	assert.Equal(t, 25.0, s.Append(ptr(15)))
}

func TestReorderMovesBetweenNeighbours(t *testing.T) {
	for _, strategy := range []Strategy{Indexed, Midpoint} {
		t.Run(strategy.String(), func(t *testing.T) {
			ordered, changed, err := New().Reorder(entries("A", "B", "C"), "C", "B", strategy)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "C", "B"}, ids(ordered))
			assert.NotEmpty(t, changed)

			readBack := slices.Clone(ordered)
			Sort(readBack)
			assert.Equal(t, []string{"A", "C", "B"}, ids(readBack))
		})
	}
}

func TestReorderMidpointWritesOnlyMovedEntry(t *testing.T) {
	ordered, changed, err := New().Reorder(entries("A", "B", "C"), "C", "B", Midpoint)
	require.NoError(t, err)

	require.Len(t, changed, 1)
	assert.Equal(t, "C", changed[0].ID)
	assert.Equal(t, 1500.0, changed[0].Position)
	assert.Equal(t, 1500.0, ordered[1].Position)
}

func TestReorderIndexedRewritesPositions(t *testing.T) {
	ordered, changed, err := New().Reorder(entries("A", "B", "C"), "A", "C", Indexed)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "A"}, ids(ordered))
	for i, e := range ordered {
		assert.Equal(t, float64(i), e.Position)
	}
	assert.Len(t, changed, 3)
}

func TestReorderToEdges(t *testing.T) {
	s := New()

	ordered, changed, err := s.Reorder(entries("A", "B", "C"), "C", "A", Midpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, ids(ordered))
	assert.Equal(t, 500.0, changed[0].Position)

	ordered, changed, err = s.Reorder(entries("A", "B", "C"), "A", "C", Midpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, ids(ordered))
	assert.Equal(t, 4000.0, changed[0].Position)
}

func TestReorderOntoSelfIsNoop(t *testing.T) {
	ordered, changed, err := New().Reorder(entries("A", "B"), "A", "A", Midpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(ordered))
	assert.Empty(t, changed)
}

func TestReorderUnknownID(t *testing.T) {
	_, _, err := New().Reorder(entries("A"), "Z", "A", Midpoint)
	assert.ErrorIs(t, err, ErrUnknownID)

	_, _, err = New().Reorder(entries("A"), "A", "Z", Midpoint)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestMoveClampsToBounds(t *testing.T) {
	ordered, _, err := New().Move(entries("A", "B", "C"), "A", -1, Midpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(ordered))

	ordered, _, err = New().Move(entries("A", "B", "C"), "B", 5, Midpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, ids(ordered))
}

func TestReorderSequencesReadBackInOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, strategy := range []Strategy{Indexed, Midpoint} {
		t.Run(strategy.String(), func(t *testing.T) {
			current := entries("a", "b", "c", "d", "e", "f", "g")
			for i := 0; i < 200; i++ {
				moved := current[r.Intn(len(current))].ID
				target := current[r.Intn(len(current))].ID

				next, _, err := New().Reorder(current, moved, target, strategy)
				require.NoError(t, err)

				readBack := slices.Clone(next)
				Sort(readBack)
				require.Equal(t, ids(next), ids(readBack), "step %d", i)
				current = next
			}
		})
	}
}

func TestMidpointRenormalizesBelowMinGap(t *testing.T) {
	s := Sequencer{Increment: Increment, MinGap: 1}
	tight := []Entry{{ID: "A", Position: 1}, {ID: "B", Position: 1.5}, {ID: "C", Position: 3}}

	ordered, changed, err := s.Reorder(tight, "C", "B", Midpoint)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C", "B"}, ids(ordered))
	assert.Equal(t, []float64{1000, 2000, 3000}, []float64{ordered[0].Position, ordered[1].Position, ordered[2].Position})
	assert.Len(t, changed, 3)
}

func TestRepeatedMidpointErodesWithoutMinGap(t *testing.T) {
	s := New()
	a, b := 1000.0, 2000.0
	for i := 0; i < 80; i++ {
		b = s.InsertBetween(&a, &b)
	}

	mid := s.InsertBetween(&a, &b)
	assert.False(t, mid > a && mid < b, "precision is exhausted after enough midpoint inserts")
}

func TestRenormalize(t *testing.T) {
	list := []Entry{{ID: "A", Position: 0}, {ID: "B", Position: 1}, {ID: "C", Position: 3000}}
	changed := New().Renormalize(list)

	assert.Equal(t, []float64{1000, 2000, 3000}, []float64{list[0].Position, list[1].Position, list[2].Position})
	assert.Equal(t, []string{"A", "B"}, ids(changed))
}
