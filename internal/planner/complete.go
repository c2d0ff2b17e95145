package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/sync"
)

// SmartComplete records a completion. One-off items are marked completed;
// recurring items log a ledger entry and advance their due date unless
// the current cycle is already satisfied, in which case ErrAlreadySatisfied
// is returned with the unchanged item. bonus forces an extra entry.
// Linked sub-actions checked off by a one-off completion complete their
// task-master items as well.
func (s *Service) SmartComplete(ctx context.Context, coll model.Collection, id string, bonus bool) (*model.Item, error) {
	var (
		outcome recurrence.Outcome
		linked  []string
	)
	it, err := s.mutate(ctx, coll, id, "complete", func(it model.Item) (model.Item, error) {
		var updated model.Item
		updated, outcome = s.eval.SmartComplete(it, bonus, s.now())
		if outcome == recurrence.AlreadySatisfied {
			return it, ErrAlreadySatisfied
		}
		linked = newlyLinked(it, updated)
		return updated, nil
	})
	if err != nil {
		return it, err
	}
	for _, tmID := range linked {
		s.completeLinked(ctx, tmID)
	}

	s.log.Info().
		Str("collection", string(coll)).
		Str("id", id).
		Str("outcome", outcome.String()).
		Int("streak", it.Metadata.Streak).
		Msg("completed item")
	return it, nil
}

// newlyLinked returns the task-master ids of sub-actions completed between
// before and after, skipping the item's own link, which propagation
// already covers.
func newlyLinked(before, after model.Item) []string {
	var ids []string
	for _, sa := range after.Metadata.SubActions {
		switch {
		case sa.TaskMasterID == "",
			sa.TaskMasterID == after.Metadata.TaskMasterID,
			before.Metadata.SubActionDone(sa),
			!after.Metadata.SubActionDone(sa),
			slices.Contains(ids, sa.TaskMasterID):
			continue
		}
		ids = append(ids, sa.TaskMasterID)
	}
	return ids
}

// completeLinked schedules the smart-completion of a linked task-master item.
func (s *Service) completeLinked(ctx context.Context, tmID string) {
	s.dispatch(sync.Job{
		Name: fmt.Sprintf("complete linked %s", tmID),
		Ctx:  ctx,
		Run: func(ctx context.Context) error {
			_, err := s.syncer.CompleteLinked(ctx, tmID, false)
			return err
		},
	})
}

// Undo removes the most recent ledger entry. Undoing an item with an empty
// ledger is a no-op.
func (s *Service) Undo(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	return s.mutate(ctx, coll, id, "undo", func(it model.Item) (model.Item, error) {
		updated, _ := recurrence.Undo(it)
		return updated, nil
	})
}

// RemoveLedgerEntry deletes the ledger entry at index i.
func (s *Service) RemoveLedgerEntry(ctx context.Context, coll model.Collection, id string, i int) (*model.Item, error) {
	return s.mutate(ctx, coll, id, "remove entry", func(it model.Item) (model.Item, error) {
		updated, err := recurrence.RemoveEntry(it, i)
		if errors.Is(err, ledger.ErrIndexOutOfRange) {
			return it, invalid("ledger index %d out of range", i)
		}
		return updated, err
	})
}

// ToggleSubAction flips a sub-action's completion. Only the item's own
// completed sub-actions change. Checking off a sub-action that links to a
// task-master item also smart-completes that item; unchecking it leaves
// the linked item alone.
func (s *Service) ToggleSubAction(ctx context.Context, coll model.Collection, id, key string) (*model.Item, error) {
	var (
		toggled model.SubAction
		done    bool
	)
	it, err := s.mutateLocal(ctx, coll, id, "toggle sub-action", func(it model.Item) (model.Item, error) {
		updated, sa, now, err := recurrence.ToggleSubAction(it, key)
		if errors.Is(err, recurrence.ErrUnknownSubAction) {
			return it, invalid("unknown sub-action %q", key)
		}
		toggled, done = sa, now
		return updated, err
	})
	if err != nil {
		return it, err
	}

	if done && toggled.TaskMasterID != "" {
		s.completeLinked(ctx, toggled.TaskMasterID)
	}
	return it, nil
}
