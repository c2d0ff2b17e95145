package planner

import (
	"context"
	"errors"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/position"
	"github.com/nhle/planner/internal/store"
)

// StrategyFor returns the reorder strategy used by a collection: the daily
// schedule persists the whole list by index, Task Master moves a single
// item to a midpoint.
func StrategyFor(coll model.Collection) position.Strategy {
	if coll == model.CollectionSchedule {
		return position.Indexed
	}
	return position.Midpoint
}

// siblings loads the non-archived items of a bucket in manual order.
func (s *Service) siblings(ctx context.Context, coll model.Collection, bucket string) ([]position.Entry, error) {
	items, err := s.store.Query(ctx, store.Filter{
		Collection: coll,
		Bucket:     &bucket,
		Statuses:   []model.Status{model.StatusActive, model.StatusCompleted, model.StatusVoided},
		SortBy:     "position",
	})
	if err != nil {
		return nil, err
	}

	entries := make([]position.Entry, 0, len(items))
	for _, it := range items {
		if it.Metadata.IsTemplate {
			continue
		}
		entries = append(entries, position.Entry{ID: it.ID, Position: it.Position})
	}
	position.Sort(entries)
	return entries, nil
}

// Reorder moves movedID onto targetID's slot within bucket and persists
// the changed positions.
func (s *Service) Reorder(ctx context.Context, coll model.Collection, bucket, movedID, targetID string) ([]position.Entry, error) {
	return s.reposition(ctx, coll, bucket, "reorder", func(entries []position.Entry) ([]position.Entry, []position.Entry, error) {
		return s.seq.Reorder(entries, movedID, targetID, StrategyFor(coll))
	})
}

// Move shifts movedID by offset slots within bucket, clamped to the ends.
func (s *Service) Move(ctx context.Context, coll model.Collection, bucket, movedID string, offset int) ([]position.Entry, error) {
	return s.reposition(ctx, coll, bucket, "move", func(entries []position.Entry) ([]position.Entry, []position.Entry, error) {
		return s.seq.Move(entries, movedID, offset, StrategyFor(coll))
	})
}

// Renormalize respaces every position in bucket at the configured
// increment, keeping the current order.
func (s *Service) Renormalize(ctx context.Context, coll model.Collection, bucket string) ([]position.Entry, error) {
	return s.reposition(ctx, coll, bucket, "renormalize", func(entries []position.Entry) ([]position.Entry, []position.Entry, error) {
		return entries, s.seq.Renormalize(entries), nil
	})
}

func (s *Service) reposition(
	ctx context.Context,
	coll model.Collection,
	bucket, op string,
	fn func([]position.Entry) ([]position.Entry, []position.Entry, error),
) ([]position.Entry, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	entries, err := s.siblings(ctx, coll, bucket)
	if err != nil {
		return nil, wrap(op, err)
	}

	ordered, changed, err := fn(entries)
	if errors.Is(err, position.ErrUnknownID) {
		return nil, wrap(op, ErrNotFound)
	}
	if err != nil {
		return nil, invalid("%s: %v", op, err)
	}
	if len(changed) == 0 {
		return ordered, nil
	}

	updates := make([]store.PositionUpdate, len(changed))
	for i, e := range changed {
		updates[i] = store.PositionUpdate{ID: e.ID, Position: e.Position}
	}
	if err := s.store.UpdatePositions(ctx, coll, updates); err != nil {
		return nil, wrap(op, err)
	}

	s.log.Debug().
		Str("collection", string(coll)).
		Str("bucket", bucket).
		Int("changed", len(changed)).
		Msg(op)
	return ordered, nil
}
