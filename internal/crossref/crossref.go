// Package crossref keeps schedule items and the task-master items they
// reference in step. A link is the task_master_id value in a schedule
// item's metadata (or in one of its sub-actions); there is no link table.
package crossref

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/store"
)

// LinkField is the metadata key holding a schedule item's link.
const LinkField = "task_master_id"

// Fragment is the subset of an item copied onto the other side of a link.
type Fragment struct {
	Status         model.Status
	CompletedDates []string
	Streak         int
	DueDate        *time.Time
}

// FragmentOf extracts the propagated fields of it.
func FragmentOf(it model.Item) Fragment {
	f := Fragment{
		Status:         it.Status,
		CompletedDates: slices.Clone(it.Metadata.CompletedDates),
		Streak:         it.Metadata.Streak,
	}
	if it.DueDate != nil {
		d := *it.DueDate
		f.DueDate = &d
	}
	return f
}

// MapStatus translates a status for the opposite collection. Voiding a
// task-master item archives the schedule items that reference it.
func MapStatus(src model.Collection, s model.Status) model.Status {
	if src == model.CollectionTaskMaster && s == model.StatusVoided {
		return model.StatusArchived
	}
	return s
}

// Apply returns a copy of target carrying the fragment. A nil due date
// leaves the target's own due date in place.
func (f Fragment) Apply(src model.Collection, target model.Item) model.Item {
	out := target.Clone()
	out.Status = MapStatus(src, f.Status)
	out.Metadata.CompletedDates = slices.Clone(f.CompletedDates)
	out.Metadata.Streak = f.Streak
	if f.DueDate != nil {
		d := *f.DueDate
		out.DueDate = &d
	}
	return out
}

// ExtractTaskMasterIDs returns the task-master ids referenced by it and
// its sub-actions, deduplicated in order of first occurrence.
func ExtractTaskMasterIDs(it model.Item) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	add(it.Metadata.TaskMasterID)
	for _, s := range it.Metadata.SubActions {
		add(s.TaskMasterID)
	}
	return ids
}

// Syncer propagates changes across the soft link.
type Syncer struct {
	store store.Store
	eval  recurrence.Evaluator
	log   zerolog.Logger
	now   func() time.Time
}

// NewSyncer creates a Syncer writing through s.
func NewSyncer(s store.Store, eval recurrence.Evaluator, log zerolog.Logger) *Syncer {
	return &Syncer{
		store: s,
		eval:  eval,
		log:   log.With().Str("component", "crossref").Logger(),
		now:   time.Now,
	}
}

// Propagate copies src's fragment onto every item linked to it in the
// other collection. Missing targets are skipped; a deleted link target
// is not an error.
func (s *Syncer) Propagate(ctx context.Context, src model.Item) error {
	targets, err := s.targets(ctx, src)
	if err != nil {
		return err
	}

	frag := FragmentOf(src)
	other := src.Collection.Other()

	var errs []error
	for _, target := range targets {
		updated := frag.Apply(src.Collection, target)
		err := s.store.Patch(ctx, other, target.ID, store.Patch{
			Status:   &updated.Status,
			DueDate:  updated.DueDate,
			Metadata: &updated.Metadata,
		})
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("propagating %s/%s to %s/%s: %w",
				src.Collection, src.ID, other, target.ID, err))
			continue
		}
		s.log.Debug().
			Str("from", string(src.Collection)+"/"+src.ID).
			Str("to", string(other)+"/"+target.ID).
			Str("status", string(updated.Status)).
			Msg("propagated link")
	}
	return errors.Join(errs...)
}

// targets finds the items on the other side of src's link.
func (s *Syncer) targets(ctx context.Context, src model.Item) ([]model.Item, error) {
	switch src.Collection {
	case model.CollectionTaskMaster:
		items, err := s.store.FindByMetadata(ctx, model.CollectionSchedule, LinkField, src.ID)
		if err != nil {
			return nil, fmt.Errorf("finding items linked to %s: %w", src.ID, err)
		}
		return items, nil
	case model.CollectionSchedule:
		if src.Metadata.TaskMasterID == "" {
			return nil, nil
		}
		target, err := s.store.Get(ctx, model.CollectionTaskMaster, src.Metadata.TaskMasterID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading link target %s: %w", src.Metadata.TaskMasterID, err)
		}
		return []model.Item{*target}, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", src.Collection)
	}
}

// SetClock replaces the time source used for linked completions.
func (s *Syncer) SetClock(now func() time.Time) {
	s.now = now
}

// CompleteLinked smart-completes the task-master item a sub-action links
// to, then propagates it to the schedule items that reference it. A
// missing item returns nil, nil.
func (s *Syncer) CompleteLinked(ctx context.Context, taskMasterID string, bonus bool) (*model.Item, error) {
	target, err := s.store.Get(ctx, model.CollectionTaskMaster, taskMasterID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading linked item %s: %w", taskMasterID, err)
	}

	updated, outcome := s.eval.SmartComplete(*target, bonus, s.now())
	if outcome == recurrence.AlreadySatisfied {
		return &updated, nil
	}
	if err := s.store.Update(ctx, updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("completing linked item %s: %w", taskMasterID, err)
	}
	if err := s.Propagate(ctx, updated); err != nil {
		return &updated, err
	}
	return &updated, nil
}

// Links lists the links of it in either direction. For a schedule item
// this is its own link plus one per linked sub-action; unresolvable
// targets are reported as dangling. For a task-master item it is every
// schedule item whose metadata references it.
func (s *Syncer) Links(ctx context.Context, it model.Item) ([]model.Link, error) {
	if it.Collection == model.CollectionTaskMaster {
		items, err := s.store.FindByMetadata(ctx, model.CollectionSchedule, LinkField, it.ID)
		if err != nil {
			return nil, fmt.Errorf("querying links for %s: %w", it.ID, err)
		}
		links := make([]model.Link, 0, len(items))
		for _, sched := range items {
			links = append(links, model.Link{
				ScheduleID:      sched.ID,
				TaskMasterID:    it.ID,
				ScheduleTitle:   sched.Title,
				TaskMasterTitle: it.Title,
			})
		}
		return links, nil
	}

	var links []model.Link
	resolve := func(tmID, subAction string) error {
		link := model.Link{
			ScheduleID:    it.ID,
			TaskMasterID:  tmID,
			SubAction:     subAction,
			ScheduleTitle: it.Title,
		}
		target, err := s.store.Get(ctx, model.CollectionTaskMaster, tmID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			link.Dangling = true
		case err != nil:
			return fmt.Errorf("resolving link %s: %w", tmID, err)
		default:
			link.TaskMasterTitle = target.Title
		}
		links = append(links, link)
		return nil
	}

	if id := it.Metadata.TaskMasterID; id != "" {
		if err := resolve(id, ""); err != nil {
			return nil, err
		}
	}
	for _, sa := range it.Metadata.SubActions {
		if sa.TaskMasterID == "" {
			continue
		}
		if err := resolve(sa.TaskMasterID, sa.Text); err != nil {
			return nil, err
		}
	}
	return links, nil
}
