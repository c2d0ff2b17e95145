// Package planner implements the user actions on schedule and task-master
// items. Every action is a read-modify-write against the store; link
// propagation runs afterwards on the sync dispatcher and never fails the
// action.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/planner/internal/crossref"
	"github.com/nhle/planner/internal/ledger"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/position"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/sync"
	"github.com/nhle/planner/internal/view"
)

// Service carries out planner actions for the user in the context.
type Service struct {
	store      store.Store
	seq        position.Sequencer
	eval       recurrence.Evaluator
	syncer     *crossref.Syncer
	dispatcher *sync.Dispatcher
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Service. A nil dispatcher runs link propagation inline,
// still without surfacing its errors.
func New(s store.Store, d *sync.Dispatcher, cfg *model.AppConfig, log zerolog.Logger) (*Service, error) {
	eval, err := recurrence.New(cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("configuring calendar: %w", err)
	}

	seq := position.Sequencer{Increment: cfg.Positions.Increment}
	if cfg.Positions.AutoRenormalize {
		seq.MinGap = cfg.Positions.MinGap
	}

	return &Service{
		store:      s,
		seq:        seq,
		eval:       eval,
		syncer:     crossref.NewSyncer(s, eval, log),
		dispatcher: d,
		log:        log.With().Str("component", "planner").Logger(),
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source used for completions and templates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.syncer.SetClock(now)
}

// Evaluator returns the recurrence evaluator the service uses.
func (s *Service) Evaluator() recurrence.Evaluator {
	return s.eval
}

func checkCollection(coll model.Collection) error {
	if !coll.Valid() {
		return invalid("unknown collection %q", coll)
	}
	return nil
}

// defaultBucket groups schedule items by day and task-master items by kind.
func defaultBucket(it model.Item) string {
	if it.Bucket != "" {
		return it.Bucket
	}
	if it.Collection == model.CollectionSchedule && it.DueDate != nil {
		return ledger.DayKey(*it.DueDate)
	}
	if it.Collection == model.CollectionTaskMaster {
		return string(it.Metadata.Kind)
	}
	return ""
}

// Create inserts a new item at the end of its bucket.
func (s *Service) Create(ctx context.Context, it model.Item) (*model.Item, error) {
	if err := checkCollection(it.Collection); err != nil {
		return nil, err
	}

	it.Bucket = defaultBucket(it)
	if it.Position == 0 {
		last, err := s.store.LastPosition(ctx, it.Collection, it.Bucket)
		if err != nil {
			return nil, wrap("create", err)
		}
		it.Position = s.seq.Append(last)
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = s.now().UTC()
	}

	created, err := s.store.Insert(ctx, it)
	if err != nil {
		return nil, wrap("create", err)
	}
	s.log.Debug().Str("collection", string(created.Collection)).Str("id", created.ID).Msg("created item")
	return created, nil
}

// Get loads a single item.
func (s *Service) Get(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	it, err := s.store.Get(ctx, coll, id)
	if err != nil {
		return nil, wrap("get", err)
	}
	return it, nil
}

// Update writes an edited item back. Field edits are not propagated.
func (s *Service) Update(ctx context.Context, it model.Item) error {
	if err := checkCollection(it.Collection); err != nil {
		return err
	}
	return wrap("update", s.store.Update(ctx, it))
}

// Edit applies a partial update.
func (s *Service) Edit(ctx context.Context, coll model.Collection, id string, p store.Patch) (*model.Item, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	if err := s.store.Patch(ctx, coll, id, p); err != nil {
		return nil, wrap("edit", err)
	}
	it, err := s.store.Get(ctx, coll, id)
	if err != nil {
		return nil, wrap("edit", err)
	}
	if p.Status != nil {
		s.propagate(ctx, *it)
	}
	return it, nil
}

// List returns the non-template items of a collection run through the
// view pipeline.
func (s *Service) List(ctx context.Context, coll model.Collection, opts view.Options) ([]model.Item, error) {
	items, err := s.all(ctx, coll)
	if err != nil {
		return nil, wrap("list", err)
	}
	regular := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !it.Metadata.IsTemplate {
			regular = append(regular, it)
		}
	}
	return view.Apply(regular, opts), nil
}

// Templates returns the template items of a collection in manual order.
func (s *Service) Templates(ctx context.Context, coll model.Collection) ([]model.Item, error) {
	items, err := s.all(ctx, coll)
	if err != nil {
		return nil, wrap("list templates", err)
	}
	var templates []model.Item
	for _, it := range items {
		if it.Metadata.IsTemplate {
			templates = append(templates, it)
		}
	}
	return templates, nil
}

func (s *Service) all(ctx context.Context, coll model.Collection) ([]model.Item, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	return s.store.Query(ctx, store.Filter{Collection: coll})
}

// Tags lists the tags in use, for tag pickers.
func (s *Service) Tags(ctx context.Context, coll model.Collection) ([]string, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	tags, err := s.store.Tags(ctx, coll)
	return tags, wrap("tags", err)
}

// Archive soft-deletes an item.
func (s *Service) Archive(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	return s.setStatus(ctx, coll, id, model.StatusArchived, "archive")
}

// Void marks an item abandoned. Voiding a task-master item archives the
// schedule items linked to it.
func (s *Service) Void(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	return s.setStatus(ctx, coll, id, model.StatusVoided, "void")
}

// Restore returns an archived or voided item to active.
func (s *Service) Restore(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	return s.setStatus(ctx, coll, id, model.StatusActive, "restore")
}

func (s *Service) setStatus(ctx context.Context, coll model.Collection, id string, status model.Status, op string) (*model.Item, error) {
	return s.mutate(ctx, coll, id, op, func(it model.Item) (model.Item, error) {
		it.Status = status
		return it, nil
	})
}

// Delete permanently removes an item. Items linking to it are left with a
// dangling reference.
func (s *Service) Delete(ctx context.Context, coll model.Collection, id string) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	return wrap("delete", s.store.Delete(ctx, coll, id))
}

// Calendar returns the completion calendar of an item for the month
// containing month.
func (s *Service) Calendar(ctx context.Context, coll model.Collection, id string, month time.Time) ([]recurrence.Cell, error) {
	it, err := s.Get(ctx, coll, id)
	if err != nil {
		return nil, err
	}
	return s.eval.Calendar(*it, month, s.now()), nil
}

// Links lists the cross-collection links of an item.
func (s *Service) Links(ctx context.Context, coll model.Collection, id string) ([]model.Link, error) {
	it, err := s.Get(ctx, coll, id)
	if err != nil {
		return nil, err
	}
	links, err := s.syncer.Links(ctx, *it)
	return links, wrap("links", err)
}

// mutate loads an item, applies fn and writes the result back, then
// schedules link propagation.
func (s *Service) mutate(
	ctx context.Context,
	coll model.Collection,
	id, op string,
	fn func(model.Item) (model.Item, error),
) (*model.Item, error) {
	updated, err := s.mutateLocal(ctx, coll, id, op, fn)
	if err != nil {
		return updated, err
	}
	s.propagate(ctx, *updated)
	return updated, nil
}

// mutateLocal is mutate without link propagation.
func (s *Service) mutateLocal(
	ctx context.Context,
	coll model.Collection,
	id, op string,
	fn func(model.Item) (model.Item, error),
) (*model.Item, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, coll, id)
	if err != nil {
		return nil, wrap(op, err)
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return current, wrap(op, err)
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, wrap(op, err)
	}
	return &updated, nil
}

// propagate schedules link sync for it. It never blocks on the sync and
// never returns its error.
func (s *Service) propagate(ctx context.Context, it model.Item) {
	if it.Collection == model.CollectionSchedule && it.Metadata.TaskMasterID == "" {
		return
	}

	job := sync.Job{
		Name: fmt.Sprintf("propagate %s/%s", it.Collection, it.ID),
		Ctx:  ctx,
		Run: func(ctx context.Context) error {
			return s.syncer.Propagate(ctx, it)
		},
	}
	s.dispatch(job)
}

func (s *Service) dispatch(job sync.Job) {
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(job)
		return
	}
	if err := job.Run(context.WithoutCancel(job.Ctx)); err != nil {
		s.log.Error().Err(err).Str("job", job.Name).Msg("link sync failed")
	}
}
