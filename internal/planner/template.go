package planner

import (
	"context"
	"slices"
	"time"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
)

// instantiate turns a template into a fresh item due on date.
func instantiate(tmpl model.Item, date time.Time) model.Item {
	it := tmpl.Clone()
	it.ID = ""
	it.Status = model.StatusActive
	it.Position = 0
	it.Bucket = ""
	it.CreatedAt = time.Time{}
	it.UpdatedAt = time.Time{}

	due := recurrence.Day(date)
	it.DueDate = &due

	md := &it.Metadata
	md.IsTemplate = false
	md.CompletedDates = nil
	md.CompletedSubActions = nil
	md.Streak = 0
	return it
}

// LoadTemplate copies the named templates, or every template when ids is
// empty, into regular items due on date. Copies are appended after the
// existing items of their bucket in template order.
func (s *Service) LoadTemplate(ctx context.Context, coll model.Collection, ids []string, date time.Time) ([]model.Item, error) {
	templates, err := s.Templates(ctx, coll)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		templates = slices.DeleteFunc(templates, func(t model.Item) bool {
			return !slices.Contains(ids, t.ID)
		})
		if len(templates) == 0 {
			return nil, wrap("load template", ErrNotFound)
		}
	}
	slices.SortStableFunc(templates, func(a, b model.Item) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		default:
			return 0
		}
	})

	created := make([]model.Item, 0, len(templates))
	for _, tmpl := range templates {
		it, err := s.Create(ctx, instantiate(tmpl, date))
		if err != nil {
			return created, err
		}
		created = append(created, *it)
	}

	s.log.Info().
		Str("collection", string(coll)).
		Int("count", len(created)).
		Str("date", date.Format(time.DateOnly)).
		Msg("loaded templates")
	return created, nil
}
