package app

import (
	"slices"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/view"
)

// State is the serializable state of the list screen. Items is the
// optimistic copy; a reload replaces it with what the store holds.
type State struct {
	Collection model.Collection `json:"collection"`
	Options    view.Options     `json:"options"`
	Items      []model.Item     `json:"items"`
	Cursor     int              `json:"cursor"`
	Toast      string           `json:"toast,omitempty"`
	Loading    bool             `json:"loading"`
}

// NewState returns the initial state for coll.
func NewState(coll model.Collection) State {
	return State{
		Collection: coll,
		Options:    view.Options{Status: view.StatusAll, Sort: view.SortManual},
	}
}

// Selected returns the item under the cursor.
func (s State) Selected() (model.Item, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Items) {
		return model.Item{}, false
	}
	return s.Items[s.Cursor], true
}

func (s State) indexOf(id string) int {
	return slices.IndexFunc(s.Items, func(it model.Item) bool { return it.ID == id })
}

// replace swaps in an updated item and re-runs the view pipeline so items
// that no longer match the filter drop out. The cursor stays on the item
// when it is still visible.
func (s *State) replace(it model.Item) {
	i := s.indexOf(it.ID)
	if i < 0 {
		return
	}
	items := slices.Clone(s.Items)
	items[i] = it
	s.setItems(items, it.ID)
}

// setItems runs items through the view pipeline and keeps the cursor on
// focusID if present.
func (s *State) setItems(items []model.Item, focusID string) {
	items = view.Apply(items, s.Options)
	if s.Options.FavoritesView {
		items = view.FavoritesOnly(items)
	}
	s.Items = items
	if i := s.indexOf(focusID); i >= 0 {
		s.Cursor = i
	}
	s.clamp()
}

func (s *State) clamp() {
	s.Cursor = min(s.Cursor, len(s.Items)-1)
	s.Cursor = max(s.Cursor, 0)
}

// swap moves the item at i by offset within the local list when the
// neighbour shares its bucket. It reports whether anything moved.
func (s *State) swap(i, offset int) bool {
	j := i + offset
	if i < 0 || j < 0 || j >= len(s.Items) {
		return false
	}
	if s.Items[i].Bucket != s.Items[j].Bucket {
		return false
	}
	items := slices.Clone(s.Items)
	items[i], items[j] = items[j], items[i]
	items[i].Position, items[j].Position = items[j].Position, items[i].Position
	s.Items = items
	s.Cursor = j
	return true
}
