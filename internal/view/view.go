// Package view filters and orders item lists for display.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nhle/planner/internal/model"
)

// StatusFilter narrows a list by lifecycle state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
	StatusArchive   StatusFilter = "archive"
)

// SortMethod selects the ordering of a list.
type SortMethod string

const (
	SortManual      SortMethod = "manual"
	SortAZ          SortMethod = "az"
	SortAlphaAsc    SortMethod = "alpha_asc"
	SortAlphaDesc   SortMethod = "alpha_desc"
	SortDateAsc     SortMethod = "date_asc"
	SortDateDesc    SortMethod = "date_desc"
	SortCreatedDesc SortMethod = "created_desc"
)

// sortCycle is the order Next steps through.
var sortCycle = []SortMethod{SortManual, SortAZ, SortAlphaDesc, SortDateAsc, SortDateDesc, SortCreatedDesc}

// ParseSort parses a sort method name. Empty input means manual.
func ParseSort(s string) (SortMethod, error) {
	m := SortMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return SortManual, nil
	case SortManual, SortAZ, SortAlphaAsc, SortAlphaDesc, SortDateAsc, SortDateDesc, SortCreatedDesc:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort method %q", s)
	}
}

// Next returns the sort method after m in the display cycle.
func (m SortMethod) Next() SortMethod {
	if m == SortAlphaAsc {
		m = SortAZ
	}
	i := slices.Index(sortCycle, m)
	return sortCycle[(i+1)%len(sortCycle)]
}

// ParseStatus parses a status filter name. Empty input means all.
func ParseStatus(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusActive, StatusCompleted, StatusArchive:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

// statusCycle is the order StatusFilter.Next steps through.
var statusCycle = []StatusFilter{StatusAll, StatusActive, StatusCompleted, StatusArchive}

// Next returns the status filter after f.
func (f StatusFilter) Next() StatusFilter {
	if f == "" {
		f = StatusAll
	}
	i := slices.Index(statusCycle, f)
	return statusCycle[(i+1)%len(statusCycle)]
}

// Options is the serializable filter and sort state of one view.
type Options struct {
	Status StatusFilter `json:"status" yaml:"status"`
	Tags   []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Search string       `json:"search,omitempty" yaml:"search,omitempty"`
	Sort   SortMethod   `json:"sort" yaml:"sort"`

	// FavoritesView disables pinning favorites to the top; the view is
	// already favorites only.
	FavoritesView bool `json:"favorites_view,omitempty" yaml:"favorites_view,omitempty"`

	// Locale is a BCP 47 tag for title collation. Empty means English.
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`
}

// Apply runs the pipeline: status filter, tag filter, search, sort,
// favorites first. The input slice is not modified.
func Apply(items []model.Item, opts Options) []model.Item {
	out := make([]model.Item, 0, len(items))
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	for _, it := range items {
		if !matchStatus(it, opts.Status) {
			continue
		}
		if !HasAllTags(it, opts.Tags) {
			continue
		}
		if search != "" && !Matches(it, search) {
			continue
		}
		out = append(out, it)
	}

	sortItems(out, opts)
	return out
}

// FavoritesOnly keeps favorited items.
func FavoritesOnly(items []model.Item) []model.Item {
	return slices.DeleteFunc(slices.Clone(items), func(it model.Item) bool {
		return !it.Metadata.IsFavorite
	})
}

func matchStatus(it model.Item, f StatusFilter) bool {
	if f == StatusArchive {
		return it.Status == model.StatusArchived
	}
	if it.Status == model.StatusArchived {
		return false
	}
	switch f {
	case StatusActive:
		return it.Status == model.StatusActive
	case StatusCompleted:
		return it.Status == model.StatusCompleted
	default:
		return true
	}
}

// itemTags returns the item's tags plus every sub-action tag.
func itemTags(it model.Item) []string {
	tags := slices.Clone(it.Metadata.Tags)
	for _, s := range it.Metadata.SubActions {
		tags = append(tags, s.Tags...)
	}
	return tags
}

// HasAllTags reports whether it carries every tag in want, comparing
// case-insensitively against item and sub-action tags.
func HasAllTags(it model.Item, want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := itemTags(it)
	for _, w := range want {
		if !slices.ContainsFunc(have, func(h string) bool { return strings.EqualFold(h, w) }) {
			return false
		}
	}
	return true
}

// Matches reports whether the lowercase query occurs in the item's title,
// content, tags, or any sub-action text or tag.
func Matches(it model.Item, query string) bool {
	query = strings.ToLower(query)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), query) }

	if contains(it.Title) || contains(it.Content) {
		return true
	}
	if slices.ContainsFunc(itemTags(it), contains) {
		return true
	}
	return slices.ContainsFunc(it.Metadata.SubActions, func(s model.SubAction) bool {
		return contains(s.Text)
	})
}

func collator(locale string) *collate.Collator {
	tag := language.English
	if locale != "" {
		if t, err := language.Parse(locale); err == nil {
			tag = t
		}
	}
	return collate.New(tag, collate.IgnoreCase)
}

func sortItems(items []model.Item, opts Options) {
	var byMethod func(a, b model.Item) int

	switch opts.Sort {
	case SortAZ, SortAlphaAsc, SortAlphaDesc:
		c := collator(opts.Locale)
		byMethod = func(a, b model.Item) int { return c.CompareString(a.Title, b.Title) }
		if opts.Sort == SortAlphaDesc {
			byMethod = func(a, b model.Item) int { return c.CompareString(b.Title, a.Title) }
		}
	case SortDateAsc:
		byMethod = func(a, b model.Item) int { return a.EffectiveDate().Compare(b.EffectiveDate()) }
	case SortDateDesc:
		byMethod = func(a, b model.Item) int { return b.EffectiveDate().Compare(a.EffectiveDate()) }
	case SortCreatedDesc:
		byMethod = func(a, b model.Item) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		byMethod = func(a, b model.Item) int { return cmp.Compare(a.Position, b.Position) }
	}

	slices.SortStableFunc(items, func(a, b model.Item) int {
		if !opts.FavoritesView && a.Metadata.IsFavorite != b.Metadata.IsFavorite {
			if a.Metadata.IsFavorite {
				return -1
			}
			return 1
		}
		return byMethod(a, b)
	})
}
