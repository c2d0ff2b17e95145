package model

import "time"

// Collection identifies one of the two physically separate item tables.
type Collection string

const (
	// CollectionSchedule holds personal daily-schedule items.
	CollectionSchedule Collection = "schedule"

	// CollectionTaskMaster holds Task Master protocol items.
	CollectionTaskMaster Collection = "taskmaster"
)

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	return c == CollectionSchedule || c == CollectionTaskMaster
}

// Other returns the collection on the opposite side of a cross-collection link.
func (c Collection) Other() Collection {
	if c == CollectionSchedule {
		return CollectionTaskMaster
	}
	return CollectionSchedule
}

// Status is the lifecycle state of an item.
type Status string

// Item status constants. One-off items use active/completed only;
// archived and voided are terminal soft-delete states.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
	StatusVoided    Status = "voided"
)

// Terminal reports whether s is a soft-delete state.
func (s Status) Terminal() bool {
	return s == StatusArchived || s == StatusVoided
}

// Recurrence is the fixed set of recurrence policies.
type Recurrence string

const (
	RecurrenceOneOff    Recurrence = "one_off"
	RecurrenceDaily     Recurrence = "daily"
	RecurrenceWeekly    Recurrence = "weekly"
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
)

// ParseRecurrence converts a stored string into a recurrence pointer.
// Empty input yields nil (no recurrence).
func ParseRecurrence(s string) *Recurrence {
	if s == "" {
		return nil
	}
	r := Recurrence(s)
	return &r
}

// Item is the shared shape of schedule and task-master rows.
type Item struct {
	ID         string      `json:"id" db:"id"`
	UserID     string      `json:"user_id" db:"user_id"`
	Collection Collection  `json:"collection" db:"-"`
	Title      string      `json:"title" db:"title"`
	Content    string      `json:"content" db:"content"`
	Status     Status      `json:"status" db:"status"`
	Recurrence *Recurrence `json:"recurrence,omitempty" db:"recurrence"`

	// DueDate is a date-only value in local time. For recurring items it is
	// the next expected completion date.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// Position orders siblings that share a Bucket. Values are not
	// required to be contiguous or integral.
	Position float64 `json:"position" db:"position"`
	Bucket   string  `json:"bucket" db:"bucket"`

	Metadata  Metadata  `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRecurring reports whether the item follows a recurring cycle.
// A nil recurrence and one_off are both non-recurring.
func (it Item) IsRecurring() bool {
	return it.Recurrence != nil && *it.Recurrence != RecurrenceOneOff
}

// RecurrenceOrOneOff returns the effective recurrence policy.
func (it Item) RecurrenceOrOneOff() Recurrence {
	if it.Recurrence == nil {
		return RecurrenceOneOff
	}
	return *it.Recurrence
}

// EffectiveDate is the due date, falling back to the creation date.
func (it Item) EffectiveDate() time.Time {
	if it.DueDate != nil {
		return *it.DueDate
	}
	return it.CreatedAt
}

// Clone returns a deep copy so callers can mutate without aliasing
// slices shared with the original.
func (it Item) Clone() Item {
	out := it
	if it.Recurrence != nil {
		r := *it.Recurrence
		out.Recurrence = &r
	}
	if it.DueDate != nil {
		d := *it.DueDate
		out.DueDate = &d
	}
	out.Metadata = it.Metadata.Clone()
	return out
}
