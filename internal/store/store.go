package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/planner/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist for the
// calling user.
var ErrNotFound = errors.New("not found")

// Filter controls filtering and ordering for item queries. Filtering on
// free-form metadata is done by FindByMetadata; richer view filtering
// happens in memory.
type Filter struct {
	Collection model.Collection
	Statuses   []model.Status // nil (all)
	Bucket     *string        // sibling group, or nil (all)
	IDs        []string       // restrict to these ids, or nil (all)
	SortBy     string         // "position", "created_at", "updated_at", "due_date", "title"
	SortDesc   bool
	Limit      int
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title           *string
	Content         *string
	Status          *model.Status
	Recurrence      *model.Recurrence
	ClearRecurrence bool
	DueDate         *time.Time
	ClearDueDate    bool
	Position        *float64
	Bucket          *string
	Metadata        *model.Metadata
}

// PositionUpdate is one row of a batch position write.
type PositionUpdate struct {
	ID       string
	Position float64
}

// Store defines the persistence contract for schedule and task-master
// items. Every call is scoped to the user carried by the context.
type Store interface {
	Query(ctx context.Context, f Filter) ([]model.Item, error)
	Get(ctx context.Context, coll model.Collection, id string) (*model.Item, error)
	Insert(ctx context.Context, item model.Item) (*model.Item, error)
	Update(ctx context.Context, item model.Item) error
	Patch(ctx context.Context, coll model.Collection, id string, p Patch) error
	Delete(ctx context.Context, coll model.Collection, id string) error

	// UpdatePositions writes each row independently. A failure leaves
	// the rows already written in place.
	UpdatePositions(ctx context.Context, coll model.Collection, updates []PositionUpdate) error

	// FindByMetadata returns rows whose metadata key equals value, such
	// as schedule items with task_master_id == X.
	FindByMetadata(ctx context.Context, coll model.Collection, key, value string) ([]model.Item, error)

	// LastPosition returns the largest position in bucket, or nil when
	// the bucket is empty.
	LastPosition(ctx context.Context, coll model.Collection, bucket string) (*float64, error)

	// Tags returns every distinct tag used in the collection.
	Tags(ctx context.Context, coll model.Collection) ([]string, error)

	Close() error
}
