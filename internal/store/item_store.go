package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/planner/internal/model"
)

const itemColumns = `id, user_id, title, content, status, recurrence, due_date,
	position, bucket, metadata, created_at, updated_at`

const dueDateLayout = "2006-01-02"

// itemRow is the storage shape of an item.
type itemRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Title      string         `db:"title"`
	Content    string         `db:"content"`
	Status     string         `db:"status"`
	Recurrence sql.NullString `db:"recurrence"`
	DueDate    sql.NullString `db:"due_date"`
	Position   float64        `db:"position"`
	Bucket     string         `db:"bucket"`
	Metadata   string         `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r itemRow) toItem(coll model.Collection) (model.Item, error) {
	it := model.Item{
		ID:         r.ID,
		UserID:     r.UserID,
		Collection: coll,
		Title:      r.Title,
		Content:    r.Content,
		Status:     model.Status(r.Status),
		Position:   r.Position,
		Bucket:     r.Bucket,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Recurrence.Valid {
		it.Recurrence = model.ParseRecurrence(r.Recurrence.String)
	}
	if r.DueDate.Valid && r.DueDate.String != "" {
		d, err := time.ParseInLocation(dueDateLayout, r.DueDate.String, time.Local)
		if err != nil {
			return model.Item{}, fmt.Errorf("parsing due_date of %s: %w", r.ID, err)
		}
		it.DueDate = &d
	}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &it.Metadata); err != nil {
			return model.Item{}, fmt.Errorf("unmarshaling metadata of %s: %w", r.ID, err)
		}
	}
	return it, nil
}

func nullRecurrence(r *model.Recurrence) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dueDateLayout), Valid: true}
}

func marshalMetadata(m model.Metadata) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

// selectItems runs query and converts every row. Rows are fully read
// before conversion so no cursor stays open.
func (s *SQLStore) selectItems(ctx context.Context, coll model.Collection, query string, args ...any) ([]model.Item, error) {
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.toItem(coll)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

var allowedSorts = map[string]string{
	"position":   "position",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"title":      "title",
}

// Query retrieves the caller's items matching f.
func (s *SQLStore) Query(ctx context.Context, f Filter) ([]model.Item, error) {
	userID, table, err := scope(ctx, f.Collection)
	if err != nil {
		return nil, err
	}

	conditions := []string{"user_id = ?"}
	args := []any{userID}

	if len(f.Statuses) > 0 {
		conditions = append(conditions, "status IN (?)")
		args = append(args, f.Statuses)
	}
	if f.Bucket != nil {
		conditions = append(conditions, "bucket = ?")
		args = append(args, *f.Bucket)
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return nil, nil
		}
		conditions = append(conditions, "id IN (?)")
		args = append(args, f.IDs)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", itemColumns, table, strings.Join(conditions, " AND "))

	sortBy := "position"
	if col, ok := allowedSorts[f.SortBy]; ok {
		sortBy = col
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, created_at ASC, id ASC", sortBy, direction)

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expanding %s query: %w", f.Collection, err)
	}

	items, err := s.selectItems(ctx, f.Collection, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", f.Collection, err)
	}
	return items, nil
}

// Get retrieves a single item by id.
func (s *SQLStore) Get(ctx context.Context, coll model.Collection, id string) (*model.Item, error) {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return nil, err
	}

	items, err := s.selectItems(ctx, coll,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND user_id = ?", itemColumns, table),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting %s item %s: %w", coll, id, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("getting %s item %s: %w", coll, id, ErrNotFound)
	}
	return &items[0], nil
}

// Insert creates a new item owned by the caller. Generates a UUID if ID is
// empty and defaults the status to active.
func (s *SQLStore) Insert(ctx context.Context, item model.Item) (*model.Item, error) {
	userID, table, err := scope(ctx, item.Collection)
	if err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.UserID = userID
	if item.Status == "" {
		item.Status = model.StatusActive
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(`
		INSERT INTO %s (
			id, user_id, title, content, status, recurrence, due_date,
			position, bucket, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)),
		item.ID, item.UserID, item.Title, item.Content, string(item.Status),
		nullRecurrence(item.Recurrence), nullDate(item.DueDate),
		item.Position, item.Bucket, metadata, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s item: %w", item.Collection, err)
	}
	return &item, nil
}

// Update overwrites every mutable column of an existing item. There is no
// version check: the last write wins.
func (s *SQLStore) Update(ctx context.Context, item model.Item) error {
	userID, table, err := scope(ctx, item.Collection)
	if err != nil {
		return err
	}

	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(`
		UPDATE %s SET
			title = ?, content = ?, status = ?, recurrence = ?, due_date = ?,
			position = ?, bucket = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`, table)),
		item.Title, item.Content, string(item.Status),
		nullRecurrence(item.Recurrence), nullDate(item.DueDate),
		item.Position, item.Bucket, metadata, time.Now().UTC(),
		item.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating %s item %s: %w", item.Collection, item.ID, err)
	}
	return expectRow(result, "updating", item.Collection, item.ID)
}

// Patch updates only the fields set in p.
func (s *SQLStore) Patch(ctx context.Context, coll model.Collection, id string, p Patch) error {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Content != nil {
		set("content", *p.Content)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	switch {
	case p.ClearRecurrence:
		set("recurrence", sql.NullString{})
	case p.Recurrence != nil:
		set("recurrence", nullRecurrence(p.Recurrence))
	}
	switch {
	case p.ClearDueDate:
		set("due_date", sql.NullString{})
	case p.DueDate != nil:
		set("due_date", nullDate(p.DueDate))
	}
	if p.Position != nil {
		set("position", *p.Position)
	}
	if p.Bucket != nil {
		set("bucket", *p.Bucket)
	}
	if p.Metadata != nil {
		metadata, err := marshalMetadata(*p.Metadata)
		if err != nil {
			return err
		}
		set("metadata", metadata)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id, userID)
	result, err := s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ? AND user_id = ?", table, strings.Join(sets, ", "),
	)), args...)
	if err != nil {
		return fmt.Errorf("patching %s item %s: %w", coll, id, err)
	}
	return expectRow(result, "patching", coll, id)
}

// UpdatePositions writes each position with its own statement and waits
// for all of them. Writes are not atomic as a group.
func (s *SQLStore) UpdatePositions(ctx context.Context, coll model.Collection, updates []PositionUpdate) error {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	query := s.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET position = ?, updated_at = ? WHERE id = ? AND user_id = ?", table,
	))
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range updates {
		g.Go(func() error {
			result, err := s.db.ExecContext(gctx, query, u.Position, now, u.ID, userID)
			if err != nil {
				return fmt.Errorf("updating position of %s item %s: %w", coll, u.ID, err)
			}
			return expectRow(result, "repositioning", coll, u.ID)
		})
	}
	return g.Wait()
}

// Delete permanently removes an item.
func (s *SQLStore) Delete(ctx context.Context, coll model.Collection, id string) error {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", table)),
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting %s item %s: %w", coll, id, err)
	}
	return expectRow(result, "deleting", coll, id)
}

// LastPosition returns the largest position in bucket.
func (s *SQLStore) LastPosition(ctx context.Context, coll model.Collection, bucket string) (*float64, error) {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return nil, err
	}

	var last sql.NullFloat64
	err = s.db.GetContext(ctx, &last,
		s.db.Rebind(fmt.Sprintf("SELECT MAX(position) FROM %s WHERE user_id = ? AND bucket = ?", table)),
		userID, bucket,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting last position in %s: %w", coll, err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Float64, nil
}

func expectRow(result sql.Result, verb string, coll model.Collection, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s item %s: %w", verb, coll, id, ErrNotFound)
	}
	return nil
}
