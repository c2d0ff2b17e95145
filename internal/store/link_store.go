package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nhle/planner/internal/model"
)

// metadataKey restricts keys interpolated into JSON path expressions.
var metadataKey = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FindByMetadata returns the caller's rows whose top-level metadata key
// equals value. Links between collections are soft: they live in
// metadata, so this is a lookup by embedded value, not a join.
func (s *SQLStore) FindByMetadata(
	ctx context.Context,
	coll model.Collection,
	key, value string,
) ([]model.Item, error) {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return nil, err
	}
	if !metadataKey.MatchString(key) {
		return nil, fmt.Errorf("invalid metadata key %q", key)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = ? AND %s = ? ORDER BY position ASC, created_at ASC",
		itemColumns, table, s.dialect.metadataExpr(key),
	)
	items, err := s.selectItems(ctx, coll, query, userID, value)
	if err != nil {
		return nil, fmt.Errorf("querying %s by metadata %s=%s: %w", coll, key, value, err)
	}
	return items, nil
}
