package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/planner/internal/model"
)

// Tags returns the distinct tags used by the caller's items and their
// sub-actions, sorted case-insensitively. Tags live in metadata, so they
// are collected after decoding rather than with a dialect-specific JSON
// table function.
func (s *SQLStore) Tags(ctx context.Context, coll model.Collection) ([]string, error) {
	userID, table, err := scope(ctx, coll)
	if err != nil {
		return nil, err
	}

	var blobs []string
	err = s.db.SelectContext(ctx, &blobs,
		s.db.Rebind(fmt.Sprintf("SELECT metadata FROM %s WHERE user_id = ?", table)),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags in %s: %w", coll, err)
	}

	seen := make(map[string]string)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[strings.ToLower(tag)]; !ok {
			seen[strings.ToLower(tag)] = tag
		}
	}

	for _, blob := range blobs {
		var md model.Metadata
		if err := json.Unmarshal([]byte(blob), &md); err != nil {
			continue
		}
		for _, t := range md.Tags {
			add(t)
		}
		for _, sa := range md.SubActions {
			for _, t := range sa.Tags {
				add(t)
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for _, t := range seen {
		tags = append(tags, t)
	}
	slices.SortFunc(tags, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return tags, nil
}
