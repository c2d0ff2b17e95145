package testutil

import (
	"context"
	"testing"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// UserContext returns a context authenticated as userID.
func UserContext(userID string) context.Context {
	return auth.WithUser(context.Background(), userID)
}
