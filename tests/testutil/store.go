package testutil

import (
	"context"
	"testing"

	"github.com/nhle/crm-alerts/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
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

// Seed saves value under key in s, failing the test on error.
func Seed[T any](t *testing.T, s store.Store, key string, value T) {
	t.Helper()

	if err := store.Save(context.Background(), s, key, value); err != nil {
		t.Fatalf("seeding %s: %v", key, err)
	}
}
