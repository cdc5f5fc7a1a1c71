// Package testutil provides in-memory fixtures shared across package
// tests, adapted from the teacher's own test-helper conventions.
package testutil

import (
	"testing"

	"innerfs/internal/metadata"
)

// NewTestStore opens an in-memory SQLite-backed metadata store with
// migrations applied, closing it automatically when the test completes.
func NewTestStore(t *testing.T) *metadata.SQLiteStore {
	t.Helper()

	store, err := metadata.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
