package store

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createSeededStore creates a store holding n seeded records.
func createSeededStore(t *testing.T, n int) *Store {
	t.Helper()
	s := createTestStore(t)
	if err := s.Seed(context.Background(), n); err != nil {
		t.Fatalf("Seed(%d) failed: %v", n, err)
	}
	return s
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
