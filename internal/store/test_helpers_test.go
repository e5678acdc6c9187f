package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a file-backed store in a temp dir.
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

// fixedNow pins the store clock so updated_at is predictable.
func fixedNow(s *Store, at time.Time) {
	s.now = func() time.Time { return at }
}
