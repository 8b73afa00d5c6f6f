package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/scriptblocks/internal/testutil"
)

// createTestStore opens a store in a temporary directory with a
// deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock().Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
