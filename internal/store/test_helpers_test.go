package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gclql/internal/testutil"
)

// createTestStore creates a new store in a temp directory with a
// deterministic clock and IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	ids := &testutil.SequenceIDs{}
	s, err := Open(path,
		WithClock(testutil.NewStepClock().Now),
		WithIDGenerator(ids.Generate),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
