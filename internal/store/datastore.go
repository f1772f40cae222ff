package store

// DataStore is the interface the build pipeline writes exercises through.
// Both Store (direct SQLite) and BatchedStore (in-memory buffering for
// parallel builds) implement this interface.
type DataStore interface {
	// Inserts, each returns the assigned ID.
	InsertExercise(e *Exercise) (int64, error)
	InsertSupportBlock(b *SupportBlock) (int64, error)
	InsertTestCase(tc *TestCase) (int64, error)

	ExercisesByRun(runID int64) ([]*Exercise, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
