package store

import "sync"

// BatchedStore buffers exercise inserts in memory using fake (negative)
// IDs. It implements DataStore so build workers can write to it without
// knowing whether they're hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// ExercisesByRun passes through to the underlying Store, which is safe for
// concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Exercises     []Exercise
	SupportBlocks []SupportBlock
	TestCases     []TestCase

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertExercise(e *Exercise) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	e.ID = fakeID
	b.Exercises = append(b.Exercises, *e)
	return fakeID, nil
}

func (b *BatchedStore) InsertSupportBlock(sb *SupportBlock) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sb.ID = fakeID
	b.SupportBlocks = append(b.SupportBlocks, *sb)
	return fakeID, nil
}

func (b *BatchedStore) InsertTestCase(tc *TestCase) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	tc.ID = fakeID
	b.TestCases = append(b.TestCases, *tc)
	return fakeID, nil
}

// ExercisesByRun returns a run's exercises, merging any buffered (not yet
// committed) exercises with those already in the database.
func (b *BatchedStore) ExercisesByRun(runID int64) ([]*Exercise, error) {
	dbExercises, err := b.store.ExercisesByRun(runID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Exercises {
		if b.Exercises[i].RunID == runID {
			dbExercises = append(dbExercises, &b.Exercises[i])
		}
	}
	return dbExercises, nil
}

// Len reports how many rows are buffered.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Exercises) + len(b.SupportBlocks) + len(b.TestCases)
}
