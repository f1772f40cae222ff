package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) exercise IDs are remapped to
// real IDs, and the exercise_id of every buffered support block and test
// case is rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Exercises (depend on run_id, which is already real)
//  2. SupportBlocks (depend on exercise_id)
//  3. TestCases (depend on exercise_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("exercise_id=%d not in fakeToReal map (have %d exercises)", id, len(batch.Exercises))
		}
		return realID, nil
	}

	// 1. Exercises
	for _, e := range batch.Exercises {
		realID, err := insertExerciseTx(tx, &e)
		if err != nil {
			return fmt.Errorf("commit batch: exercise %q: %w", e.Name, err)
		}
		fakeToReal[e.ID] = realID
	}

	// 2. SupportBlocks
	for _, sb := range batch.SupportBlocks {
		exID, err := remap(sb.ExerciseID)
		if err != nil {
			return fmt.Errorf("commit batch: support block %q: %w", sb.Name, err)
		}
		sb.ExerciseID = exID
		if _, err := insertSupportBlockTx(tx, &sb); err != nil {
			return fmt.Errorf("commit batch: support block %q: %w", sb.Name, err)
		}
	}

	// 3. TestCases
	for _, tc := range batch.TestCases {
		exID, err := remap(tc.ExerciseID)
		if err != nil {
			return fmt.Errorf("commit batch: test case %q: %w", tc.Method, err)
		}
		tc.ExerciseID = exID
		if _, err := insertTestCaseTx(tx, &tc); err != nil {
			return fmt.Errorf("commit batch: test case %q: %w", tc.Method, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}
