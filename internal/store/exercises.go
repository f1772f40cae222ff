package store

import (
	"database/sql"
	"fmt"
)

// --- Run operations ---

func (s *Store) InsertRun(r *Run) (int64, error) {
	id, err := insertID(s.db.Exec(
		"INSERT INTO runs (module_path, unittest_path, module_hash, scripts_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ModulePath, r.UnittestPath, r.ModuleHash, r.ScriptsHash, r.CreatedAt,
	))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	r.ID = id
	return id, nil
}

const runCols = "id, module_path, unittest_path, module_hash, scripts_hash, created_at"

func scanRun(scanner rowScanner) (*Run, error) {
	r := &Run{}
	var scriptsHash sql.NullString
	if err := scanner.Scan(&r.ID, &r.ModulePath, &r.UnittestPath, &r.ModuleHash, &scriptsHash, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.ScriptsHash = scriptsHash.String
	return r, nil
}

// Runs returns every recorded run, oldest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runCols + " FROM runs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run for modulePath, or nil when the
// module was never built.
func (s *Store) LatestRun(modulePath string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(
		"SELECT "+runCols+" FROM runs WHERE module_path = ? ORDER BY id DESC LIMIT 1", modulePath,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// --- Exercise operations ---

func insertExerciseTx(ex execer, e *Exercise) (int64, error) {
	return insertID(ex.Exec(
		`INSERT INTO exercises (run_id, name, kind, docstring, question_text, template, imports, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Name, e.Kind, e.Docstring, e.QuestionText, e.Template, marshalStrings(e.Imports), e.ContentHash,
	))
}

func (s *Store) InsertExercise(e *Exercise) (int64, error) {
	id, err := insertExerciseTx(s.db, e)
	if err != nil {
		return 0, fmt.Errorf("insert exercise: %w", err)
	}
	e.ID = id
	return id, nil
}

const exerciseCols = "id, run_id, name, kind, docstring, question_text, template, imports, content_hash"

func scanExercise(scanner rowScanner) (*Exercise, error) {
	e := &Exercise{}
	var doc, question, template, imports, hash sql.NullString
	if err := scanner.Scan(&e.ID, &e.RunID, &e.Name, &e.Kind, &doc, &question, &template, &imports, &hash); err != nil {
		return nil, err
	}
	e.Docstring = doc.String
	e.QuestionText = question.String
	e.Template = template.String
	e.Imports = unmarshalStrings(imports.String)
	e.ContentHash = hash.String
	return e, nil
}

func (s *Store) queryExercises(query string, args ...any) ([]*Exercise, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exercises []*Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// ExercisesByRun returns a run's exercises in insertion order.
func (s *Store) ExercisesByRun(runID int64) ([]*Exercise, error) {
	return s.queryExercises("SELECT "+exerciseCols+" FROM exercises WHERE run_id = ? ORDER BY id", runID)
}

// ExercisesByHash returns every stored exercise with the given content
// hash, across runs.
func (s *Store) ExercisesByHash(hash string) ([]*Exercise, error) {
	return s.queryExercises("SELECT "+exerciseCols+" FROM exercises WHERE content_hash = ? ORDER BY id", hash)
}

func (s *Store) ExerciseByName(runID int64, name string) (*Exercise, error) {
	e, err := scanExercise(s.db.QueryRow(
		"SELECT "+exerciseCols+" FROM exercises WHERE run_id = ? AND name = ?", runID, name,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exercise by name: %w", err)
	}
	return e, nil
}

// --- Support block operations ---

func insertSupportBlockTx(ex execer, b *SupportBlock) (int64, error) {
	return insertID(ex.Exec(
		"INSERT INTO support_blocks (exercise_id, ordinal, kind, name, source) VALUES (?, ?, ?, ?, ?)",
		b.ExerciseID, b.Ordinal, b.Kind, b.Name, b.Source,
	))
}

func (s *Store) InsertSupportBlock(b *SupportBlock) (int64, error) {
	id, err := insertSupportBlockTx(s.db, b)
	if err != nil {
		return 0, fmt.Errorf("insert support block: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *Store) SupportBlocksByExercise(exerciseID int64) ([]*SupportBlock, error) {
	rows, err := s.db.Query(
		"SELECT id, exercise_id, ordinal, kind, name, source FROM support_blocks WHERE exercise_id = ? ORDER BY ordinal",
		exerciseID,
	)
	if err != nil {
		return nil, fmt.Errorf("support blocks by exercise: %w", err)
	}
	defer rows.Close()
	var blocks []*SupportBlock
	for rows.Next() {
		b := &SupportBlock{}
		if err := rows.Scan(&b.ID, &b.ExerciseID, &b.Ordinal, &b.Kind, &b.Name, &b.Source); err != nil {
			return nil, fmt.Errorf("scan support block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// --- Test case operations ---

func insertTestCaseTx(ex execer, tc *TestCase) (int64, error) {
	return insertID(ex.Exec(
		"INSERT INTO test_cases (exercise_id, ordinal, method, code, expected, example) VALUES (?, ?, ?, ?, ?, ?)",
		tc.ExerciseID, tc.Ordinal, tc.Method, tc.Code, tc.Expected, tc.Example,
	))
}

func (s *Store) InsertTestCase(tc *TestCase) (int64, error) {
	id, err := insertTestCaseTx(s.db, tc)
	if err != nil {
		return 0, fmt.Errorf("insert test case: %w", err)
	}
	tc.ID = id
	return id, nil
}

func (s *Store) TestCasesByExercise(exerciseID int64) ([]*TestCase, error) {
	rows, err := s.db.Query(
		"SELECT id, exercise_id, ordinal, method, code, expected, example FROM test_cases WHERE exercise_id = ? ORDER BY ordinal",
		exerciseID,
	)
	if err != nil {
		return nil, fmt.Errorf("test cases by exercise: %w", err)
	}
	defer rows.Close()
	var cases []*TestCase
	for rows.Next() {
		tc := &TestCase{}
		if err := rows.Scan(&tc.ID, &tc.ExerciseID, &tc.Ordinal, &tc.Method, &tc.Code, &tc.Expected, &tc.Example); err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}
