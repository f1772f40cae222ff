package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the exercise bank.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              INTEGER PRIMARY KEY,
  module_path     TEXT NOT NULL,
  unittest_path   TEXT NOT NULL,
  module_hash     TEXT NOT NULL,
  scripts_hash    TEXT,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS exercises (
  id              INTEGER PRIMARY KEY,
  run_id          INTEGER NOT NULL REFERENCES runs(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  docstring       TEXT,
  question_text   TEXT,
  template        TEXT,
  imports         TEXT,
  content_hash    TEXT,
  UNIQUE (run_id, name)
);

CREATE TABLE IF NOT EXISTS support_blocks (
  id              INTEGER PRIMARY KEY,
  exercise_id     INTEGER NOT NULL REFERENCES exercises(id),
  ordinal         INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  source          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS test_cases (
  id              INTEGER PRIMARY KEY,
  exercise_id     INTEGER NOT NULL REFERENCES exercises(id),
  ordinal         INTEGER NOT NULL,
  method          TEXT NOT NULL,
  code            TEXT NOT NULL,
  expected        TEXT NOT NULL,
  example         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exercises_run ON exercises(run_id);
CREATE INDEX IF NOT EXISTS idx_exercises_name ON exercises(name);
CREATE INDEX IF NOT EXISTS idx_exercises_hash ON exercises(content_hash);
CREATE INDEX IF NOT EXISTS idx_support_blocks_exercise ON support_blocks(exercise_id);
CREATE INDEX IF NOT EXISTS idx_test_cases_exercise ON test_cases(exercise_id);
`

// DeleteRun transactionally removes a run and everything generated by it.
// Deletes in reverse-dependency order to respect FK constraints.
func (s *Store) DeleteRun(runID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM exercises WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("query exercises: %w", err)
	}
	var exerciseIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan exercise id: %w", err)
		}
		exerciseIDs = append(exerciseIDs, id)
	}
	rows.Close()

	if len(exerciseIDs) > 0 {
		placeholders := placeholderList(len(exerciseIDs))
		args := int64sToArgs(exerciseIDs)
		for _, q := range []string{
			"DELETE FROM test_cases WHERE exercise_id IN (" + placeholders + ")",
			"DELETE FROM support_blocks WHERE exercise_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete exercise children: %w", err)
			}
		}
	}

	for _, q := range []string{
		"DELETE FROM exercises WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return fmt.Errorf("delete run data: %w", err)
		}
	}

	return tx.Commit()
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
