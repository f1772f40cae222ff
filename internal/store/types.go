package store

import "time"

// Exercise bank domain types

type Run struct {
	ID           int64
	ModulePath   string
	UnittestPath string
	ModuleHash   string
	ScriptsHash  string
	CreatedAt    time.Time
}

type Exercise struct {
	ID           int64
	RunID        int64
	Name         string
	Kind         string
	Docstring    string
	QuestionText string
	Template     string
	Imports      []string
	ContentHash  string
}

// SupportBlock is one piece of supporting code copied into an exercise
// template. Kind is "class" or "function".
type SupportBlock struct {
	ID         int64
	ExerciseID int64
	Ordinal    int
	Kind       string
	Name       string
	Source     string
}

type TestCase struct {
	ID         int64
	ExerciseID int64
	Ordinal    int
	Method     string
	Code       string
	Expected   string
	Example    bool
}
