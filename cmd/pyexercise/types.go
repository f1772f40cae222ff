package main

import (
	"time"

	"github.com/jward/pyexercise"
	"github.com/jward/pyexercise/internal/store"
	"github.com/jward/pyexercise/internal/suite"
	"github.com/jward/pyexercise/internal/symbols"
)

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command string   `json:"command"`
	Results any      `json:"results"`
	Error   string   `json:"error,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// CLISymbol is a JSON-friendly symbol table entry.
type CLISymbol struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Docstring string   `json:"docstring,omitempty"`
	Deps      []string `json:"deps,omitempty"`
}

// CLIGroup is a test class and the symbol it covers.
type CLIGroup struct {
	Name    string   `json:"name"`
	Target  string   `json:"target"`
	Methods []string `json:"methods"`
	Setup   bool     `json:"setup"`
}

// CLIExercise summarizes one generated or stored exercise.
type CLIExercise struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Support     []string `json:"support,omitempty"`
	Imports     []string `json:"imports,omitempty"`
	Cases       int      `json:"cases"`
	ContentHash string   `json:"content_hash,omitempty"`
}

// CLIRun is one recorded run of an exercise bank.
type CLIRun struct {
	ID           int64         `json:"id"`
	ModulePath   string        `json:"module_path"`
	UnittestPath string        `json:"unittest_path"`
	CreatedAt    time.Time     `json:"created_at"`
	Exercises    []CLIExercise `json:"exercises"`
}

func toCLISymbols(t *symbols.Table) []CLISymbol {
	var out []CLISymbol
	for _, group := range [][]*symbols.Symbol{t.Functions(), t.Classes()} {
		for _, s := range group {
			out = append(out, CLISymbol{
				Name:      s.Name,
				Kind:      string(s.Kind),
				StartLine: s.StartLine,
				EndLine:   s.EndLine,
				Docstring: s.Docstring,
				Deps:      s.Deps,
			})
		}
	}
	return out
}

func toCLIGroups(groups []*suite.Group) []CLIGroup {
	out := make([]CLIGroup, len(groups))
	for i, g := range groups {
		methods := make([]string, len(g.Methods))
		for j, m := range g.Methods {
			methods[j] = m.Name
		}
		out[i] = CLIGroup{Name: g.Name, Target: g.Target, Methods: methods, Setup: g.Setup != ""}
	}
	return out
}

func toCLIExercises(xs []*pyexercise.Exercise) []CLIExercise {
	out := make([]CLIExercise, len(xs))
	for i, x := range xs {
		var support []string
		for _, b := range x.Support() {
			support = append(support, b.Name)
		}
		out[i] = CLIExercise{
			Name:    x.Name,
			Kind:    string(x.Kind),
			Support: support,
			Imports: x.Imports,
			Cases:   len(x.Cases),
		}
	}
	return out
}

// loadCLIRun reads a run's exercises with their support names and case
// counts.
func loadCLIRun(s *store.Store, run *store.Run) (CLIRun, error) {
	result := CLIRun{
		ID:           run.ID,
		ModulePath:   run.ModulePath,
		UnittestPath: run.UnittestPath,
		CreatedAt:    run.CreatedAt,
		Exercises:    []CLIExercise{},
	}
	xs, err := s.ExercisesByRun(run.ID)
	if err != nil {
		return result, err
	}
	for _, x := range xs {
		blocks, err := s.SupportBlocksByExercise(x.ID)
		if err != nil {
			return result, err
		}
		cases, err := s.TestCasesByExercise(x.ID)
		if err != nil {
			return result, err
		}
		var support []string
		for _, b := range blocks {
			support = append(support, b.Name)
		}
		result.Exercises = append(result.Exercises, CLIExercise{
			Name:        x.Name,
			Kind:        x.Kind,
			Support:     support,
			Imports:     x.Imports,
			Cases:       len(cases),
			ContentHash: x.ContentHash,
		})
	}
	return result, nil
}
