package pyexercise

import (
	"github.com/jward/pyexercise/internal/moodle"
	"github.com/jward/pyexercise/internal/probe"
	"github.com/jward/pyexercise/internal/store"
	"github.com/jward/pyexercise/internal/suite"
	"github.com/jward/pyexercise/internal/symbols"
)

// Public type aliases for internal types that appear in the Engine API.
// These are Go type aliases (=), identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Store = store.Store
type Symbol = symbols.Symbol
type SymbolKind = symbols.Kind
type Table = symbols.Table
type Suite = suite.Suite
type TestGroup = suite.Group
type TestCase = probe.TestCase
type CoverageError = suite.CoverageError
type StructuralError = probe.StructuralError

// SupportBlock is one symbol definition copied verbatim into a template.
type SupportBlock struct {
	Kind   SymbolKind
	Name   string
	Source string
}

// Exercise is everything generated for one target symbol.
type Exercise struct {
	Name         string
	Kind         SymbolKind
	Docstring    string
	QuestionText string
	Classes      []SupportBlock
	Functions    []SupportBlock
	Imports      []string
	Template     string
	Cases        []TestCase
}

// Support returns the support blocks in template order: classes first.
func (x *Exercise) Support() []SupportBlock {
	out := make([]SupportBlock, 0, len(x.Classes)+len(x.Functions))
	out = append(out, x.Classes...)
	return append(out, x.Functions...)
}

// Build is the result of one pipeline run.
type Build struct {
	Module    *Table
	Suite     *Suite
	Exercises []*Exercise

	// RunID is the exercise bank run the build was saved under, or 0 when
	// no database is configured.
	RunID int64
}

// Questions converts the exercises for the quiz generator.
func (b *Build) Questions() []moodle.Question {
	qs := make([]moodle.Question, len(b.Exercises))
	for i, x := range b.Exercises {
		qs[i] = moodle.Question{
			Name:     x.Name,
			Text:     x.QuestionText,
			Template: x.Template,
			Cases:    x.Cases,
		}
	}
	return qs
}
