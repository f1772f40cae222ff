package suite

import (
	"fmt"
	"strings"
)

// CoverageError lists every target symbol without a test group.
type CoverageError struct {
	Missing  []string
	Expected []string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("suite: symbols without test group: %s (expected classes %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Expected, ", "))
}

// Validate checks that every target has a group, reporting all missing
// targets in target order.
func Validate(targets []Target, s *Suite) error {
	return DefaultOptions().Validate(targets, s)
}

// Validate is the package Validate using o's class prefix in the expected
// group names.
func (o Options) Validate(targets []Target, s *Suite) error {
	var missing, expected []string
	for _, t := range targets {
		if _, ok := s.GroupFor(t); ok {
			continue
		}
		missing = append(missing, t.Name)
		expected = append(expected, o.GroupName(t.Name))
	}
	if len(missing) == 0 {
		return nil
	}
	return &CoverageError{Missing: missing, Expected: expected}
}
