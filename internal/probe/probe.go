// Package probe rewrites unittest method bodies into probe statements: code
// that prints an actual value, paired with the text that value must print.
package probe

import (
	"fmt"
	"strings"
)

// Sentinels printed by the guarded block an exception expectation becomes.
const (
	RaisedSentinel    = "OK"
	NotRaisedSentinel = "KO"
)

// Probe is one rewritten statement. Checked is false for pass-through
// statements, which contribute code but no expected output.
type Probe struct {
	Code     string
	Expected string
	Checked  bool
}

// TestCase is the combined probe sequence of one test method.
type TestCase struct {
	Method   string
	Code     string
	Expected string
	Example  bool
}

// StructuralError reports a test method whose shape cannot be rewritten.
type StructuralError struct {
	Method string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Method == "" {
		return "probe: " + e.Reason
	}
	return fmt.Sprintf("probe: %s: %s", e.Method, e.Reason)
}

// Combine joins the probes of one method into a test case: code lines in
// order, and the expected text of every checked probe.
func Combine(method string, probes []Probe, example bool) TestCase {
	code := make([]string, 0, len(probes))
	var expected []string
	for _, p := range probes {
		if p.Code == "" {
			continue
		}
		code = append(code, p.Code)
		if p.Checked {
			expected = append(expected, p.Expected)
		}
	}
	return TestCase{
		Method:   method,
		Code:     normalizeNewlines(strings.Join(code, "\n")),
		Expected: normalizeNewlines(strings.Join(expected, "\n")),
		Example:  example,
	}
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
