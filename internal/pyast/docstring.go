package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Docstring returns the cleaned docstring of a module, function or class
// body, or "" when the first statement is not a bare string literal.
func (f *File) Docstring(block *sitter.Node) string {
	stmts := Statements(block)
	if len(stmts) == 0 || !IsDocstring(stmts[0]) {
		return ""
	}
	s, ok := f.StringValue(stmts[0].Expr)
	if !ok {
		return ""
	}
	return CleanDoc(s)
}

// CleanDoc normalizes docstring indentation: tabs expand to 8 columns, the
// common indentation of every line after the first is removed, leading and
// trailing blank lines are dropped.
func CleanDoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); margin < 0 || indent < margin {
			margin = indent
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
