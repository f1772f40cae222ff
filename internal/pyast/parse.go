// Package pyast wraps tree-sitter's Python grammar with the small amount of
// syntax-directed machinery the exercise pipeline needs: syntax error
// reporting, statement classification, qualifier stripping and a
// normalizing expression renderer.
package pyast

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("invalid python syntax")

// ParseError reports the first syntax error found in a source text.
// Line and Col are 1-based.
type ParseError struct {
	Label string
	Line  int
	Col   int
	Near  string
}

func (e *ParseError) Error() string {
	near := ""
	if e.Near != "" {
		near = fmt.Sprintf(" near %q", e.Near)
	}
	if e.Label == "" {
		return fmt.Sprintf("%s at line %d, column %d%s", ErrSyntax, e.Line, e.Col, near)
	}
	return fmt.Sprintf("%s: %s at line %d, column %d%s", e.Label, ErrSyntax, e.Line, e.Col, near)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// DefaultQualifier is the instance-scope prefix removed when method-body
// code is lifted into free-standing code.
const DefaultQualifier = "self"

// File is a parsed Python source text.
type File struct {
	Src  []byte
	Root *sitter.Node

	tree      *sitter.Tree
	qualifier string
}

// Parse parses src and fails with a *ParseError when tree-sitter recovered
// from any syntax error. The label is used only in error messages.
func Parse(label string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("pyast: tree-sitter parse %s: %w", label, err)
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, &ParseError{Label: label, Line: 1, Col: 1}
	}
	if root.HasError() {
		pe := firstError(root, src)
		pe.Label = label
		tree.Close()
		return nil, pe
	}
	return &File{Src: src, Root: root, tree: tree, qualifier: DefaultQualifier}, nil
}

// Close releases the underlying tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Text returns the exact source bytes spanned by n.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(f.Src[n.StartByte():n.EndByte()])
}

// firstError walks the tree in source order and reports the first ERROR or
// MISSING node.
func firstError(root *sitter.Node, src []byte) *ParseError {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			pt := n.StartPoint()
			near := string(src[n.StartByte():n.EndByte()])
			if len(near) > 40 {
				near = near[:40]
			}
			return &ParseError{Line: int(pt.Row) + 1, Col: int(pt.Column) + 1, Near: near}
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
	pt := root.StartPoint()
	return &ParseError{Line: int(pt.Row) + 1, Col: int(pt.Column) + 1}
}
