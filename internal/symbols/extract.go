package symbols

import (
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pyexercise/internal/pyast"
)

// Extract parses a module and builds its symbol table. Every function
// definition not enclosed by a class body and every class definition at any
// depth becomes a symbol, discovered breadth first.
func Extract(label string, src []byte) (*Table, error) {
	f, err := pyast.Parse(label, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := newTable()
	t.Docstring = f.Docstring(f.Root)

	attrCalls := make(map[string]bool)
	pyast.Walk(f.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_definition":
			if !insideClass(n) {
				t.add(newSymbol(f, n, KindFunction))
			}
		case "class_definition":
			t.add(newSymbol(f, n, KindClass))
		case "call":
			if name, viaAttr, ok := f.CallTarget(n); ok && viaAttr {
				attrCalls[name] = true
			}
		}
		return true
	})

	warnAmbiguities(label, t, attrCalls)
	return t, nil
}

// CallNames parses a code fragment and returns the call-target names found
// anywhere in it, in first-occurrence order.
func CallNames(label, src string) ([]string, error) {
	f, err := pyast.Parse(label, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	defer f.Close()
	return callNames(f, f.Root), nil
}

func newSymbol(f *pyast.File, def *sitter.Node, kind Kind) *Symbol {
	return &Symbol{
		Name:      f.Name(def),
		Kind:      kind,
		Docstring: f.Docstring(pyast.Body(def)),
		Source:    f.Text(def),
		StartLine: int(def.StartPoint().Row) + 1,
		EndLine:   int(def.EndPoint().Row) + 1,
		Deps:      callNames(f, def),
	}
}

func callNames(f *pyast.File, root *sitter.Node) []string {
	var names []string
	seen := make(map[string]bool)
	pyast.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "call" {
			return true
		}
		if name, _, ok := f.CallTarget(n); ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}

func insideClass(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "class_definition" {
			return true
		}
	}
	return false
}

// warnAmbiguities logs names whose syntactic match may be wrong: module
// functions also reached through attribute calls, and classes named like
// Python builtins.
func warnAmbiguities(label string, t *Table, attrCalls map[string]bool) {
	for _, fn := range t.functions {
		if attrCalls[fn.Name] {
			slog.Warn("symbols: function name also used as attribute call",
				slog.String("module", label),
				slog.String("name", fn.Name),
				slog.Int("line", fn.StartLine))
		}
	}
	for _, c := range t.classes {
		if pythonBuiltins[c.Name] {
			slog.Warn("symbols: class shadows builtin",
				slog.String("module", label),
				slog.String("name", c.Name),
				slog.Int("line", c.StartLine))
		}
	}
}

var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "bool": true, "bytearray": true,
	"bytes": true, "callable": true, "chr": true, "complex": true, "dict": true,
	"dir": true, "divmod": true, "enumerate": true, "filter": true, "float": true,
	"format": true, "frozenset": true, "getattr": true, "hash": true, "hex": true,
	"id": true, "input": true, "int": true, "isinstance": true, "iter": true,
	"len": true, "list": true, "map": true, "max": true, "min": true, "next": true,
	"object": true, "oct": true, "open": true, "ord": true, "pow": true,
	"print": true, "property": true, "range": true, "repr": true, "reversed": true,
	"round": true, "set": true, "slice": true, "sorted": true, "str": true,
	"sum": true, "super": true, "tuple": true, "type": true, "zip": true,
	"Exception": true, "ValueError": true, "TypeError": true, "KeyError": true,
	"IndexError": true, "RuntimeError": true, "ZeroDivisionError": true,
	"AttributeError": true, "NameError": true, "StopIteration": true,
}
