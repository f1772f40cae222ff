package probe

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pyexercise/internal/pyast"
)

// Transform rewrites a test method into probes. The statements of the
// setup routine, if any, come first as pass-through probes. Method and
// setup sources are expected to be the full text of a def statement.
//
// Supported assertions are matched on the attribute name of a call:
//
//	assertEqual(a, b)      print(a)         expected b
//	assertTrue(x)          print(x)         expected True
//	assertFalse(x)         print(x)         expected False
//	assertIn(a, b)         print(a in b)    expected True
//	with assertRaises(E):  guarded block    expected OK
//
// Everything else passes through with self. qualifiers removed.
func Transform(methodSource, setupSource string) ([]Probe, error) {
	f, err := pyast.Parse("test method", []byte(normalizeNewlines(methodSource)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fn := f.FindFunction(f.Root, "")
	if fn == nil {
		return nil, &StructuralError{Reason: "no function definition in test method source"}
	}

	probes := setupProbes(setupSource)

	stmts := pyast.Statements(pyast.Body(fn))
	if len(stmts) > 0 && pyast.IsDocstring(stmts[0]) {
		stmts = stmts[1:]
	}
	for _, st := range stmts {
		p := rewrite(f, st)
		p.Code = normalizeNewlines(p.Code)
		p.Expected = normalizeNewlines(p.Expected)
		probes = append(probes, p)
	}
	return probes, nil
}

// setupProbes lifts the body of the setup routine, minus string statements,
// into pass-through probes.
func setupProbes(src string) []Probe {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	f, err := pyast.Parse("setUp", []byte(normalizeNewlines(src)))
	if err != nil {
		slog.Warn("probe: setup routine skipped", slog.Any("error", err))
		return nil
	}
	defer f.Close()

	fn := f.FindFunction(f.Root, "")
	if fn == nil {
		return nil
	}
	var probes []Probe
	for _, st := range pyast.Statements(pyast.Body(fn)) {
		if pyast.IsDocstring(st) {
			continue
		}
		probes = append(probes, Probe{Code: f.Statement(st.Node)})
	}
	return probes
}

func rewrite(f *pyast.File, st pyast.Stmt) Probe {
	switch st.Kind {
	case pyast.StmtCall:
		if name, viaAttr, ok := f.CallTarget(st.Expr); ok && viaAttr {
			if p, handled := assertion(f, st, name); handled {
				return p
			}
		}
	case pyast.StmtWith:
		if call := raisesCall(f, st.Node); call != nil {
			return guarded(f, st.Node, call)
		}
	}
	return passThrough(f, st.Node)
}

func passThrough(f *pyast.File, n *sitter.Node) Probe {
	return Probe{Code: f.Statement(n)}
}

var minArgs = map[string]int{
	"assertEqual": 2,
	"assertTrue":  1,
	"assertFalse": 1,
	"assertIn":    2,
}

// assertion rewrites the supported assertion calls. handled is false for
// any other attribute call.
func assertion(f *pyast.File, st pyast.Stmt, name string) (Probe, bool) {
	n, ok := minArgs[name]
	if !ok {
		return Probe{}, false
	}
	args := pyast.PositionalArgs(st.Expr)
	if len(args) < n {
		slog.Warn("probe: assertion has too few arguments, kept as is",
			slog.String("assertion", name),
			slog.Int("args", len(args)),
			slog.Int("want", n),
			slog.Int("line", int(st.Node.StartPoint().Row)+1))
		return Probe{Code: f.Verbatim(st.Node)}, true
	}

	switch name {
	case "assertEqual":
		return Probe{Code: "print(" + f.Expr(args[0]) + ")", Expected: f.Value(args[1]), Checked: true}, true
	case "assertTrue":
		return Probe{Code: "print(" + f.Expr(args[0]) + ")", Expected: "True", Checked: true}, true
	case "assertFalse":
		return Probe{Code: "print(" + f.Expr(args[0]) + ")", Expected: "False", Checked: true}, true
	default:
		return Probe{Code: "print(" + f.Expr(args[0]) + " in " + f.Expr(args[1]) + ")", Expected: "True", Checked: true}, true
	}
}

// raisesCall returns the assertRaises call among the context expressions of
// a with statement.
func raisesCall(f *pyast.File, with *sitter.Node) *sitter.Node {
	for _, clause := range pyast.NamedChildren(with) {
		if clause.Type() != "with_clause" {
			continue
		}
		for _, item := range pyast.NamedChildren(clause) {
			if item.Type() != "with_item" {
				continue
			}
			value := item.ChildByFieldName("value")
			if value == nil && item.NamedChildCount() > 0 {
				value = item.NamedChild(0)
			}
			if value != nil && value.Type() == "as_pattern" && value.NamedChildCount() > 0 {
				value = value.NamedChild(0)
			}
			if value == nil || value.Type() != "call" {
				continue
			}
			if name, viaAttr, ok := f.CallTarget(value); ok && viaAttr && name == "assertRaises" {
				return value
			}
		}
	}
	return nil
}

// guarded turns a with assertRaises(E) block into try/except printing the
// sentinels. Without an exception argument the statement passes through.
func guarded(f *pyast.File, with, call *sitter.Node) Probe {
	args := pyast.PositionalArgs(call)
	if len(args) < 1 {
		slog.Warn("probe: assertRaises without exception type, kept as is",
			slog.Int("line", int(with.StartPoint().Row)+1))
		return passThrough(f, with)
	}

	var body []string
	for _, st := range pyast.Statements(with.ChildByFieldName("body")) {
		body = append(body, f.IndentedStatement(st.Node, "    "))
	}

	var b strings.Builder
	b.WriteString("try:\n")
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n    print(\"" + NotRaisedSentinel + "\")\n")
	b.WriteString("except " + f.Expr(args[0]) + ":\n")
	b.WriteString("    print(\"" + RaisedSentinel + "\")")
	return Probe{Code: b.String(), Expected: RaisedSentinel, Checked: true}
}
