// Package suite reads a unittest module and maps each test class to the
// module symbol it exercises.
//
// A class is a test group when one of its bases is named TestCase, either
// bare or as the last part of a dotted name. This is a syntactic heuristic:
// an unrelated class that happens to be called TestCase is accepted too.
package suite

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pyexercise/internal/pyast"
)

// Method is one test method of a group.
type Method struct {
	Name      string
	Docstring string
	Source    string
	Line      int
	IsFirst   bool
}

// Group is a test class and the symbol it targets.
type Group struct {
	Name      string
	Docstring string
	Target    string
	Methods   []Method
	Setup     string
}

// Target is a module symbol that needs a test group.
type Target struct {
	Name  string
	Class bool
}

// Functions builds function targets from names.
func Functions(names ...string) []Target {
	out := make([]Target, len(names))
	for i, n := range names {
		out[i] = Target{Name: n}
	}
	return out
}

// Classes builds class targets from names.
func Classes(names ...string) []Target {
	out := make([]Target, len(names))
	for i, n := range names {
		out[i] = Target{Name: n, Class: true}
	}
	return out
}

// Options holds the naming conventions used to recognize test groups.
type Options struct {
	ClassPrefix  string
	Separator    string
	MethodPrefix string
	Fixture      string
	BaseMarker   string
}

// DefaultOptions returns the unittest conventions.
func DefaultOptions() Options {
	return Options{
		ClassPrefix:  "Test",
		Separator:    "_",
		MethodPrefix: "test_",
		Fixture:      "setUp",
		BaseMarker:   "TestCase",
	}
}

// Suite is the set of test groups of one test module keyed by target.
type Suite struct {
	groups   []*Group
	byTarget map[string]int
}

// Groups returns the groups in the order their targets first appeared.
func (s *Suite) Groups() []*Group { return s.groups }

// Group returns the group testing the function target.
func (s *Suite) Group(target string) (*Group, bool) {
	i, ok := s.byTarget[target]
	if !ok {
		return nil, false
	}
	return s.groups[i], true
}

// ClassGroup returns the group testing class name. Class names are
// CamelCase while group targets are snake_case, so a miss is retried with
// the converted name: Test_Calculatrice covers class Calculatrice.
func (s *Suite) ClassGroup(name string) (*Group, bool) {
	if g, ok := s.Group(name); ok {
		return g, true
	}
	return s.Group(CamelToSnake(name))
}

// GroupFor returns the group testing t, using ClassGroup for classes.
func (s *Suite) GroupFor(t Target) (*Group, bool) {
	if t.Class {
		return s.ClassGroup(t.Name)
	}
	return s.Group(t.Name)
}

// Len returns the number of distinct targets covered.
func (s *Suite) Len() int { return len(s.groups) }

func (s *Suite) put(g *Group) {
	if i, ok := s.byTarget[g.Target]; ok {
		slog.Warn("suite: test group replaces earlier group for same target",
			slog.String("target", g.Target),
			slog.String("previous", s.groups[i].Name),
			slog.String("group", g.Name))
		s.groups[i] = g
		return
	}
	s.byTarget[g.Target] = len(s.groups)
	s.groups = append(s.groups, g)
}

// Extract parses a test module and collects its module-level test groups.
func Extract(label string, src []byte, opts Options) (*Suite, error) {
	f, err := pyast.Parse(label, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Suite{byTarget: make(map[string]int)}
	for _, st := range pyast.Statements(f.Root) {
		if st.Kind != pyast.StmtClass {
			continue
		}
		def := pyast.Definition(st.Node)
		if !opts.isTestClass(f, def) {
			continue
		}
		name := f.Name(def)
		target, ok := opts.SymbolName(name)
		if !ok {
			slog.Warn("suite: test class name does not carry the group prefix",
				slog.String("class", name),
				slog.String("prefix", opts.ClassPrefix))
			continue
		}
		g := &Group{
			Name:      name,
			Docstring: f.Docstring(pyast.Body(def)),
			Target:    target,
		}
		opts.collectMethods(f, def, g)
		slog.Debug("suite: test group",
			slog.String("group", name),
			slog.String("target", target),
			slog.Int("methods", len(g.Methods)))
		s.put(g)
	}
	return s, nil
}

func (o Options) isTestClass(f *pyast.File, def *sitter.Node) bool {
	bases := def.ChildByFieldName("superclasses")
	if bases == nil {
		return false
	}
	for _, b := range pyast.NamedChildren(bases) {
		switch b.Type() {
		case "identifier":
			if f.Text(b) == o.BaseMarker {
				return true
			}
		case "attribute":
			if f.Text(b.ChildByFieldName("attribute")) == o.BaseMarker {
				return true
			}
		}
	}
	return false
}

func (o Options) collectMethods(f *pyast.File, def *sitter.Node, g *Group) {
	for _, st := range pyast.Statements(pyast.Body(def)) {
		if st.Kind != pyast.StmtFunction {
			continue
		}
		fn := pyast.Definition(st.Node)
		name := f.Name(fn)
		switch {
		case name == o.Fixture:
			g.Setup = f.Text(fn)
		case strings.HasPrefix(name, o.MethodPrefix):
			g.Methods = append(g.Methods, Method{
				Name:      name,
				Docstring: f.Docstring(pyast.Body(fn)),
				Source:    f.Text(fn),
				Line:      int(fn.StartPoint().Row) + 1,
			})
		}
	}
	if len(g.Methods) > 0 {
		g.Methods[0].IsFirst = true
	}
}
