// Package symbols extracts top-level functions and classes from a Python
// module together with their call dependencies, and computes the ordered
// support code a target symbol needs to stand on its own.
package symbols

// Kind distinguishes the two symbol kinds a module table holds.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
)

// Symbol is one function or class definition of a module.
//
// Deps lists every identifier reached through a call expression inside the
// definition, in first-occurrence order. Attribute calls contribute their
// attribute name only, so obj.save() records "save" even when obj has
// nothing to do with a module-level save function.
type Symbol struct {
	Name      string
	Kind      Kind
	Docstring string
	Source    string
	StartLine int
	EndLine   int
	Deps      []string
}

// Calls reports whether name appears in the symbol's call dependencies.
func (s *Symbol) Calls(name string) bool {
	for _, d := range s.Deps {
		if d == name {
			return true
		}
	}
	return false
}

// Universe decides which names count as in-scope dependencies.
type Universe interface {
	Has(name string) bool
}

// NameSet is a Universe backed by a set of names.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Support is the merged support code of a target: class names in discovery
// order and function names in dependency order (callees before callers).
type Support struct {
	Classes   []string
	Functions []string
}

// Len returns the total number of support symbols.
func (s Support) Len() int {
	return len(s.Classes) + len(s.Functions)
}
