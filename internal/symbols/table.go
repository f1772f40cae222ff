package symbols

// Table holds the functions and classes of one module. Each kind is an
// arena indexed by name; a redefinition replaces the earlier symbol in
// place so the arena keeps first-seen order.
type Table struct {
	Docstring string

	functions  []*Symbol
	classes    []*Symbol
	funcIndex  map[string]int
	classIndex map[string]int
}

func newTable() *Table {
	return &Table{
		funcIndex:  make(map[string]int),
		classIndex: make(map[string]int),
	}
}

func (t *Table) add(sym *Symbol) {
	arena, index := &t.functions, t.funcIndex
	if sym.Kind == KindClass {
		arena, index = &t.classes, t.classIndex
	}
	if i, ok := index[sym.Name]; ok {
		(*arena)[i] = sym
		return
	}
	index[sym.Name] = len(*arena)
	*arena = append(*arena, sym)
}

// Functions returns the module-level functions in discovery order.
func (t *Table) Functions() []*Symbol { return t.functions }

// Classes returns the classes in discovery order.
func (t *Table) Classes() []*Symbol { return t.classes }

// Function looks up a function by name.
func (t *Table) Function(name string) (*Symbol, bool) {
	i, ok := t.funcIndex[name]
	if !ok {
		return nil, false
	}
	return t.functions[i], true
}

// Class looks up a class by name.
func (t *Table) Class(name string) (*Symbol, bool) {
	i, ok := t.classIndex[name]
	if !ok {
		return nil, false
	}
	return t.classes[i], true
}

// Lookup finds a symbol of either kind, functions first.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	if s, ok := t.Function(name); ok {
		return s, true
	}
	return t.Class(name)
}

// Universe returns every function and class name of the table.
func (t *Table) Universe() NameSet {
	s := make(NameSet, len(t.functions)+len(t.classes))
	for _, f := range t.functions {
		s[f.Name] = struct{}{}
	}
	for _, c := range t.classes {
		s[c.Name] = struct{}{}
	}
	return s
}

// Sources returns the definition text of each named symbol, skipping names
// the table does not know.
func (t *Table) Sources(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if s, ok := t.Lookup(n); ok {
			out = append(out, s.Source)
		}
	}
	return out
}

func (t *Table) depsOf(name string) []string {
	if s, ok := t.Lookup(name); ok {
		return s.Deps
	}
	return nil
}
