package symbols

// Resolve returns the transitive function dependencies of target in
// post-order: every function appears after the functions it calls. Only
// names in universe are followed, the target itself is never included and
// each function is expanded at most once, so call cycles are cut at the
// first revisit.
func (t *Table) Resolve(target string, universe Universe) []string {
	w := t.newWalker(target, universe)
	w.follow(t.depsOf(target))
	return w.order
}

// walker carries the shared visited state of one resolution. The visited
// slice is indexed by function arena position.
type walker struct {
	t        *Table
	target   string
	universe Universe
	visited  []bool
	order    []string
}

func (t *Table) newWalker(target string, universe Universe) *walker {
	return &walker{
		t:        t,
		target:   target,
		universe: universe,
		visited:  make([]bool, len(t.functions)),
	}
}

// admit reports the arena index of a function that should be expanded next.
func (w *walker) admit(name string) (int, bool) {
	if name == w.target || !w.universe.Has(name) {
		return 0, false
	}
	idx, ok := w.t.funcIndex[name]
	if !ok || w.visited[idx] {
		return 0, false
	}
	return idx, true
}

type frame struct {
	idx  int
	next int
}

// follow runs the post-order traversal from each root name in turn.
func (w *walker) follow(roots []string) {
	for _, name := range roots {
		root, ok := w.admit(name)
		if !ok {
			continue
		}
		w.visited[root] = true
		stack := []frame{{idx: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := w.t.functions[top.idx].Deps
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				if idx, ok := w.admit(dep); ok {
					w.visited[idx] = true
					stack = append(stack, frame{idx: idx})
				}
				continue
			}
			w.order = append(w.order, w.t.functions[top.idx].Name)
			stack = stack[:len(stack)-1]
		}
	}
}
