package symbols

import "strings"

// Merge computes the support code of target across both symbol kinds.
//
// Phase one resolves the target's function dependencies, then those of the
// setup routine. Phase two drains a FIFO worklist of classes seeded from
// the target, every function resolved so far and the setup routine; each
// dequeued class folds its own function closure into the result and
// enqueues the classes its methods or newly resolved functions call. Both
// phases share one visited set, so no name is emitted twice.
func (t *Table) Merge(target, setupSource string, universe Universe) (Support, error) {
	var setupCalls []string
	if strings.TrimSpace(setupSource) != "" {
		names, err := CallNames("setUp", setupSource)
		if err != nil {
			return Support{}, err
		}
		setupCalls = names
	}

	w := t.newWalker(target, universe)
	w.follow(t.depsOf(target))
	w.follow(setupCalls)

	m := &classQueue{t: t, target: target, universe: universe, seen: make(map[string]bool)}
	m.push(t.depsOf(target))
	for _, fn := range w.order {
		m.push(t.depsOf(fn))
	}
	m.push(setupCalls)

	for i := 0; i < len(m.queue); i++ {
		c, _ := t.Class(m.queue[i])
		before := len(w.order)
		w.follow(c.Deps)
		m.push(c.Deps)
		for _, fn := range w.order[before:] {
			m.push(t.depsOf(fn))
		}
	}

	return Support{Classes: m.queue, Functions: w.order}, nil
}

// classQueue is the phase two worklist. Classes are marked when enqueued,
// so the queue itself is the discovery order.
type classQueue struct {
	t        *Table
	target   string
	universe Universe
	seen     map[string]bool
	queue    []string
}

func (q *classQueue) push(names []string) {
	for _, n := range names {
		if n == q.target || q.seen[n] || !q.universe.Has(n) {
			continue
		}
		if _, ok := q.t.classIndex[n]; !ok {
			continue
		}
		q.seen[n] = true
		q.queue = append(q.queue, n)
	}
}
