package pyexercise

import (
	"context"
	"fmt"
	goruntime "runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jward/pyexercise/internal/suite"
)

// buildParallel assembles targets on a worker pool. The symbol table and
// suite are only read, so workers share them; each worker gets its own
// Runtime so tree-sitter parsing in the import hook is goroutine-safe.
// Exercises come back in target order and the first error cancels the rest.
func (e *Engine) buildParallel(ctx context.Context, table *Table, st *Suite, targets []suite.Target) ([]*Exercise, error) {
	groups := make([]*TestGroup, len(targets))
	for i, target := range targets {
		group, ok := st.GroupFor(target)
		if !ok {
			return nil, fmt.Errorf("pyexercise: %s: no test group", target.Name)
		}
		groups[i] = group
	}

	numWorkers := min(goruntime.NumCPU(), len(targets))
	if numWorkers < 1 {
		numWorkers = 1
	}

	universe := table.Universe()
	exercises := make([]*Exercise, len(targets))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			x, err := e.buildExercise(ctx, e.newRuntime(), table, universe, target.Name, groups[i])
			if err != nil {
				return err
			}
			exercises[i] = x
			e.report(target.Name, int(done.Add(1)), len(targets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return exercises, nil
}
