package pyexercise

import (
	"fmt"
	"log/slog"

	"github.com/jward/pyexercise/internal/store"
)

// save records a build in the exercise bank: the run row first, then every
// exercise buffered in a BatchedStore and committed in one transaction. A
// failure after the run row is written deletes it again, so a failed save
// leaves neither the run nor any of its exercises behind.
func (e *Engine) save(run *store.Run, b *Build) error {
	if _, err := e.store.InsertRun(run); err != nil {
		return fmt.Errorf("pyexercise: save run: %w", err)
	}
	if err := e.saveExercises(run, b); err != nil {
		if derr := e.store.DeleteRun(run.ID); derr != nil {
			slog.Warn("pyexercise: discard failed run", slog.Int64("run", run.ID), slog.String("error", derr.Error()))
		}
		return err
	}
	if err := e.store.SetMetadata("scripts_hash", run.ScriptsHash); err != nil {
		return fmt.Errorf("pyexercise: %w", err)
	}

	for _, x := range b.Exercises {
		e.reportUnchanged(run, x)
	}
	slog.Info("pyexercise: build saved", slog.Int64("run", run.ID), slog.Int("exercises", len(b.Exercises)))
	return nil
}

func (e *Engine) saveExercises(run *store.Run, b *Build) error {
	batch := store.NewBatchedStore(e.store)
	for _, x := range b.Exercises {
		if err := saveExercise(batch, run.ID, x); err != nil {
			return fmt.Errorf("pyexercise: save %s: %w", x.Name, err)
		}
	}
	if err := e.store.CommitBatch(batch); err != nil {
		return fmt.Errorf("pyexercise: save run %d: %w", run.ID, err)
	}
	return nil
}

// saveExercise writes one exercise, its support blocks and its test cases
// through ds.
func saveExercise(ds store.DataStore, runID int64, x *Exercise) error {
	cases := make([]*store.TestCase, len(x.Cases))
	for i, tc := range x.Cases {
		cases[i] = &store.TestCase{
			Ordinal:  i,
			Method:   tc.Method,
			Code:     tc.Code,
			Expected: tc.Expected,
			Example:  tc.Example,
		}
	}

	row := &store.Exercise{
		RunID:        runID,
		Name:         x.Name,
		Kind:         string(x.Kind),
		Docstring:    x.Docstring,
		QuestionText: x.QuestionText,
		Template:     x.Template,
		Imports:      x.Imports,
		ContentHash:  store.ComputeExerciseHash(x.Name, string(x.Kind), x.Template, x.Imports, cases),
	}
	exerciseID, err := ds.InsertExercise(row)
	if err != nil {
		return err
	}

	for i, b := range x.Support() {
		if _, err := ds.InsertSupportBlock(&store.SupportBlock{
			ExerciseID: exerciseID,
			Ordinal:    i,
			Kind:       string(b.Kind),
			Name:       b.Name,
			Source:     b.Source,
		}); err != nil {
			return err
		}
	}
	for _, tc := range cases {
		tc.ExerciseID = exerciseID
		if _, err := ds.InsertTestCase(tc); err != nil {
			return err
		}
	}
	return nil
}

// reportUnchanged logs exercises identical to one saved by an earlier run
// of the same module.
func (e *Engine) reportUnchanged(run *store.Run, x *Exercise) {
	saved, err := e.store.ExerciseByName(run.ID, x.Name)
	if err != nil || saved == nil {
		return
	}
	twins, err := e.store.ExercisesByHash(saved.ContentHash)
	if err != nil {
		return
	}
	for _, twin := range twins {
		if twin.RunID < run.ID {
			slog.Debug("pyexercise: exercise unchanged since earlier run",
				slog.String("target", x.Name), slog.Int64("run", twin.RunID))
			return
		}
	}
}
