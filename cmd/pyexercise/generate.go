package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/pyexercise"
	"github.com/jward/pyexercise/internal/watch"
)

var (
	flagUnittestFile string
	flagOutput       string
	flagDB           string
	flagParallel     bool
	flagProgress     bool
	flagWatch        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <module.py>",
	Short: "Generate a Moodle CodeRunner quiz from a module and its tests",
	Long:  "Extracts the module's functions and classes, checks that each one has a test class, and writes one CodeRunner question per symbol.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagUnittestFile, "unittest-file", "", "unittest file (default: <stem>_unittest.py next to the module)")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output XML path (default: output/<stem>_moodle.xml)")
	generateCmd.Flags().StringVar(&flagDB, "db", "", "record the run in this SQLite exercise bank")
	generateCmd.Flags().BoolVar(&flagParallel, "parallel", false, "build exercises on a worker pool")
	generateCmd.Flags().BoolVar(&flagProgress, "progress", false, "show a progress bar while building")
	generateCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "regenerate whenever the module or its tests change")
}

// generateJob is one module/test pair and where its quiz goes.
type generateJob struct {
	modulePath   string
	unittestPath string
	outputPath   string
}

func runGenerate(cmd *cobra.Command, args []string) error {
	job := generateJob{
		modulePath:   args[0],
		unittestPath: resolveUnittestPath(args[0]),
		outputPath:   resolveOutputPath(args[0]),
	}

	opts := []pyexercise.Option{pyexercise.WithParallel(flagParallel)}
	var progress *buildProgress
	if flagProgress {
		progress = &buildProgress{}
		opts = append(opts, pyexercise.WithProgress(progress.Report))
	}
	if flagDB != "" {
		if err := os.MkdirAll(filepath.Dir(flagDB), 0o755); err != nil {
			return outputError("generate", fmt.Errorf("creating %s: %w", filepath.Dir(flagDB), err))
		}
		opts = append(opts, pyexercise.WithDatabase(flagDB))
	}

	engine, err := newEngine(opts...)
	if err != nil {
		return outputError("generate", err)
	}
	defer engine.Close()

	if flagDB != "" && engine.ScriptsChanged() {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Hook scripts differ from the last recorded run\n")
	}

	b, err := generate(cmd.Context(), engine, job)
	if !flagWatch {
		if err != nil {
			return outputError("generate", err)
		}
		return outputResult(CLIResult{Command: "generate", Results: toCLIExercises(b.Exercises)})
	}
	if err != nil {
		writeError(os.Stdout, os.Stderr, "generate", err)
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
	defer stop()
	return watchAndGenerate(ctx, engine, job, progress)
}

// generate builds one quiz and writes it to the job's output path.
func generate(ctx context.Context, engine *pyexercise.Engine, job generateJob) (*pyexercise.Build, error) {
	start := time.Now()
	b, err := engine.BuildFiles(contextOrBackground(ctx), job.modulePath, job.unittestPath)
	if err != nil {
		return nil, err
	}
	if err := engine.WriteQuiz(job.outputPath, b); err != nil {
		return nil, fmt.Errorf("writing quiz: %w", err)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %d exercises written to %s in %s\n",
		len(b.Exercises), job.outputPath, time.Since(start).Round(time.Millisecond))
	if b.RunID != 0 {
		fmt.Fprintf(os.Stderr, "Run #%d saved to %s\n", b.RunID, flagDB)
	}
	return b, nil
}

// watchAndGenerate regenerates the quiz on every change until ctx is
// cancelled. Build errors are reported and watching continues.
func watchAndGenerate(ctx context.Context, engine *pyexercise.Engine, job generateJob, progress *buildProgress) error {
	changes := make(chan []string, 1)
	w, err := watch.New([]string{job.modulePath, job.unittestPath}, watch.DefaultDebounce, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		return outputError("generate", err)
	}
	defer w.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	fmt.Fprintf(os.Stderr, "Watching %s and %s (Ctrl-C to stop)\n", job.modulePath, job.unittestPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return outputError("generate", err)
			}
			return nil
		case paths := <-changes:
			fmt.Fprintf(os.Stderr, "Changed: %s\n", strings.Join(paths, ", "))
			if progress != nil {
				progress.Reset()
			}
			if _, err := generate(ctx, engine, job); err != nil {
				writeError(os.Stdout, os.Stderr, "generate", err)
			}
		}
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// resolveUnittestPath returns --unittest-file or the conventional test file
// of the module.
func resolveUnittestPath(modulePath string) string {
	if flagUnittestFile != "" {
		return flagUnittestFile
	}
	return pyexercise.UnittestPath(modulePath)
}

// resolveOutputPath returns --output or output/<stem>_moodle.xml.
func resolveOutputPath(modulePath string) string {
	if flagOutput != "" {
		return flagOutput
	}
	stem := strings.TrimSuffix(filepath.Base(modulePath), filepath.Ext(modulePath))
	return filepath.Join("output", stem+"_moodle.xml")
}
