package pyexercise

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jward/pyexercise/internal/config"
	"github.com/jward/pyexercise/internal/moodle"
	"github.com/jward/pyexercise/internal/probe"
	"github.com/jward/pyexercise/internal/runtime"
	"github.com/jward/pyexercise/internal/store"
	"github.com/jward/pyexercise/internal/suite"
	"github.com/jward/pyexercise/internal/symbols"
)

// Engine orchestrates the pipeline: symbol extraction, test suite
// extraction, coverage validation, and per-target exercise assembly.
type Engine struct {
	cfg        *config.Config
	runtime    *runtime.Runtime
	store      *store.Store
	dbPath     string
	scriptsDir string
	scriptsFS  fs.FS

	// useParallel enables the per-target worker pool.
	useParallel bool
	progress    ProgressFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls per-target parallelism. When true, exercises are
// assembled on a worker pool sharing the read-only symbol table; results
// keep target order.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// ProgressFunc is told about each finished exercise. With WithParallel it
// is called from several goroutines and done values may arrive out of
// order.
type ProgressFunc func(target string, done, total int)

// WithProgress registers fn to be called after each exercise is built.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithScriptsFS configures the Engine to load Risor hook scripts from the
// given filesystem. This enables embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithScriptsDir loads hook scripts from a directory on disk. It takes
// precedence over WithScriptsFS so users can override embedded scripts.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithDatabase records every BuildFiles run in the SQLite exercise bank at
// dbPath.
func WithDatabase(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// New creates an Engine. Script loading priority:
//  1. If WithScriptsDir is set, use that directory on disk
//  2. Otherwise, use the WithScriptsFS filesystem
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg == nil {
		cfg := config.Default()
		e.cfg = &cfg
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pyexercise: %w", err)
	}
	if e.scriptsDir != "" {
		e.scriptsFS = nil
	}
	if e.scriptsDir == "" && e.scriptsFS == nil {
		return nil, fmt.Errorf("pyexercise: no hook scripts configured")
	}
	e.runtime = e.newRuntime()

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("pyexercise: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("pyexercise: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

func (e *Engine) newRuntime() *runtime.Runtime {
	var rtOpts []runtime.RuntimeOption
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	return runtime.NewRuntime(e.scriptsDir, rtOpts...)
}

// Close releases the Engine's database resources, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil without WithDatabase.
func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) suiteOptions() suite.Options {
	s := e.cfg.Suite
	return suite.Options{
		ClassPrefix:  s.ClassPrefix,
		Separator:    s.Separator,
		MethodPrefix: s.MethodPrefix,
		Fixture:      s.Fixture,
		BaseMarker:   s.BaseMarker,
	}
}

func (e *Engine) importRules() []runtime.ImportRule {
	rules := make([]runtime.ImportRule, len(e.cfg.Imports))
	for i, r := range e.cfg.Imports {
		rules[i] = runtime.ImportRule{Marker: r.Marker, Line: r.Line}
	}
	return rules
}

// Targets returns the symbols that become exercises: every function, then
// every class when targets.classes is set. A class sharing a function's
// name is not listed twice.
func (e *Engine) Targets(t *Table) []string {
	targets := e.targets(t)
	names := make([]string, len(targets))
	for i, tg := range targets {
		names[i] = tg.Name
	}
	return names
}

func (e *Engine) targets(t *Table) []suite.Target {
	var targets []suite.Target
	seen := make(map[string]bool)
	for _, fn := range t.Functions() {
		seen[fn.Name] = true
		targets = append(targets, suite.Target{Name: fn.Name})
	}
	if e.cfg.Targets.Classes {
		for _, cls := range t.Classes() {
			if !seen[cls.Name] {
				seen[cls.Name] = true
				targets = append(targets, suite.Target{Name: cls.Name, Class: true})
			}
		}
	}
	return targets
}

// Check runs both extractions and coverage validation without assembling
// exercises. It returns the table and suite even when coverage fails.
func (e *Engine) Check(moduleLabel string, moduleSrc []byte, testLabel string, testSrc []byte) (*Table, *Suite, error) {
	table, err := symbols.Extract(moduleLabel, moduleSrc)
	if err != nil {
		return nil, nil, fmt.Errorf("pyexercise: extract symbols: %w", err)
	}
	slog.Info("pyexercise: module analyzed",
		slog.String("module", moduleLabel),
		slog.Int("functions", len(table.Functions())),
		slog.Int("classes", len(table.Classes())))

	opts := e.suiteOptions()
	st, err := suite.Extract(testLabel, testSrc, opts)
	if err != nil {
		return table, nil, fmt.Errorf("pyexercise: extract test suite: %w", err)
	}
	slog.Info("pyexercise: tests analyzed", slog.String("suite", testLabel), slog.Int("groups", st.Len()))

	if err := opts.Validate(e.targets(table), st); err != nil {
		return table, st, err
	}
	return table, st, nil
}

// Build runs the whole pipeline over a module and its test suite. Any error
// aborts the build; no partial result is returned.
func (e *Engine) Build(ctx context.Context, moduleSrc, testSrc []byte) (*Build, error) {
	return e.build(ctx, "module", moduleSrc, "unittest", testSrc)
}

func (e *Engine) build(ctx context.Context, moduleLabel string, moduleSrc []byte, testLabel string, testSrc []byte) (*Build, error) {
	table, st, err := e.Check(moduleLabel, moduleSrc, testLabel, testSrc)
	if err != nil {
		return nil, err
	}

	targets := e.targets(table)
	var exercises []*Exercise
	if e.useParallel && len(targets) > 1 {
		exercises, err = e.buildParallel(ctx, table, st, targets)
	} else {
		exercises, err = e.buildSerial(ctx, table, st, targets)
	}
	if err != nil {
		return nil, err
	}
	return &Build{Module: table, Suite: st, Exercises: exercises}, nil
}

func (e *Engine) buildSerial(ctx context.Context, table *Table, st *Suite, targets []suite.Target) ([]*Exercise, error) {
	universe := table.Universe()
	exercises := make([]*Exercise, 0, len(targets))
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group, ok := st.GroupFor(target)
		if !ok {
			return nil, fmt.Errorf("pyexercise: %s: no test group", target.Name)
		}
		x, err := e.buildExercise(ctx, e.runtime, table, universe, target.Name, group)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, x)
		e.report(target.Name, i+1, len(targets))
	}
	return exercises, nil
}

func (e *Engine) report(target string, done, total int) {
	if e.progress != nil {
		e.progress(target, done, total)
	}
}

// buildExercise assembles one target. rt must not be shared with another
// goroutine.
func (e *Engine) buildExercise(ctx context.Context, rt *runtime.Runtime, table *Table, universe symbols.Universe, target string, group *TestGroup) (*Exercise, error) {
	slog.Debug("pyexercise: building exercise", slog.String("target", target), slog.Int("methods", len(group.Methods)))

	sym, ok := table.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("pyexercise: %s: symbol not found", target)
	}

	support, err := table.Merge(target, group.Setup, universe)
	if err != nil {
		return nil, fmt.Errorf("pyexercise: %s: merge support: %w", target, err)
	}

	x := &Exercise{
		Name:         target,
		Kind:         sym.Kind,
		Docstring:    sym.Docstring,
		QuestionText: e.cfg.QuestionText(target),
		Classes:      supportBlocks(table, symbols.KindClass, support.Classes),
		Functions:    supportBlocks(table, symbols.KindFunction, support.Functions),
	}

	code := []string{sym.Source}
	for _, b := range x.Support() {
		code = append(code, b.Source)
	}
	x.Imports, err = rt.DetectImports(ctx, strings.Join(code, "\n\n"), e.importRules())
	if err != nil {
		return nil, fmt.Errorf("pyexercise: %s: detect imports: %w", target, err)
	}
	x.Template = assembleTemplate(x.Imports, x.Support(), e.cfg.Template)

	for _, m := range group.Methods {
		probes, err := probe.Transform(m.Source, group.Setup)
		if err != nil {
			slog.Error("pyexercise: test method transformation failed",
				slog.String("target", target), slog.String("method", m.Name), slog.Any("error", err))
			return nil, fmt.Errorf("pyexercise: %s: %s: %w", target, m.Name, err)
		}
		x.Cases = append(x.Cases, probe.Combine(m.Name, probes, m.IsFirst))
	}

	slog.Info("pyexercise: exercise built",
		slog.String("target", target),
		slog.Int("support", support.Len()),
		slog.Int("cases", len(x.Cases)))
	return x, nil
}

func supportBlocks(table *Table, kind symbols.Kind, names []string) []SupportBlock {
	var blocks []SupportBlock
	for _, name := range names {
		var sym *Symbol
		var ok bool
		if kind == symbols.KindClass {
			sym, ok = table.Class(name)
		} else {
			sym, ok = table.Function(name)
		}
		if !ok {
			continue
		}
		blocks = append(blocks, SupportBlock{Kind: kind, Name: name, Source: sym.Source})
	}
	return blocks
}

// assembleTemplate lays out the answer template: import lines and a blank
// line, each support block followed by a blank line, then the twig
// template. Without include_dependencies only the twig template remains.
func assembleTemplate(imports []string, blocks []SupportBlock, tc config.TemplateConfig) string {
	var parts []string
	if tc.IncludeDependencies {
		if len(imports) > 0 {
			parts = append(parts, imports...)
			parts = append(parts, "")
		}
		for _, b := range blocks {
			parts = append(parts, b.Source, "")
		}
	}
	parts = append(parts, tc.TwigTemplate)
	return strings.Join(parts, "\n")
}

// Quiz renders a build as a Moodle quiz, using the module docstring as the
// category description.
func (e *Engine) Quiz(b *Build) *moodle.Quiz {
	return moodle.NewGenerator(e.cfg).Quiz(b.Questions(), b.Module.Docstring)
}

// BuildFiles reads a module and its unittest file, builds them, and saves
// the result to the exercise bank when one is configured.
func (e *Engine) BuildFiles(ctx context.Context, modulePath, unittestPath string) (*Build, error) {
	moduleSrc, err := os.ReadFile(modulePath)
	if err != nil {
		return nil, fmt.Errorf("pyexercise: read module: %w", err)
	}
	testSrc, err := os.ReadFile(unittestPath)
	if err != nil {
		return nil, fmt.Errorf("pyexercise: read unittest file: %w", err)
	}

	b, err := e.build(ctx, filepath.Base(modulePath), moduleSrc, filepath.Base(unittestPath), testSrc)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		run := &store.Run{
			ModulePath:   modulePath,
			UnittestPath: unittestPath,
			ModuleHash:   store.HashSource(moduleSrc),
			ScriptsHash:  e.scriptsHash(),
			CreatedAt:    time.Now(),
		}
		if err := e.save(run, b); err != nil {
			return nil, err
		}
		b.RunID = run.ID
	}
	return b, nil
}

// UnittestPath returns the conventional test file of a module:
// <dir>/<stem>_unittest.py.
func UnittestPath(modulePath string) string {
	stem := strings.TrimSuffix(filepath.Base(modulePath), filepath.Ext(modulePath))
	return filepath.Join(filepath.Dir(modulePath), stem+"_unittest.py")
}

// scriptsHash computes a SHA-256 hash of all Risor hook scripts. Walks the
// scriptsFS or scriptsDir to find all .risor files, sorts them by path, and
// hashes their concatenated contents. Returns hex-encoded hash string.
func (e *Engine) scriptsHash() string {
	var paths []string

	if e.scriptsFS != nil {
		fs.WalkDir(e.scriptsFS, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				paths = append(paths, path)
			}
			return nil
		})
	} else if e.scriptsDir != "" {
		filepath.WalkDir(e.scriptsDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				rel, _ := filepath.Rel(e.scriptsDir, path)
				paths = append(paths, rel)
			}
			return nil
		})
	}

	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		src, err := e.runtime.LoadScript(p)
		if err != nil {
			continue
		}
		h.Write([]byte(p))
		h.Write([]byte(src))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ScriptsChanged reports whether the hook scripts differ from those used by
// the last saved run. Returns true if the bank has no stored hash (first
// run) or if the hash doesn't match, and false without a database.
func (e *Engine) ScriptsChanged() bool {
	if e.store == nil {
		return false
	}
	stored, err := e.store.GetMetadata("scripts_hash")
	if err != nil || stored == "" {
		return true
	}
	return e.scriptsHash() != stored
}

// WriteQuiz renders b with Quiz and writes it to path.
func (e *Engine) WriteQuiz(path string, b *Build) error {
	return moodle.WriteFile(path, e.Quiz(b))
}
