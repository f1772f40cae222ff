package pyexercise

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyexercise/internal/config"
	"github.com/jward/pyexercise/internal/pyast"
	"github.com/jward/pyexercise/internal/store"
	"github.com/jward/pyexercise/internal/symbols"
	"github.com/jward/pyexercise/scripts"
)

const (
	testModule   = "testdata/geometrie.py"
	testUnittest = "testdata/geometrie_unittest.py"
)

const carreSource = "def carre(x):\n    \"\"\"Retourne le carré de x.\"\"\"\n    return x * x"

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithScriptsFS(scripts.FS)}, opts...)
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func readTestdata(t *testing.T) (module, tests []byte) {
	t.Helper()
	module, err := os.ReadFile(testModule)
	require.NoError(t, err)
	tests, err = os.ReadFile(testUnittest)
	require.NoError(t, err)
	return module, tests
}

func buildTestdata(t *testing.T, e *Engine) *Build {
	t.Helper()
	module, tests := readTestdata(t)
	b, err := e.Build(context.Background(), module, tests)
	require.NoError(t, err)
	return b
}

func exerciseNames(b *Build) []string {
	names := make([]string, len(b.Exercises))
	for i, x := range b.Exercises {
		names[i] = x.Name
	}
	return names
}

func blockNames(blocks []SupportBlock) []string {
	names := make([]string, len(blocks))
	for i, b := range blocks {
		names[i] = b.Name
	}
	return names
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	require.NotNil(t, e.runtime)
	assert.Nil(t, e.Store())
	assert.Equal(t, "python3", e.Config().CodeRunner.Type)
	assert.False(t, e.useParallel)
	assert.False(t, e.ScriptsChanged())
}

func TestNew_RequiresScripts(t *testing.T) {
	t.Parallel()
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hook scripts")
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.CodeRunner.Type = ""
	_, err := New(WithScriptsFS(scripts.FS), WithConfig(&cfg))
	require.Error(t, err)
}

func TestNew_InvalidDatabasePath(t *testing.T) {
	t.Parallel()
	_, err := New(WithScriptsFS(scripts.FS), WithDatabase("/nonexistent/dir/db.sqlite"))
	require.Error(t, err)
}

func TestNew_ScriptsDirOverridesFS(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	e := newTestEngine(t, WithScriptsDir(dir))
	assert.Nil(t, e.scriptsFS)
	assert.Equal(t, dir, e.scriptsDir)
}

func TestTargets(t *testing.T) {
	t.Parallel()
	module, _ := readTestdata(t)
	table, err := symbols.Extract("geometrie.py", module)
	require.NoError(t, err)

	e := newTestEngine(t)
	assert.Equal(t, []string{"carre", "somme_carres", "exporter", "Point"}, e.Targets(table))

	cfg := config.Default()
	cfg.Targets.Classes = false
	e = newTestEngine(t, WithConfig(&cfg))
	assert.Equal(t, []string{"carre", "somme_carres", "exporter"}, e.Targets(table))
}

func TestBuild_Exercises(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	b := buildTestdata(t, e)

	assert.Equal(t, "Outils de géométrie pour les exercices.", b.Module.Docstring)
	require.Equal(t, []string{"carre", "somme_carres", "exporter", "Point"}, exerciseNames(b))

	carre := b.Exercises[0]
	assert.Equal(t, symbols.KindFunction, carre.Kind)
	assert.Equal(t, "Retourne le carré de x.", carre.Docstring)
	assert.Equal(t, "<p>Implémentez ci-dessous la fonction <em>carre</em> demandée</p>", carre.QuestionText)
	assert.Empty(t, carre.Support())
	assert.Empty(t, carre.Imports)
	assert.Equal(t, config.DefaultTwigTemplate, carre.Template)

	somme := b.Exercises[1]
	assert.Equal(t, []string{"carre"}, blockNames(somme.Functions))
	assert.Equal(t, carreSource+"\n\n"+config.DefaultTwigTemplate, somme.Template)

	exporter := b.Exercises[2]
	assert.Equal(t, []string{"carre", "somme_carres"}, blockNames(exporter.Functions))
	assert.Equal(t, []string{"import json"}, exporter.Imports)
	assert.True(t, strings.HasPrefix(exporter.Template, "import json\n\n"+carreSource+"\n\ndef somme_carres(valeurs):"))
	assert.True(t, strings.HasSuffix(exporter.Template, "\n\n"+config.DefaultTwigTemplate))

	point := b.Exercises[3]
	assert.Equal(t, symbols.KindClass, point.Kind)
	assert.Empty(t, point.Classes)
	assert.Equal(t, []string{"carre"}, blockNames(point.Functions))
}

func TestBuild_TestCases(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	b := buildTestdata(t, e)

	carre := b.Exercises[0]
	assert.Equal(t, []TestCase{
		{Method: "test_positif", Code: "print(carre(3))", Expected: "9", Example: true},
		{Method: "test_negatif", Code: "print(carre(-2))", Expected: "4"},
	}, carre.Cases)

	somme := b.Exercises[1]
	require.Len(t, somme.Cases, 2)
	assert.Equal(t, "print(somme_carres([1, 2]))", somme.Cases[0].Code)
	assert.Equal(t, "try:\n    somme_carres(\"abc\")\n    print(\"KO\")\nexcept TypeError:\n    print(\"OK\")", somme.Cases[1].Code)
	assert.Equal(t, "OK", somme.Cases[1].Expected)

	exporter := b.Exercises[2]
	require.Len(t, exporter.Cases, 1)
	assert.Equal(t, `{"total": 9}`, exporter.Cases[0].Expected)

	point := b.Exercises[3]
	assert.Equal(t, []TestCase{
		{Method: "test_norme", Code: "p = Point(3, 4)\nprint(p.norme2())", Expected: "25", Example: true},
		{Method: "test_coordonnees", Code: "p = Point(3, 4)\nprint(p.x == 3)", Expected: "True"},
	}, point.Cases)
}

func TestBuild_ExactlyOneExamplePerExercise(t *testing.T) {
	t.Parallel()
	b := buildTestdata(t, newTestEngine(t))
	for _, x := range b.Exercises {
		examples := 0
		for _, tc := range x.Cases {
			if tc.Example {
				examples++
			}
		}
		assert.Equal(t, 1, examples, x.Name)
		assert.True(t, x.Cases[0].Example, x.Name)
	}
}

func TestBuild_ParallelMatchesSerial(t *testing.T) {
	t.Parallel()
	serial := buildTestdata(t, newTestEngine(t))
	parallel := buildTestdata(t, newTestEngine(t, WithParallel(true)))
	assert.Equal(t, serial.Exercises, parallel.Exercises)
}

func TestBuild_ReportsProgress(t *testing.T) {
	t.Parallel()
	for _, parallel := range []bool{false, true} {
		var mu sync.Mutex
		var targets []string
		var dones []int
		e := newTestEngine(t, WithParallel(parallel), WithProgress(func(target string, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 4, total)
			targets = append(targets, target)
			dones = append(dones, done)
		}))
		buildTestdata(t, e)

		sort.Strings(targets)
		sort.Ints(dones)
		assert.Equal(t, []string{"Point", "carre", "exporter", "somme_carres"}, targets)
		assert.Equal(t, []int{1, 2, 3, 4}, dones)
	}
}

func TestBuild_WithoutDependencies(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Template.IncludeDependencies = false
	b := buildTestdata(t, newTestEngine(t, WithConfig(&cfg)))
	for _, x := range b.Exercises {
		assert.Equal(t, config.DefaultTwigTemplate, x.Template, x.Name)
	}
	// Support is still computed, only the template leaves it out.
	assert.NotEmpty(t, b.Exercises[2].Functions)
}

func TestBuild_CoverageError(t *testing.T) {
	t.Parallel()
	module, tests := readTestdata(t)
	module = append(module, []byte("\n\ndef cube(x):\n    return x * carre(x)\n\ndef inverse(x):\n    return 1 / x\n")...)

	_, err := newTestEngine(t).Build(context.Background(), module, tests)
	require.Error(t, err)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"cube", "inverse"}, ce.Missing)
	assert.Equal(t, []string{"TestCube", "TestInverse"}, ce.Expected)
}

func TestBuild_CamelCaseFunctionNotCoveredBySnakeGroup(t *testing.T) {
	t.Parallel()
	module := []byte("def feetToMeter(x):\n    return x * 0.3048\n")
	tests := []byte("import unittest\n\nclass TestFeetToMeter(unittest.TestCase):\n    def test_un(self):\n        self.assertEqual(feetToMeter(0), 0.0)\n")

	_, err := newTestEngine(t).Build(context.Background(), module, tests)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"feetToMeter"}, ce.Missing)
}

func TestBuild_ParseErrors(t *testing.T) {
	t.Parallel()
	module, tests := readTestdata(t)
	e := newTestEngine(t)

	_, err := e.Build(context.Background(), []byte("def broken(:\n    pass\n"), tests)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pyast.ErrSyntax))

	_, err = e.Build(context.Background(), module, []byte("class TestCarre(unittest.TestCase)\n    pass\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pyast.ErrSyntax))
}

func TestBuild_Canceled(t *testing.T) {
	t.Parallel()
	module, tests := readTestdata(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t).Build(ctx, module, tests)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheck_ReturnsPartialResultsOnCoverageError(t *testing.T) {
	t.Parallel()
	module, _ := readTestdata(t)
	table, st, err := newTestEngine(t).Check("geometrie.py", module, "empty.py", []byte("import unittest\n"))
	require.Error(t, err)
	require.NotNil(t, table)
	require.NotNil(t, st)
	assert.Zero(t, st.Len())
}

func TestBuildFiles_SavesToDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "bank.db")
	e := newTestEngine(t, WithDatabase(dbPath))
	assert.True(t, e.ScriptsChanged(), "no stored hash before the first run")

	b, err := e.BuildFiles(context.Background(), testModule, testUnittest)
	require.NoError(t, err)
	require.Positive(t, b.RunID)
	assert.False(t, e.ScriptsChanged())

	s := e.Store()
	rows, err := s.ExercisesByRun(b.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "exporter", rows[2].Name)
	assert.Equal(t, []string{"import json"}, rows[2].Imports)
	assert.Len(t, rows[2].ContentHash, 64)

	blocks, err := s.SupportBlocksByExercise(rows[2].ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "carre", blocks[0].Name)
	assert.Equal(t, carreSource, blocks[0].Source)
	assert.Equal(t, "somme_carres", blocks[1].Name)

	cases, err := s.TestCasesByExercise(rows[3].ID)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "test_norme", cases[0].Method)
	assert.True(t, cases[0].Example)

	// A second identical run yields identical content hashes.
	b2, err := e.BuildFiles(context.Background(), testModule, testUnittest)
	require.NoError(t, err)
	latest, err := s.LatestRun(testModule)
	require.NoError(t, err)
	assert.Equal(t, b2.RunID, latest.ID)
	twins, err := s.ExercisesByHash(rows[2].ContentHash)
	require.NoError(t, err)
	assert.Len(t, twins, 2)
}

func TestSave_FailedCommitDiscardsRun(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithDatabase(filepath.Join(t.TempDir(), "bank.db")))

	// Two exercises with the same name in one run violate UNIQUE (run_id, name).
	run := &store.Run{ModulePath: testModule, UnittestPath: testUnittest, ModuleHash: "m", ScriptsHash: "h", CreatedAt: time.Now()}
	b := &Build{Exercises: []*Exercise{
		{Name: "carre", Kind: symbols.KindFunction},
		{Name: "carre", Kind: symbols.KindFunction},
	}}
	err := e.save(run, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carre")

	runs, err := e.Store().Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.True(t, e.ScriptsChanged(), "scripts hash is only stored for saved runs")
}

func TestBuildFiles_MissingFiles(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.BuildFiles(context.Background(), "testdata/nope.py", testUnittest)
	require.Error(t, err)
	_, err = e.BuildFiles(context.Background(), testModule, "testdata/nope_unittest.py")
	require.Error(t, err)
}

func TestWriteQuiz(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	b, err := e.BuildFiles(context.Background(), testModule, testUnittest)
	require.NoError(t, err)
	assert.Zero(t, b.RunID)

	path := filepath.Join(t.TempDir(), "output", "geometrie_moodle.xml")
	require.NoError(t, e.WriteQuiz(path, b))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Equal(t, 4, strings.Count(out, `<question type="coderunner">`))
	assert.Contains(t, out, "<text>Outils de géométrie pour les exercices.</text>")
	assert.Contains(t, out, "<text>Point</text>")
}

func TestUnittestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("input", "calc_unittest.py"), UnittestPath(filepath.Join("input", "calc.py")))
	assert.Equal(t, "calc_unittest.py", UnittestPath("calc.py"))
}

func TestAssembleTemplate(t *testing.T) {
	t.Parallel()
	blocks := []SupportBlock{{Name: "A", Source: "class A:\n    pass"}, {Name: "f", Source: "def f():\n    pass"}}
	tc := config.TemplateConfig{IncludeDependencies: true, TwigTemplate: "{{ STUDENT_ANSWER }}"}

	got := assembleTemplate([]string{"import json", "import math"}, blocks, tc)
	assert.Equal(t, "import json\nimport math\n\nclass A:\n    pass\n\ndef f():\n    pass\n\n{{ STUDENT_ANSWER }}", got)

	assert.Equal(t, "{{ STUDENT_ANSWER }}", assembleTemplate(nil, nil, tc))
}
