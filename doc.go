// Package pyexercise turns a Python module and its companion unittest suite
// into self-contained programming exercises: for each testable function or
// class, the minimal ordered support code it depends on plus probe
// statements with the output they must print. The exercises render as
// Moodle CodeRunner questions.
//
// # Pipeline
//
// An [Engine] runs four stages over static source text. Target code is
// never executed and no type checking happens; dependencies are matched by
// call-target name.
//
//  1. Extract: parse the module with tree-sitter and record every function
//     and class with its docstring, exact source text and called names.
//
//  2. Suite: parse the test module, keep the TestCase subclasses, and map
//     each class name to the symbol it tests (TestFeetToMeter tests
//     feet_to_meter). Every target must have a test class.
//
//  3. Support: for each target, merge the function closure of the target,
//     of the classes it reaches, and of its setUp fixture. Callees come
//     before callers.
//
//  4. Probes: rewrite every test method. assertEqual(a, b) becomes
//     print(a) expecting b; assertRaises blocks become a guarded try that
//     prints OK when the exception is raised.
//
// # Usage
//
//	e, err := pyexercise.New(pyexercise.WithScriptsFS(scripts.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	b, err := e.BuildFiles(ctx, "calc.py", "calc_unittest.py")
//	err = e.WriteQuiz("output/calc_moodle.xml", b)
//
// # Scripts
//
// Import detection runs as a Risor script (imports.risor) so the rule can be
// replaced without rebuilding. See the internal/runtime package for the
// globals exposed to scripts.
package pyexercise
