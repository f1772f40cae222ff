package pyast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTest(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("test.py", []byte(src))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

// firstExpr parses src and returns the file plus the expression of its
// first statement.
func firstExpr(t *testing.T, src string) (*File, Stmt) {
	t.Helper()
	f := parseTest(t, src)
	stmts := Statements(f.Root)
	require.NotEmpty(t, stmts)
	return f, stmts[0]
}

func TestParse_Valid(t *testing.T) {
	t.Parallel()
	f := parseTest(t, "def double(x):\n    return x * 2\n")
	assert.Equal(t, "module", f.Root.Type())
	fn := f.FindFunction(f.Root, "double")
	require.NotNil(t, fn)
	assert.Equal(t, "double", f.Name(fn))
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := Parse("broken.py", []byte("def double(x)\n    return x * 2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken.py", pe.Label)
	assert.GreaterOrEqual(t, pe.Line, 1)
	assert.Contains(t, pe.Error(), "broken.py")
}

func TestClassify(t *testing.T) {
	t.Parallel()
	src := `"""doc"""
x = 1
x += 2
print(x)
x
with open("f") as fh:
    pass
for i in range(3):
    pass
while False:
    pass
if x:
    pass
try:
    pass
except ValueError:
    pass
def f():
    pass
class C:
    pass
@decorator
def g():
    pass
`
	f := parseTest(t, src)
	var kinds []StmtKind
	for _, s := range Statements(f.Root) {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []StmtKind{
		StmtExpr, StmtAssign, StmtAssign, StmtCall, StmtExpr,
		StmtWith, StmtFor, StmtWhile, StmtIf, StmtTry,
		StmtFunction, StmtClass, StmtFunction,
	}, kinds)
	assert.True(t, IsDocstring(Statements(f.Root)[0]))
	assert.False(t, IsDocstring(Statements(f.Root)[4]))
	assert.Equal(t, "with", StmtWith.String())
}

func TestExpr_NormalizesSpacing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want string
	}{
		{"[1,2,3]", "[1, 2, 3]"},
		{"foo( a ,b=2 )", "foo(a, b=2)"},
		{"self.calc.resultat", "calc.resultat"},
		{"x  in  [1,2]", "x in [1, 2]"},
		{"a not in b", "a not in b"},
		{"{'a':1,'b':[2,3]}", "{'a': 1, 'b': [2, 3]}"},
		{"(1,)", "(1,)"},
		{"-x", "-x"},
		{"not  self.ok", "not ok"},
		{"a+b*c", "a + b * c"},
		{"d[ self.k ]", "d[k]"},
		{"a if  b else c", "a if b else c"},
		{"f(*args, **kw)", "f(*args, **kw)"},
		{"len( somme_doubles([1,2]) )", "len(somme_doubles([1, 2]))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			f, s := firstExpr(t, tt.src)
			require.NotNil(t, s.Expr)
			assert.Equal(t, tt.want, f.Expr(s.Expr))
		})
	}
}

func TestValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want string
	}{
		{"10", "10"},
		{"0x1F", "31"},
		{"1_000", "1000"},
		{"5.0", "5.0"},
		{"2.50", "2.5"},
		{"1e3", "1000.0"},
		{"-3", "-3"},
		{"-2.5", "-2.5"},
		{"True", "True"},
		{"None", "None"},
		{"'abc'", "abc"},
		{`"it's"`, "it's"},
		{`'a\tb'`, "a\tb"},
		{`r'\d+'`, `\d+`},
		{`"a" 'b'`, "ab"},
		{"[1, 'a', 2.0]", "[1, 'a', 2.0]"},
		{"[]", "[]"},
		{"{'k': [1, 2], 3: None}", "{'k': [1, 2], 3: None}"},
		{"(1, 2)", "(1, 2)"},
		{`("a", 1)`, "('a', 1)"},
		{`("v",)`, "('v',)"},
		{"()", "()"},
		{`{"k": ("v",)}`, "{'k': ('v',)}"},
		{`[(1, "x"), {"s"}]`, "[(1, 'x'), {'s'}]"},
		{`("a")`, "a"},
		{"double(self.x)", "double(x)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			f, s := firstExpr(t, tt.src)
			require.NotNil(t, s.Expr)
			assert.Equal(t, tt.want, f.Value(s.Expr))
		})
	}
}

func TestStripQualifier(t *testing.T) {
	t.Parallel()
	f, s := firstExpr(t, "self.calc.ajouter(self.x, myself.y)")
	assert.Equal(t, "calc.ajouter(x, myself.y)", f.StripQualifier(s.Node))
}

func TestStatement_Dedents(t *testing.T) {
	t.Parallel()
	src := "def f(self):\n    for i in range(3):\n        self.total += i\n"
	f := parseTest(t, src)
	fn := f.FindFunction(f.Root, "f")
	require.NotNil(t, fn)
	stmts := Statements(Body(fn))
	require.Len(t, stmts, 1)
	assert.Equal(t, "for i in range(3):\n    total += i", f.Statement(stmts[0].Node))
}

func TestStatement_KeepsStringContinuationLines(t *testing.T) {
	t.Parallel()
	src := "def f(self):\n    if ok:\n        s = \"\"\"a\n            b\"\"\"\n        g(self.x)\n"
	f := parseTest(t, src)
	fn := f.FindFunction(f.Root, "f")
	require.NotNil(t, fn)
	stmts := Statements(Body(fn))
	require.Len(t, stmts, 1)

	assert.Equal(t, "if ok:\n    s = \"\"\"a\n            b\"\"\"\n    g(x)", f.Statement(stmts[0].Node))
	assert.Equal(t, "if ok:\n    s = \"\"\"a\n            b\"\"\"\n    g(self.x)", f.Verbatim(stmts[0].Node))
	assert.Equal(t, "  if ok:\n      s = \"\"\"a\n            b\"\"\"\n      g(x)", f.IndentedStatement(stmts[0].Node, "  "))
}

func TestCallTarget(t *testing.T) {
	t.Parallel()
	f, s := firstExpr(t, "obj.method(1)")
	name, viaAttr, ok := f.CallTarget(s.Expr)
	require.True(t, ok)
	assert.Equal(t, "method", name)
	assert.True(t, viaAttr)

	f, s = firstExpr(t, "double(2)")
	name, viaAttr, ok = f.CallTarget(s.Expr)
	require.True(t, ok)
	assert.Equal(t, "double", name)
	assert.False(t, viaAttr)

	f, s = firstExpr(t, "fns[0](2)")
	_, _, ok = f.CallTarget(s.Expr)
	assert.False(t, ok)
}

func TestPositionalArgs(t *testing.T) {
	t.Parallel()
	f, s := firstExpr(t, "self.assertEqual(a, b, msg='x')")
	args := PositionalArgs(s.Expr)
	require.Len(t, args, 2)
	assert.Equal(t, "a", f.Text(args[0]))
	assert.Equal(t, "b", f.Text(args[1]))
}

func TestDocstring(t *testing.T) {
	t.Parallel()
	src := "def f():\n    \"\"\"\n    Retourne le double.\n\n        Indented.\n    \"\"\"\n    return 1\n"
	f := parseTest(t, src)
	fn := f.FindFunction(f.Root, "f")
	assert.Equal(t, "Retourne le double.\n\n    Indented.", f.Docstring(Body(fn)))

	f = parseTest(t, "def g():\n    return 1\n")
	assert.Equal(t, "", f.Docstring(Body(f.FindFunction(f.Root, "g"))))
}

func TestRepr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "'abc'", Repr("abc"))
	assert.Equal(t, `"it's"`, Repr("it's"))
	assert.Equal(t, `'a\nb'`, Repr("a\nb"))
	assert.Equal(t, `'both \' and "'`, Repr(`both ' and "`))
	assert.Equal(t, `'\x00'`, Repr("\x00"))
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.0", FormatFloat(0))
	assert.Equal(t, "10.0", FormatFloat(10))
	assert.Equal(t, "0.1", FormatFloat(0.1))
	assert.Equal(t, "1e+16", FormatFloat(1e16))
	assert.Equal(t, "1.5e-05", FormatFloat(1.5e-5))
}

func TestIndentDedent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "    a\n\n    b", Indent("a\n\nb", "    "))
	assert.Equal(t, "if x:\n    y", Dedent("if x:\n        y", 4))
}
