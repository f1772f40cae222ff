package suite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyexercise/internal/pyast"
)

const calcTests = `"""Tests du module calc."""

import unittest
from unittest import TestCase


class TestDouble(unittest.TestCase):
    """Tests pour double"""

    def test_positif(self):
        """Nombre positif"""
        self.assertEqual(double(5), 10)

    def helper(self):
        return 1

    def test_zero(self):
        self.assertEqual(double(0), 0)


class Test_Calculatrice(TestCase):
    def setUp(self):
        self.calc = Calculatrice(10)

    @unittest.skip("later")
    def test_ajouter(self):
        self.calc.ajouter(5)
        self.assertEqual(self.calc.resultat, 15)


class Helper:
    def test_ignored(self):
        pass


class CheckSomme(unittest.TestCase):
    def test_x(self):
        pass


def test_module_level():
    pass
`

func extractTest(t *testing.T, src string) *Suite {
	t.Helper()
	s, err := Extract("calc_unittest.py", []byte(src), DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestCamelToSnake(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"FeetToMeter", "feet_to_meter"},
		{"Somme", "somme"},
		{"HTTPRequest", "http_request"},
		{"HTTPStatus", "http_status"},
		{"getHTTPResponseCode", "get_http_response_code"},
		{"Version2Parser", "version2_parser"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CamelToSnake(tt.in))
		})
	}
}

func TestSymbolName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "feet_to_meter", SymbolName("TestFeetToMeter"))
	assert.Equal(t, "somme", SymbolName("Test_Somme"))
	assert.Equal(t, "http_request", SymbolName("TestHTTPRequest"))
	assert.Equal(t, "http_status", SymbolName("Test_HTTPStatus"))
	assert.Equal(t, "", SymbolName("CheckSomme"))

	_, ok := DefaultOptions().SymbolName("CheckSomme")
	assert.False(t, ok)
}

func TestGroupName_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, sym := range []string{"feet_to_meter", "somme", "moyenne_doubles", "calculatrice"} {
		g := GroupName(sym)
		assert.Equal(t, sym, SymbolName(g), g)
	}
	assert.Equal(t, "TestFeetToMeter", GroupName("feet_to_meter"))
}

func TestExtract_Groups(t *testing.T) {
	t.Parallel()
	s := extractTest(t, calcTests)
	require.Equal(t, 2, s.Len())

	d, ok := s.Group("double")
	require.True(t, ok)
	assert.Equal(t, "TestDouble", d.Name)
	assert.Equal(t, "Tests pour double", d.Docstring)
	assert.Empty(t, d.Setup)
	require.Len(t, d.Methods, 2)
	assert.Equal(t, "test_positif", d.Methods[0].Name)
	assert.True(t, d.Methods[0].IsFirst)
	assert.Equal(t, "Nombre positif", d.Methods[0].Docstring)
	assert.Equal(t, 10, d.Methods[0].Line)
	assert.Equal(t, "def test_positif(self):\n        \"\"\"Nombre positif\"\"\"\n        self.assertEqual(double(5), 10)", d.Methods[0].Source)
	assert.Equal(t, "test_zero", d.Methods[1].Name)
	assert.False(t, d.Methods[1].IsFirst)

	c, ok := s.Group("calculatrice")
	require.True(t, ok)
	assert.Equal(t, "def setUp(self):\n        self.calc = Calculatrice(10)", c.Setup)
	require.Len(t, c.Methods, 1)
	assert.True(t, c.Methods[0].IsFirst)
	assert.True(t, len(c.Methods[0].Source) > 0)
	assert.Equal(t, "def test_ajouter(self):", c.Methods[0].Source[:len("def test_ajouter(self):")])

	_, ok = s.Group("helper")
	assert.False(t, ok)
	_, ok = s.Group("check_somme")
	assert.False(t, ok)

	var groups []string
	for _, g := range s.Groups() {
		groups = append(groups, g.Name)
	}
	assert.Equal(t, []string{"TestDouble", "Test_Calculatrice"}, groups)
}

func TestExtract_LaterGroupReplaces(t *testing.T) {
	t.Parallel()
	src := `import unittest

class TestSomme(unittest.TestCase):
    def test_a(self):
        pass

class Test_Somme(unittest.TestCase):
    def test_b(self):
        pass
`
	s := extractTest(t, src)
	require.Equal(t, 1, s.Len())
	g, ok := s.Group("somme")
	require.True(t, ok)
	assert.Equal(t, "Test_Somme", g.Name)
	assert.Equal(t, "test_b", g.Methods[0].Name)
}

func TestExtract_CustomOptions(t *testing.T) {
	t.Parallel()
	src := `class CheckDouble(Base):
    def prepare(self):
        self.x = 1

    def check_one(self):
        pass
`
	opts := Options{ClassPrefix: "Check", MethodPrefix: "check_", Fixture: "prepare", BaseMarker: "Base"}
	s, err := Extract("t.py", []byte(src), opts)
	require.NoError(t, err)
	g, ok := s.Group("double")
	require.True(t, ok)
	assert.Contains(t, g.Setup, "def prepare(self):")
	require.Len(t, g.Methods, 1)
	assert.Equal(t, "check_one", g.Methods[0].Name)
}

func TestExtract_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := Extract("bad.py", []byte("class TestX(unittest.TestCase)\n    pass\n"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pyast.ErrSyntax))
}

func TestValidate(t *testing.T) {
	t.Parallel()
	src := "import unittest\n\nclass TestA(unittest.TestCase):\n    def test_x(self):\n        pass\n"
	s := extractTest(t, src)

	require.NoError(t, Validate(Functions("a"), s))

	err := Validate(Functions("a", "b"), s)
	require.Error(t, err)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"b"}, ce.Missing)
	assert.Equal(t, []string{"TestB"}, ce.Expected)
	assert.Contains(t, err.Error(), "TestB")
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	t.Parallel()
	s := extractTest(t, "x = 1\n")
	err := Validate(Functions("feet_to_meter", "somme", "double"), s)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"feet_to_meter", "somme", "double"}, ce.Missing)
	assert.Equal(t, []string{"TestFeetToMeter", "TestSomme", "TestDouble"}, ce.Expected)
}

func TestGroup_ClassTargetBySnakeCase(t *testing.T) {
	t.Parallel()
	src := "import unittest\n\n" +
		"class Test_Calculatrice(unittest.TestCase):\n    def test_x(self):\n        pass\n\n" +
		"class TestHTTPStatus(unittest.TestCase):\n    def test_y(self):\n        pass\n"
	s := extractTest(t, src)

	g, ok := s.ClassGroup("Calculatrice")
	require.True(t, ok)
	assert.Equal(t, "Test_Calculatrice", g.Name)

	g, ok = s.ClassGroup("HTTPStatus")
	require.True(t, ok)
	assert.Equal(t, "http_status", g.Target)

	require.NoError(t, Validate(Classes("Calculatrice", "HTTPStatus"), s))

	err := Validate(Classes("Rapport"), s)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Rapport"}, ce.Missing)
	assert.Equal(t, []string{"TestRapport"}, ce.Expected)
}

func TestValidate_CamelCaseFunctionNeedsExactGroup(t *testing.T) {
	t.Parallel()
	src := "import unittest\n\nclass TestFeetToMeter(unittest.TestCase):\n    def test_x(self):\n        pass\n"
	s := extractTest(t, src)

	_, ok := s.Group("feetToMeter")
	assert.False(t, ok)
	_, ok = s.GroupFor(Target{Name: "feetToMeter"})
	assert.False(t, ok)

	err := Validate(Functions("feetToMeter", "feet_to_meter"), s)
	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"feetToMeter"}, ce.Missing)

	require.NoError(t, Validate(Classes("FeetToMeter"), s))
}
