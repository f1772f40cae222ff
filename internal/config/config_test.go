package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "python3", cfg.CodeRunner.Type)
	assert.Equal(t, "SHOW", cfg.TestCase.Display)
	assert.Equal(t, DefaultTwigTemplate, cfg.Template.TwigTemplate)
	assert.True(t, cfg.Targets.Classes)
	assert.Equal(t, []ImportRule{{Marker: "json", Line: "import json"}}, cfg.Imports)
	assert.Empty(t, cfg.Source())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", cfg.Suite.ClassPrefix)
	assert.Equal(t, path, cfg.Source())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
coderunner:
  type: python3_w_input
  penalty: 0.1
testcase:
  display: HIDE
  mark: 2.5
category:
  path: $course$/top/TP1
targets:
  classes: false
imports:
  - marker: "math."
    line: import math
tags: [python, tp1]
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "python3_w_input", cfg.CodeRunner.Type)
	assert.InDelta(t, 0.1, cfg.CodeRunner.Penalty, 1e-9)
	// Untouched keys keep their defaults.
	assert.Equal(t, 18, cfg.CodeRunner.AnswerBoxLines)
	assert.InDelta(t, 1.0, cfg.CodeRunner.DefaultGrade, 1e-9)

	assert.Equal(t, "HIDE", cfg.TestCase.Display)
	assert.InDelta(t, 2.5, cfg.TestCase.Mark, 1e-9)
	assert.Equal(t, "$course$/top/TP1", cfg.Category.Path)
	assert.Equal(t, "html", cfg.Category.InfoFormat)
	assert.False(t, cfg.Targets.Classes)
	assert.Equal(t, []ImportRule{{Marker: "math.", Line: "import math"}}, cfg.Imports)
	assert.Equal(t, []string{"python", "tp1"}, cfg.Tags)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, path, cfg.Source())
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "coderunner: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing type", func(c *Config) { c.CodeRunner.Type = "" }, "coderunner.type"},
		{"missing twig", func(c *Config) { c.Template.TwigTemplate = "" }, "twig_template"},
		{"missing class prefix", func(c *Config) { c.Suite.ClassPrefix = "" }, "class_prefix"},
		{"missing method prefix", func(c *Config) { c.Suite.MethodPrefix = "" }, "method_prefix"},
		{"bad display", func(c *Config) { c.TestCase.Display = "MAYBE" }, "testcase.display"},
		{"negative mark", func(c *Config) { c.TestCase.Mark = -1 }, "testcase.mark"},
		{"incomplete import", func(c *Config) { c.Imports = []ImportRule{{Marker: "re."}} }, "imports[0]"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQuestionText(t *testing.T) {
	t.Parallel()
	cfg := Default()
	assert.Equal(t, "<p>Implémentez ci-dessous la fonction <em>double</em> demandée</p>", cfg.QuestionText("double"))

	cfg.Question.Text = "Écrire {name}"
	assert.Equal(t, "Écrire somme", cfg.QuestionText("somme"))
}

func TestPrettyYAML_RoundTrips(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Tags = []string{"python"}
	path := writeConfig(t, cfg.PrettyYAML())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CodeRunner, got.CodeRunner)
	assert.Equal(t, cfg.Template, got.Template)
	assert.Equal(t, cfg.Tags, got.Tags)
}
