// Package config loads the YAML configuration driving exercise generation:
// CodeRunner question fields, test case defaults, the quiz category, the
// answer template, suite naming conventions and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CodeRunnerConfig holds the per-question CodeRunner fields copied into
// every generated question.
type CodeRunnerConfig struct {
	Type                     string  `yaml:"type"`
	PrototypeType            int     `yaml:"prototypetype"`
	AllOrNothing             int     `yaml:"allornothing"`
	PenaltyRegime            string  `yaml:"penaltyregime"`
	Precheck                 int     `yaml:"precheck"`
	HideCheck                int     `yaml:"hidecheck"`
	ShowSource               int     `yaml:"showsource"`
	AnswerBoxLines           int     `yaml:"answerboxlines"`
	AnswerBoxColumns         int     `yaml:"answerboxcolumns"`
	ValidateOnSave           int     `yaml:"validateonsave"`
	HoistTemplateParams      int     `yaml:"hoisttemplateparams"`
	ExtractCodeFromJSON      int     `yaml:"extractcodefromjson"`
	TemplateParamsLang       string  `yaml:"templateparamslang"`
	TemplateParamsEvalPerTry int     `yaml:"templateparamsevalpertry"`
	TemplateParamsEvald      string  `yaml:"templateparamsevald"`
	TwigAll                  int     `yaml:"twigall"`
	DisplayFeedback          int     `yaml:"displayfeedback"`
	GiveUpAllowed            int     `yaml:"giveupallowed"`
	DefaultGrade             float64 `yaml:"defaultgrade"`
	Penalty                  float64 `yaml:"penalty"`
}

// TestCaseConfig holds the attributes shared by every generated test case.
type TestCaseConfig struct {
	Display        string  `yaml:"display"`
	TestType       int     `yaml:"testtype"`
	HideRestIfFail int     `yaml:"hiderestiffail"`
	Mark           float64 `yaml:"mark"`
}

type CategoryConfig struct {
	Path       string `yaml:"path"`
	Info       string `yaml:"info"`
	InfoFormat string `yaml:"info_format"`
}

// TemplateConfig controls how the answer template is assembled. When
// IncludeDependencies is false only the twig template is emitted.
type TemplateConfig struct {
	IncludeDependencies bool   `yaml:"include_dependencies"`
	TwigTemplate        string `yaml:"twig_template"`
}

// QuestionConfig holds the question text; "{name}" is replaced by the
// exercise name.
type QuestionConfig struct {
	Text string `yaml:"text"`
}

// SuiteConfig holds the naming conventions linking test classes to symbols.
type SuiteConfig struct {
	ClassPrefix  string `yaml:"class_prefix"`
	Separator    string `yaml:"separator"`
	MethodPrefix string `yaml:"method_prefix"`
	Fixture      string `yaml:"fixture"`
	BaseMarker   string `yaml:"base_marker"`
}

// TargetsConfig selects which symbols become exercises. Functions always do.
type TargetsConfig struct {
	Classes bool `yaml:"classes"`
}

// ImportRule adds Line to an exercise template when Marker occurs in the
// target or its support code.
type ImportRule struct {
	Marker string `yaml:"marker"`
	Line   string `yaml:"line"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config holds the full generator configuration.
type Config struct {
	CodeRunner CodeRunnerConfig `yaml:"coderunner"`
	TestCase   TestCaseConfig   `yaml:"testcase"`
	Category   CategoryConfig   `yaml:"category"`
	Template   TemplateConfig   `yaml:"template"`
	Question   QuestionConfig   `yaml:"question"`
	Suite      SuiteConfig      `yaml:"suite"`
	Targets    TargetsConfig    `yaml:"targets"`
	Imports    []ImportRule     `yaml:"imports"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tags       []string         `yaml:"tags"`

	source string
}

// DefaultTwigTemplate runs every test case in one submission, separated
// by CodeRunner's combinator separator.
const DefaultTwigTemplate = `{{ STUDENT_ANSWER }}

SEPARATOR = "#<ab@17943918#@>#"

{% for TEST in TESTCASES %}
{{ TEST.testcode }}
{% if not loop.last %}
print(SEPARATOR)
{% endif %}
{% endfor %}`

// Default returns a baseline configuration.
func Default() Config {
	return Config{
		CodeRunner: CodeRunnerConfig{
			Type:                "python3",
			AllOrNothing:        1,
			PenaltyRegime:       "0, 10, 20, ...",
			AnswerBoxLines:      18,
			AnswerBoxColumns:    100,
			ValidateOnSave:      1,
			HoistTemplateParams: 1,
			ExtractCodeFromJSON: 1,
			TemplateParamsLang:  "None",
			TemplateParamsEvald: "{}",
			DisplayFeedback:     1,
			DefaultGrade:        1.0,
		},
		TestCase: TestCaseConfig{
			Display: "SHOW",
			Mark:    1.0,
		},
		Category: CategoryConfig{
			Path:       "$course$/top/Python",
			InfoFormat: "html",
		},
		Template: TemplateConfig{
			IncludeDependencies: true,
			TwigTemplate:        DefaultTwigTemplate,
		},
		Question: QuestionConfig{
			Text: "<p>Implémentez ci-dessous la fonction <em>{name}</em> demandée</p>",
		},
		Suite: SuiteConfig{
			ClassPrefix:  "Test",
			Separator:    "_",
			MethodPrefix: "test_",
			Fixture:      "setUp",
			BaseMarker:   "TestCase",
		},
		Targets: TargetsConfig{Classes: true},
		Imports: []ImportRule{{Marker: "json", Line: "import json"}},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file over the defaults. Missing
// files fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.source = path
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.source = path
	return &cfg, nil
}

// Source returns the path the configuration was loaded from, if any.
func (c *Config) Source() string {
	return c.source
}

// QuestionText renders the question text for one exercise.
func (c *Config) QuestionText(name string) string {
	return strings.ReplaceAll(c.Question.Text, "{name}", name)
}

var validDisplays = map[string]bool{"SHOW": true, "HIDE": true, "HIDE_IF_FAIL": true, "HIDE_IF_SUCCEED": true}

// Validate performs simple sanity checks on the configuration.
func (c *Config) Validate() error {
	if c.CodeRunner.Type == "" {
		return errors.New("config: coderunner.type required")
	}
	if c.Template.TwigTemplate == "" {
		return errors.New("config: template.twig_template required")
	}
	if c.Suite.ClassPrefix == "" {
		return errors.New("config: suite.class_prefix required")
	}
	if c.Suite.MethodPrefix == "" {
		return errors.New("config: suite.method_prefix required")
	}
	if !validDisplays[c.TestCase.Display] {
		return fmt.Errorf("config: testcase.display %q not one of SHOW, HIDE, HIDE_IF_FAIL, HIDE_IF_SUCCEED", c.TestCase.Display)
	}
	if c.TestCase.Mark < 0 {
		return fmt.Errorf("config: testcase.mark must not be negative, got %v", c.TestCase.Mark)
	}
	for i, rule := range c.Imports {
		if rule.Marker == "" || rule.Line == "" {
			return fmt.Errorf("config: imports[%d]: marker and line required", i)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q not one of text, json", c.Logging.Format)
	}
	return nil
}

// PrettyYAML renders the configuration as YAML for diagnostics.
func (c Config) PrettyYAML() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", c)
	}
	return string(out)
}
