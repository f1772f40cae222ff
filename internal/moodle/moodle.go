// Package moodle renders exercises as a Moodle XML quiz of CodeRunner
// questions.
package moodle

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jward/pyexercise/internal/config"
	"github.com/jward/pyexercise/internal/probe"
)

// Question is the generator's view of one exercise.
type Question struct {
	Name     string
	Text     string
	Template string
	Cases    []probe.TestCase
}

// Generator builds quiz documents from the coderunner, testcase, category
// and tags sections of the configuration.
type Generator struct {
	cfg *config.Config
}

func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Quiz builds the document: one category question followed by one
// coderunner question per exercise, in order. An empty categoryInfo falls
// back to the configured one.
func (g *Generator) Quiz(questions []Question, categoryInfo string) *Quiz {
	slog.Info("moodle: building quiz", slog.Int("questions", len(questions)))

	if categoryInfo == "" {
		categoryInfo = g.cfg.Category.Info
	}
	q := &Quiz{
		Category: categoryQuestion{
			Type:     "category",
			Category: text{Text: g.cfg.Category.Path},
			Info:     formattedText{Format: g.cfg.Category.InfoFormat, Text: categoryInfo},
		},
	}
	for _, question := range questions {
		q.Questions = append(q.Questions, g.codeRunner(question))
	}
	return q
}

func (g *Generator) codeRunner(q Question) codeRunnerQuestion {
	cr := g.cfg.CodeRunner
	out := codeRunnerQuestion{
		Type:                     "coderunner",
		Name:                     text{Text: q.Name},
		QuestionText:             cdataText{Format: "html", Text: cdata{Value: q.Text}},
		GeneralFeedback:          formattedText{Format: "html"},
		DefaultGrade:             pyFloat(cr.DefaultGrade),
		Penalty:                  pyFloat(cr.Penalty),
		Hidden:                   "0",
		CodeRunnerType:           cr.Type,
		PrototypeType:            cr.PrototypeType,
		AllOrNothing:             cr.AllOrNothing,
		PenaltyRegime:            cr.PenaltyRegime,
		Precheck:                 cr.Precheck,
		HideCheck:                cr.HideCheck,
		ShowSource:               cr.ShowSource,
		AnswerBoxLines:           cr.AnswerBoxLines,
		AnswerBoxColumns:         cr.AnswerBoxColumns,
		Template:                 cdata{Value: q.Template},
		ValidateOnSave:           cr.ValidateOnSave,
		HoistTemplateParams:      cr.HoistTemplateParams,
		ExtractCodeFromJSON:      cr.ExtractCodeFromJSON,
		TemplateParamsLang:       cr.TemplateParamsLang,
		TemplateParamsEvalPerTry: cr.TemplateParamsEvalPerTry,
		TemplateParamsEvald:      cr.TemplateParamsEvald,
		TwigAll:                  cr.TwigAll,
		Attachments:              "0",
		AttachmentsRequired:      "0",
		MaxFileSize:              "10240",
		DisplayFeedback:          cr.DisplayFeedback,
		GiveUpAllowed:            cr.GiveUpAllowed,
	}
	for _, tc := range q.Cases {
		out.TestCases.Cases = append(out.TestCases.Cases, g.testCase(tc))
	}
	for _, tag := range g.cfg.Tags {
		out.Tags.Tags = append(out.Tags.Tags, text{Text: tag})
	}
	return out
}

func (g *Generator) testCase(tc probe.TestCase) testCase {
	example := "0"
	if tc.Example {
		example = "1"
	}
	return testCase{
		TestType:       strconv.Itoa(g.cfg.TestCase.TestType),
		UseAsExample:   example,
		HideRestIfFail: strconv.Itoa(g.cfg.TestCase.HideRestIfFail),
		Mark:           fmt.Sprintf("%.7f", g.cfg.TestCase.Mark),
		TestCode:       cdataText{Text: cdata{Value: tc.Code}},
		Expected:       text{Text: tc.Expected},
		Display:        text{Text: g.cfg.TestCase.Display},
	}
}

// Encode writes quiz as indented XML with a declaration.
func Encode(w io.Writer, quiz *Quiz) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("moodle: write header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(quiz); err != nil {
		return fmt.Errorf("moodle: encode quiz: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("moodle: encode quiz: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile encodes quiz to path, creating parent directories.
func WriteFile(path string, quiz *Quiz) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("moodle: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("moodle: create %q: %w", path, err)
	}
	if err := Encode(f, quiz); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("moodle: close %q: %w", path, err)
	}
	slog.Info("moodle: quiz written", slog.String("path", path), slog.Int("questions", len(quiz.Questions)))
	return nil
}

// pyFloat formats f the way Moodle exports grades: always with a decimal
// point.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
