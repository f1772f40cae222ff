package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jward/pyexercise"
)

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tLINES\tDEPS")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%s\n",
			s.Name, s.Kind, s.StartLine, s.EndLine, joinOrDash(s.Deps))
	}
	tw.Flush()
}

// formatGroupsText formats CLIGroup results as aligned columns.
func formatGroupsText(w io.Writer, groups []CLIGroup) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tTARGET\tMETHODS\tSETUP")
	for _, g := range groups {
		setup := "no"
		if g.Setup {
			setup = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", g.Name, g.Target, len(g.Methods), setup)
	}
	tw.Flush()
}

// formatExercisesText formats CLIExercise results as aligned columns.
func formatExercisesText(w io.Writer, xs []CLIExercise) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSUPPORT\tIMPORTS\tCASES")
	for _, x := range xs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			x.Name, x.Kind, joinOrDash(x.Support), joinOrDash(x.Imports), x.Cases)
	}
	tw.Flush()
}

// formatRunText formats a CLIRun as a header followed by its exercises.
func formatRunText(w io.Writer, run CLIRun) {
	fmt.Fprintf(w, "Run #%d (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Module: %s\n", run.ModulePath)
	fmt.Fprintf(w, "Tests: %s\n", run.UnittestPath)
	fmt.Fprintln(w)
	formatExercisesText(w, run.Exercises)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIGroup:
		formatGroupsText(w, v)
	case []CLIExercise:
		formatExercisesText(w, v)
	case CLIRun:
		formatRunText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to stdout in the selected format.
func outputResult(result CLIResult) error {
	return writeResult(os.Stdout, result)
}

func writeResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr, with one line per
// symbol lacking a test class.
func outputError(command string, err error) error {
	errorHandled = true
	writeError(os.Stdout, os.Stderr, command, err)
	return err
}

func writeError(stdout, stderr io.Writer, command string, err error) {
	var ce *pyexercise.CoverageError
	isCoverage := errors.As(err, &ce)

	if flagFormat == "text" {
		red := color.New(color.FgRed)
		if !isCoverage {
			red.Fprintf(stderr, "Error: %s\n", err)
			return
		}
		red.Fprintf(stderr, "Error: %d symbols have no test class\n", len(ce.Missing))
		for i, name := range ce.Missing {
			fmt.Fprintf(stderr, "  %s: expected class %s\n", name, color.YellowString(ce.Expected[i]))
		}
		return
	}

	result := CLIResult{Command: command, Error: err.Error()}
	if isCoverage {
		result.Missing = ce.Missing
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
