package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/pyexercise/internal/store"
	"github.com/jward/pyexercise/internal/symbols"
)

var checkCmd = &cobra.Command{
	Use:   "check <module.py>",
	Short: "Check that every module symbol has a test class",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <module.py>",
	Short: "Print the module's symbol table with call dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

var flagRun int64

var showCmd = &cobra.Command{
	Use:   "show <bank.db>",
	Short: "List the exercises recorded in an exercise bank",
	Long:  "Prints the exercises of one run (the latest by default) stored by generate --db.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	checkCmd.Flags().StringVar(&flagUnittestFile, "unittest-file", "", "unittest file (default: <stem>_unittest.py next to the module)")
	showCmd.Flags().Int64Var(&flagRun, "run", 0, "run ID to show (default: latest)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	modulePath := args[0]
	unittestPath := resolveUnittestPath(modulePath)

	moduleSrc, err := os.ReadFile(modulePath)
	if err != nil {
		return outputError("check", err)
	}
	testSrc, err := os.ReadFile(unittestPath)
	if err != nil {
		return outputError("check", err)
	}

	engine, err := newEngine()
	if err != nil {
		return outputError("check", err)
	}
	defer engine.Close()

	table, st, err := engine.Check(filepath.Base(modulePath), moduleSrc, filepath.Base(unittestPath), testSrc)
	if err != nil {
		return outputError("check", err)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %d symbols covered by %d test classes\n",
		len(engine.Targets(table)), st.Len())
	return outputResult(CLIResult{Command: "check", Results: toCLIGroups(st.Groups())})
}

func runSymbols(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return outputError("symbols", err)
	}
	table, err := symbols.Extract(filepath.Base(args[0]), src)
	if err != nil {
		return outputError("symbols", err)
	}
	return outputResult(CLIResult{Command: "symbols", Results: toCLISymbols(table)})
}

func runShow(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return outputError("show", fmt.Errorf("database not found: %s", args[0]))
	}
	s, err := store.NewStore(args[0])
	if err != nil {
		return outputError("show", err)
	}
	defer s.Close()

	run, err := selectRun(s, flagRun)
	if err != nil {
		return outputError("show", err)
	}
	result, err := loadCLIRun(s, run)
	if err != nil {
		return outputError("show", err)
	}
	return outputResult(CLIResult{Command: "show", Results: result})
}

// selectRun returns the run with the given ID, or the most recent one when
// id is zero.
func selectRun(s *store.Store, id int64) (*store.Run, error) {
	runs, err := s.Runs()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}
	if id == 0 {
		return runs[len(runs)-1], nil
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run #%d not found", id)
}
