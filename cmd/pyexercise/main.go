package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/pyexercise"
	"github.com/jward/pyexercise/internal/config"
	"github.com/jward/pyexercise/internal/logging"
	"github.com/jward/pyexercise/scripts"
)

var (
	flagConfig     string
	flagFormat     string
	flagScriptsDir string
	flagLogLevel   string
)

// cfg is loaded once by the root command before any subcommand runs.
var (
	cfg       config.Config
	logCloser io.Closer
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pyexercise",
	Short:         "Turn a Python module and its unittest suite into CodeRunner exercises",
	Long:          "pyexercise reads a Python module and its unittest file, computes the support code each function or class needs, rewrites the test methods as print/expected-output cases, and writes a Moodle XML quiz.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file (default: built-in settings)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts-dir", "", "load hook scripts from disk path instead of embedded")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARNING, ERROR)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(showCmd)
}

// setup loads the configuration and installs the default logger.
func setup(stderr io.Writer) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		loaded.Logging.Level = flagLogLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = *loaded

	logger, closer, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logCloser = closer
	return nil
}

// newEngine builds an Engine from the loaded configuration and CLI flags.
// --scripts-dir overrides the embedded hook scripts.
func newEngine(extra ...pyexercise.Option) (*pyexercise.Engine, error) {
	opts := []pyexercise.Option{pyexercise.WithConfig(&cfg)}
	if flagScriptsDir != "" {
		opts = append(opts, pyexercise.WithScriptsDir(flagScriptsDir))
	} else {
		opts = append(opts, pyexercise.WithScriptsFS(scripts.FS))
	}
	opts = append(opts, extra...)
	e, err := pyexercise.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}
