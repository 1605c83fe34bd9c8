// Command minilang is the CLI front end for the core: a REPL, a
// single-file runner, and a multi-file/glob batch runner. It follows
// the hashicorp/cli Command+Ui shape the rest of the corpus uses for its
// command-line surface, with structured diagnostics on go-hclog and
// multi-file failure aggregation on go-multierror.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/minilang-dev/minilang/interp"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options holds the CLI's registered flags.
type options struct {
	LogLevel string
	LogJSON  bool
}

// registerFlags wires the CLI's global flags onto fs, the way the
// teacher's ccLanguage.RegisterFlags hangs language-specific flags off a
// caller-supplied *flag.FlagSet.
func registerFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.StringVar(&opts.LogLevel, "log-level", "warn", "diagnostic log level: trace, debug, info, warn, error")
	fs.BoolVar(&opts.LogJSON, "log-json", false, "emit diagnostic logs as JSON")
	return opts
}

// parseFlags parses the leading flag arguments and returns the resolved
// options plus whatever positional arguments remain (the subcommand or
// file path). flag.ContinueOnError already prints usage/errors to the
// FlagSet's output (stderr by default) before returning.
func parseFlags(args []string) (*options, []string, error) {
	fs := flag.NewFlagSet("minilang", flag.ContinueOnError)
	opts := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

func run(args []string) int {
	opts, rest, err := parseFlags(args)
	if err != nil {
		return 1
	}
	log := newLogger(opts)

	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	// Bare "minilang <file>" and bare "minilang" (REPL) are not
	// subcommands; hashicorp/cli only dispatches recognised command
	// names, so those two forms are handled directly before handing
	// off to the CLI dispatcher. Global flags have already been
	// stripped out of rest by parseFlags, so rest[0] is never a flag.
	switch {
	case len(rest) == 0:
		return runREPL(ui, log)
	case rest[0] != "run":
		return runFileMode(ui, rest[0], log)
	}

	c := cli.NewCLI("minilang", version)
	c.Args = rest
	c.Commands = map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return &RunCommand{UI: ui, Log: log}, nil
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}

const version = "0.1.0"

// newLogger builds the diagnostic logger from the resolved CLI options.
// An unrecognised level string resolves to hclog.NoLevel, which
// hclog.New replaces with its default level (info); "off" silences the
// logger, matching hclog's own convention.
func newLogger(opts *options) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "minilang",
		Level:      hclog.LevelFromString(opts.LogLevel),
		Output:     os.Stderr,
		JSONFormat: opts.LogJSON,
	})
}

// newDefaultLogger returns the logger for contexts with no flags to
// parse (tests, and internal defaults), at the CLI's default level.
func newDefaultLogger() hclog.Logger {
	return newLogger(&options{LogLevel: "warn"})
}

// runFileMode implements "minilang <file>": read, run, print output
// lines, exit 1 on any staged error.
func runFileMode(ui cli.Ui, path string, log hclog.Logger) int {
	out, err := interp.RunFile(path, log)
	if err != nil {
		ui.Error(diagnosticMessage(path, err))
		return 1
	}
	for _, line := range out {
		ui.Output(line)
	}
	return 0
}

// runREPL implements the interactive session: banner, ">> " prompt,
// blank-line skip, per-line error recovery against a persistent
// Interpreter, EOF exit 0.
func runREPL(ui cli.Ui, log hclog.Logger) int {
	ui.Output("minilang REPL (Ctrl+Z to exit)")

	in := interp.New(log)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprint(os.Stdout, ">> ")
		if !scanner.Scan() {
			return 0
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		out, err := in.Run(line)
		if err != nil {
			ui.Error(diagnosticMessage("", err))
			continue
		}
		for _, entry := range out {
			ui.Output(entry)
		}
	}
}

// diagnosticMessage renders a staged interp error with the §6 stage
// prefix; any other error (a file-read failure, which interp.RunFile has
// already wrapped with its path) is rendered by its own message. path is
// not used.
func diagnosticMessage(path string, err error) string {
	var stageErr *interp.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Error()
	}
	return err.Error()
}

// RunCommand implements "minilang run <file> [<file>...]": each operand
// may be a literal path or a doublestar glob; every matched file runs
// against its own fresh Interpreter, and failures across the whole
// batch are aggregated rather than aborting the run early.
type RunCommand struct {
	UI  cli.Ui
	Log hclog.Logger
}

func (c *RunCommand) Help() string {
	return "Usage: minilang run <file-or-glob> [<file-or-glob>...]\n\n" +
		"Runs each matched file through a fresh interpreter. Exits 1 if any file fails."
}

func (c *RunCommand) Synopsis() string {
	return "Run one or more minilang files, expanding globs"
}

func (c *RunCommand) Run(args []string) int {
	if len(args) == 0 {
		c.UI.Error("minilang run: at least one file or glob is required")
		return 1
	}

	var paths []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			c.UI.Error(fmt.Sprintf("minilang run: bad pattern %q: %s", pattern, err))
			return 1
		}
		if len(matches) == 0 {
			// Not a glob, or a glob with no matches: treat literally so
			// a plain filename argument still surfaces its own
			// read error instead of silently vanishing.
			paths = append(paths, pattern)
			continue
		}
		paths = append(paths, matches...)
	}

	log := c.Log
	if log == nil {
		log = newDefaultLogger()
	}

	var result *multierror.Error
	for _, path := range paths {
		out, err := interp.RunFile(path, log)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, path))
			continue
		}
		for _, line := range out {
			c.UI.Output(line)
		}
	}

	if result != nil {
		for _, err := range result.Errors {
			c.UI.Error(err.Error())
		}
		return 1
	}
	return 0
}
