// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/restage/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("restage", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
restage - selectively re-execute stale stages of a pipeline.

Usage:
  restage [options] [TARGET]

Arguments:
  TARGET
    Path to a stage file, or to a directory when -recursive is set.
    May be omitted when -all-pipelines is set.

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("C", ".", "Repository root directory.")
	recursiveFlag := flagSet.Bool("recursive", false, "Treat a directory target as a set of independent starting points.")
	pipelineFlag := flagSet.Bool("pipeline", false, "Reproduce the target's whole pipeline.")
	allPipelinesFlag := flagSet.Bool("all-pipelines", false, "Reproduce every pipeline in the repository.")
	dryFlag := flagSet.Bool("dry", false, "Report what would be reproduced without executing commands.")
	forceFlag := flagSet.Bool("force", false, "Reproduce stages even when their inputs look unchanged.")
	interactiveFlag := flagSet.Bool("interactive", false, "Ask for confirmation before reproducing each stage.")
	downstreamFlag := flagSet.Bool("downstream", false, "Reproduce the target's dependents instead of its dependencies.")
	singleItemFlag := flagSet.Bool("single-item", false, "Reproduce only the target stage, without traversal.")
	ignoreBuildCacheFlag := flagSet.Bool("ignore-build-cache", false, "Force all remaining stages once any upstream stage changes.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format: 'text' or 'json'. Defaults to the repository config.")
	logLevelFlag := flagSet.String("log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Defaults to the repository config.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "at most one target may be given"}
	}
	target := ""
	if flagSet.NArg() == 1 {
		target = flagSet.Arg(0)
	}

	if target == "" && !*allPipelinesFlag {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	switch logFormat {
	case "", "text", "json":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	// The interactive default comes from the repository config, so remember
	// whether the caller set the flag explicitly.
	interactiveSet := false
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "interactive" {
			interactiveSet = true
		}
	})

	config, err := app.NewConfig(app.Config{
		RootDir:          *rootFlag,
		Target:           target,
		Recursive:        *recursiveFlag,
		Pipeline:         *pipelineFlag,
		AllPipelines:     *allPipelinesFlag,
		Dry:              *dryFlag,
		Force:            *forceFlag,
		Interactive:      *interactiveFlag,
		InteractiveSet:   interactiveSet,
		Downstream:       *downstreamFlag,
		SingleItem:       *singleItemFlag,
		IgnoreBuildCache: *ignoreBuildCacheFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
