package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/matrixci/internal/app"
)

// Process exit codes. Job failures and configuration problems are
// deliberately distinct so wrapping automation can tell them apart.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
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

const usageText = `matrixci - a platform-matrix CI pipeline orchestrator.

Usage:
  matrixci run [options] <pipeline-file>
  matrixci validate [options] <pipeline-file>

Commands:
  run        Execute the pipeline and report every node's terminal state.
  validate   Check the pipeline description without executing anything.

Arguments:
  <pipeline-file>
    Path to a .hcl or .yaml pipeline description.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("matrixci", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 0 sizes one lane per platform.")
	workdirFlag := flagSet.String("workdir", "", "Root directory for job workspaces. A temp dir when empty.")
	reportFileFlag := flagSet.String("report-file", "", "Write the finalized run report to this YAML file.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	command := args[0]
	switch command {
	case app.CommandRun, app.CommandValidate:
	case "-h", "-help", "--help", "help":
		flagSet.Usage()
		return nil, true, nil
	default:
		return nil, false, &ExitError{Code: ExitConfig, Message: fmt.Sprintf("unknown command %q, expected 'run' or 'validate'", command)}
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitConfig, Message: err.Error()}
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: ExitConfig, Message: "exactly one pipeline file is required"}
	}
	path := flagSet.Arg(0)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitConfig, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	var logLevel slog.Level
	switch strings.ToLower(*logLevelFlag) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		return nil, false, &ExitError{Code: ExitConfig, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:      command,
		PipelinePath: path,
		Workdir:      *workdirFlag,
		ReportFile:   *reportFileFlag,
		StatusPort:   *statusPortFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfig, Message: err.Error()}
	}

	return config, false, nil
}
