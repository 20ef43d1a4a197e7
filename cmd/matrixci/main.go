package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/matrixci/internal/app"
	"github.com/vk/matrixci/internal/cli"
	"github.com/vk/matrixci/internal/config"
)

// main is the entrypoint for the matrixci orchestrator.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling: parse the command line, build the app, and map outcomes onto
// exit codes.
func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	orchestrator := app.New(outW, logW, appConfig)
	ctx := context.Background()

	switch appConfig.Command {
	case app.CommandValidate:
		if err := orchestrator.Validate(ctx); err != nil {
			return &cli.ExitError{Code: cli.ExitFailed, Message: err.Error()}
		}
		return nil
	default:
		rep, err := orchestrator.Run(ctx)
		if err != nil && rep == nil {
			// The run never started. Only problems with the pipeline
			// description itself map to the configuration exit code;
			// anything else (filesystem trouble and the like) is an
			// ordinary failure.
			var cfgErr *config.ConfigError
			if errors.As(err, &cfgErr) {
				return &cli.ExitError{Code: cli.ExitConfig, Message: err.Error()}
			}
			return &cli.ExitError{Code: cli.ExitFailed, Message: err.Error()}
		}
		if err != nil {
			return &cli.ExitError{Code: cli.ExitFailed, Message: err.Error()}
		}
		if rep.Failed() {
			return &cli.ExitError{Code: cli.ExitFailed, Message: "pipeline failed"}
		}
		return nil
	}
}
