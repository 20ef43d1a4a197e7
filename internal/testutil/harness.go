// Package testutil provides the shared harness for integration tests:
// pipeline files written into a temp dir, an isolated app instance, and
// thread-safe capture of its log and human output.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/app"
	"github.com/vk/matrixci/internal/report"
)

// HarnessResult holds the outcomes of one harnessed pipeline run.
type HarnessResult struct {
	Report    *report.RunReport
	Err       error
	Stdout    string
	LogOutput string
}

// writePipeline materializes the pipeline source in a fresh temp dir and
// returns a base config pointing at it.
func writePipeline(t *testing.T, filename, source string) app.Config {
	t.Helper()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, filename)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	return app.Config{
		Command:      app.CommandRun,
		PipelinePath: path,
		Workdir:      filepath.Join(tmpDir, "work"),
		LogFormat:    "text",
		LogLevel:     slog.LevelDebug,
	}
}

// RunPipeline executes the pipeline source through the full app stack.
func RunPipeline(t *testing.T, filename, source string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()

	cfg := writePipeline(t, filename, source)
	for _, opt := range opts {
		opt(&cfg)
	}

	outBuf := &SafeBuffer{}
	logBuf := &SafeBuffer{}
	testApp := app.New(outBuf, logBuf, &cfg)

	rep, err := testApp.Run(context.Background())
	return &HarnessResult{
		Report:    rep,
		Err:       err,
		Stdout:    outBuf.String(),
		LogOutput: logBuf.String(),
	}
}

// ValidatePipeline runs the validate-only path over the pipeline source.
func ValidatePipeline(t *testing.T, filename, source string) *HarnessResult {
	t.Helper()

	cfg := writePipeline(t, filename, source)
	cfg.Command = app.CommandValidate

	outBuf := &SafeBuffer{}
	logBuf := &SafeBuffer{}
	testApp := app.New(outBuf, logBuf, &cfg)

	err := testApp.Validate(context.Background())
	return &HarnessResult{
		Err:       err,
		Stdout:    outBuf.String(),
		LogOutput: logBuf.String(),
	}
}
