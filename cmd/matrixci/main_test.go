package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vk/matrixci/internal/cli"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUnknownCommand(t *testing.T) {
	var out, logs strings.Builder
	err := run(&out, &logs, []string{"deploy", "pipeline.hcl"})
	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T", err)
	}
	if exitErr.Code != cli.ExitConfig {
		t.Errorf("expected exit code %d, got %d", cli.ExitConfig, exitErr.Code)
	}
}

func TestValidateInvalidPipelineExitsOne(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
jobs:
  - id: test-debian
    stage: test
    platform: debian
    depends_on: missing-build
    commands: ["make check"]
`)

	var out, logs strings.Builder
	err := run(&out, &logs, []string{"validate", path})
	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T", err)
	}
	if exitErr.Code != cli.ExitFailed {
		t.Errorf("expected exit code %d, got %d", cli.ExitFailed, exitErr.Code)
	}
	if !strings.Contains(exitErr.Message, "missing-build") {
		t.Errorf("error should name the missing id, got: %s", exitErr.Message)
	}
}

func TestValidateValidPipelineExitsZero(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["true"]
`)

	var out, logs strings.Builder
	if err := run(&out, &logs, []string{"validate", path}); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if !strings.Contains(out.String(), "pipeline ok") {
		t.Errorf("expected validation summary, got: %s", out.String())
	}
}

func TestRunMalformedPipelineExitsTwo(t *testing.T) {
	path := writeFile(t, "pipeline.hcl", `job "broken" {`)

	var out, logs strings.Builder
	err := run(&out, &logs, []string{"run", path})
	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T", err)
	}
	if exitErr.Code != cli.ExitConfig {
		t.Errorf("expected exit code %d, got %d", cli.ExitConfig, exitErr.Code)
	}
}

func TestRunNonexistentPipelineExitsTwo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	var out, logs strings.Builder
	err := run(&out, &logs, []string{"run", path})
	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T", err)
	}
	if exitErr.Code != cli.ExitConfig {
		t.Errorf("expected exit code %d, got %d", cli.ExitConfig, exitErr.Code)
	}
}

func TestRunUnusableWorkdirExitsOne(t *testing.T) {
	// The pipeline itself is fine; the workdir path collides with an
	// existing file. That is not a configuration problem with the
	// description, so it must not map to the configuration exit code.
	path := writeFile(t, "pipeline.yaml", `
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["true"]
`)
	collision := writeFile(t, "occupied", "not a directory")

	var out, logs strings.Builder
	err := run(&out, &logs, []string{"run", "-workdir", collision, path})
	exitErr, ok := err.(*cli.ExitError)
	if !ok {
		t.Fatalf("expected *cli.ExitError, got %T", err)
	}
	if exitErr.Code != cli.ExitFailed {
		t.Errorf("expected exit code %d, got %d", cli.ExitFailed, exitErr.Code)
	}
}
