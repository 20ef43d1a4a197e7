package integration_tests

import (
	"errors"
	"strings"
	"testing"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/testutil"
)

// Test for: a dangling depends_on is rejected before anything executes,
// naming the missing id.
func TestValidate_DanglingDependsOn(t *testing.T) {
	res := testutil.ValidatePipeline(t, "pipeline.hcl", `
job "build-debian" {
  stage     = "build"
  platform  = "debian"
  commands  = ["true"]
  artifacts = ["bin"]
}

job "test-debian" {
  stage      = "test"
  platform   = "debian"
  depends_on = "build-ghost"
  commands   = ["true"]
}
`)

	if res.Err == nil {
		t.Fatal("validate should have failed")
	}
	var cfgErr *config.ConfigError
	if !errors.As(res.Err, &cfgErr) {
		t.Fatalf("expected a ConfigError, got %T: %v", res.Err, res.Err)
	}
	if cfgErr.JobID != "test-debian" {
		t.Errorf("error should name the offending job, got %q", cfgErr.JobID)
	}
	if !strings.Contains(res.Err.Error(), "build-ghost") {
		t.Errorf("error should name the missing id, got: %v", res.Err)
	}
}

// Test for: cross-platform dependencies are contradictions, not warnings.
func TestValidate_CrossPlatformDependency(t *testing.T) {
	res := testutil.ValidatePipeline(t, "pipeline.yaml", `
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["true"]
    artifacts: ["bin"]
  - id: test-macos
    stage: test
    platform: macos
    depends_on: build-debian
    commands: ["true"]
`)

	if res.Err == nil {
		t.Fatal("validate should have failed")
	}
	if !strings.Contains(res.Err.Error(), "crosses platforms") {
		t.Errorf("unexpected error: %v", res.Err)
	}
}

// Test for: a repeated artifact path is caught at validation, not left to
// surface as a publish conflict that would take healthy platforms down
// with it.
func TestValidate_DuplicateArtifactPath(t *testing.T) {
	res := testutil.ValidatePipeline(t, "pipeline.yaml", `
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["true"]
    artifacts: ["bin", "bin"]
  - id: build-fedora
    stage: build
    platform: fedora
    commands: ["true"]
    artifacts: ["bin"]
`)

	if res.Err == nil {
		t.Fatal("validate should have failed")
	}
	var cfgErr *config.ConfigError
	if !errors.As(res.Err, &cfgErr) {
		t.Fatalf("expected a ConfigError, got %T: %v", res.Err, res.Err)
	}
	if cfgErr.JobID != "build-debian" {
		t.Errorf("error should name the offending job, got %q", cfgErr.JobID)
	}
	if !strings.Contains(res.Err.Error(), `duplicate artifact path "bin"`) {
		t.Errorf("unexpected error: %v", res.Err)
	}
}

// Test for: a well-formed matrix validates without dispatching any job.
func TestValidate_WellFormedPipeline(t *testing.T) {
	res := testutil.ValidatePipeline(t, "pipeline.hcl", matrixHCL())

	if res.Err != nil {
		t.Fatalf("validate should have succeeded, got: %v", res.Err)
	}
	if !strings.Contains(res.Stdout, "pipeline ok: 10 jobs across 5 platforms") {
		t.Errorf("unexpected validation summary: %s", res.Stdout)
	}
}
