package hclloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/platform"
)

func load(t *testing.T, source string) (*config.Model, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return New(platform.Builtin()).Load(context.Background(), path)
}

func TestLoad(t *testing.T) {
	model, err := load(t, `
pipeline {
  name        = "nightly"
  install_dir = "prefix"
}

job "build-fedora" {
  stage     = "build"
  platform  = "fedora"
  commands  = ["cmake --build build --target install"]
  artifacts = ["bin/app"]
}

job "test-fedora" {
  stage      = "test"
  platform   = "fedora"
  depends_on = "build-fedora"
  commands   = ["ctest --test-dir build"]
}
`)
	require.NoError(t, err)
	assert.Equal(t, "nightly", model.Pipeline.Name)
	assert.Equal(t, "prefix", model.Pipeline.InstallDir)

	require.Len(t, model.Jobs, 2)
	build := model.Jobs[0]
	assert.Equal(t, "build-fedora", build.ID)
	assert.Equal(t, config.StageBuild, build.Stage)
	assert.Equal(t, "fedora", build.Platform)
	assert.Equal(t, []string{"bin/app"}, build.Artifacts)

	test := model.Jobs[1]
	assert.Equal(t, "build-fedora", test.DependsOn)
}

func TestLoadPlatformVariables(t *testing.T) {
	model, err := load(t, `
job "build-macos" {
  stage    = "build"
  platform = "macos"
  commands = ["echo ${platform.name} uses ${platform.library_path_var}"]
}
`)
	require.NoError(t, err)
	require.Len(t, model.Jobs, 1)
	assert.Equal(t, []string{"echo macos uses DYLD_LIBRARY_PATH"}, model.Jobs[0].Commands)
}

func TestLoadUnknownPlatform(t *testing.T) {
	_, err := load(t, `
job "build-windows" {
  stage    = "build"
  platform = "windows"
  commands = ["make"]
}
`)
	require.Error(t, err)
	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "build-windows", cfgErr.JobID)
	assert.ErrorContains(t, err, `unknown platform "windows"`)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := load(t, `job "broken" {`)
	assert.Error(t, err)
}

func TestLoadMissingPlatform(t *testing.T) {
	_, err := load(t, `
job "build-debian" {
  stage    = "build"
  commands = ["make"]
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "platform")
}
