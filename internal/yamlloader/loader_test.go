package yamlloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/config"
)

func load(t *testing.T, source string) (*config.Model, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return New().Load(context.Background(), path)
}

func TestLoad(t *testing.T) {
	model, err := load(t, `
pipeline:
  name: nightly
  install_dir: prefix
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["make install"]
    artifacts: ["bin"]
  - id: test-debian
    stage: test
    platform: debian
    depends_on: build-debian
    commands: ["make check"]
`)
	require.NoError(t, err)
	assert.Equal(t, "nightly", model.Pipeline.Name)

	require.Len(t, model.Jobs, 2)
	assert.Equal(t, config.StageBuild, model.Jobs[0].Stage)
	assert.Equal(t, []string{"bin"}, model.Jobs[0].Artifacts)
	assert.Equal(t, "build-debian", model.Jobs[1].DependsOn)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := load(t, `
jobs:
  - id: build-debian
    stage: build
    platform: debian
    commands: ["make"]
    retries: 3
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "retries")
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := load(t, "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "empty pipeline file")
}
