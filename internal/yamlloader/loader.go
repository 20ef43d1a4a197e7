// Package yamlloader loads pipeline descriptions written as plain YAML
// records, the declarative form consumed from hosted CI configurations.
package yamlloader

import (
	"context"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
)

// Loader parses .yaml/.yml pipeline files into the format-agnostic model.
type Loader struct{}

// New returns a YAML pipeline loader.
func New() *Loader {
	return &Loader{}
}

type fileYAML struct {
	Pipeline config.Pipeline `yaml:"pipeline"`
	Jobs     []*config.Job   `yaml:"jobs"`
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing YAML pipeline file.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, config.Errorf("", "opening %s: %s", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var doc fileYAML
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, config.Errorf("", "parsing %s: empty pipeline file", path)
		}
		return nil, config.Errorf("", "parsing %s: %s", path, err)
	}

	logger.Debug("YAML pipeline file loaded.", "jobs", len(doc.Jobs))
	return &config.Model{Pipeline: doc.Pipeline, Jobs: doc.Jobs}, nil
}
