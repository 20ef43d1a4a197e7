// Package hclloader loads pipeline descriptions written in HCL.
//
// Job blocks may reference the per-job platform through the expression
// variables platform.name and platform.library_path_var, which are bound
// after the block's platform attribute is resolved.
package hclloader

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/platform"
)

// Loader parses .hcl pipeline files into the format-agnostic model.
type Loader struct {
	registry *platform.Registry
}

// New returns a Loader resolving platform references against reg.
func New(reg *platform.Registry) *Loader {
	return &Loader{registry: reg}
}

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pipeline"},
		{Type: "job", LabelNames: []string{"id"}},
	},
}

var platformAttrSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "platform", Required: true},
	},
}

type pipelineHCL struct {
	Name       string `hcl:"name,optional"`
	InstallDir string `hcl:"install_dir,optional"`
}

type jobHCL struct {
	Stage     string   `hcl:"stage"`
	Platform  string   `hcl:"platform"`
	Commands  []string `hcl:"commands"`
	Artifacts []string `hcl:"artifacts,optional"`
	DependsOn string   `hcl:"depends_on,optional"`
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL pipeline file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, config.Errorf("", "parsing %s: %s", path, diags)
	}

	content, diags := file.Body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, config.Errorf("", "reading %s: %s", path, diags)
	}

	model := &config.Model{}
	for _, block := range content.Blocks {
		switch block.Type {
		case "pipeline":
			var p pipelineHCL
			if diags := gohcl.DecodeBody(block.Body, nil, &p); diags.HasErrors() {
				return nil, config.Errorf("", "decoding pipeline block: %s", diags)
			}
			model.Pipeline = config.Pipeline{Name: p.Name, InstallDir: p.InstallDir}
		case "job":
			job, err := l.decodeJob(ctx, block)
			if err != nil {
				return nil, err
			}
			model.Jobs = append(model.Jobs, job)
		}
	}

	logger.Debug("HCL pipeline file loaded.", "jobs", len(model.Jobs))
	return model, nil
}

// decodeJob resolves the block's platform first, then decodes the full
// body with the platform variables in scope.
func (l *Loader) decodeJob(ctx context.Context, block *hcl.Block) (*config.Job, error) {
	id := block.Labels[0]

	partial, _, diags := block.Body.PartialContent(platformAttrSchema)
	if diags.HasErrors() {
		return nil, config.Errorf(id, "missing platform attribute")
	}
	platformVal, diags := partial.Attributes["platform"].Expr.Value(nil)
	if diags.HasErrors() || platformVal.Type() != cty.String {
		return nil, config.Errorf(id, "platform must be a plain string")
	}
	target, ok := l.registry.Lookup(platformVal.AsString())
	if !ok {
		return nil, config.Errorf(id, "unknown platform %q", platformVal.AsString())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"platform": cty.ObjectVal(map[string]cty.Value{
				"name":             cty.StringVal(target.Name),
				"library_path_var": cty.StringVal(target.LibraryPathVar),
			}),
		},
	}

	var j jobHCL
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &j); diags.HasErrors() {
		return nil, config.Errorf(id, "decoding job block: %s", diags.Error())
	}

	return &config.Job{
		ID:        id,
		Stage:     config.Stage(j.Stage),
		Platform:  j.Platform,
		Commands:  j.Commands,
		Artifacts: j.Artifacts,
		DependsOn: j.DependsOn,
	}, nil
}
