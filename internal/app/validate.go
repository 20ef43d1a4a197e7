package app

import (
	"context"
	"fmt"

	"github.com/vk/matrixci/internal/graph"
)

// Validate loads the pipeline and builds the dependency graph without
// executing anything. A nil return means the description is well-formed.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Validate started.", "pipeline", a.config.PipelinePath)

	model, err := a.loadModel(ctx)
	if err != nil {
		return err
	}
	g, err := graph.Build(ctx, model.Jobs, a.registry)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "pipeline ok: %d jobs across %d platforms\n", g.Len(), len(g.Platforms()))
	return nil
}
