package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/matrixci/internal/artifact"
	"github.com/vk/matrixci/internal/executor"
	"github.com/vk/matrixci/internal/graph"
	"github.com/vk/matrixci/internal/report"
	"github.com/vk/matrixci/internal/scheduler"
)

// Run loads, validates, and executes the pipeline, returning the finalized
// run report. Configuration errors surface before any job is dispatched;
// a non-nil error alongside a non-nil report indicates an internal
// consistency violation during the run.
func (a *App) Run(ctx context.Context) (*report.RunReport, error) {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run started.", "pipeline", a.config.PipelinePath)

	model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(ctx, model.Jobs, a.registry)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Dependency graph built.", "node_count", g.Len())

	if a.config.StatusPort > 0 {
		// The run proceeds without the status surface if the port is taken.
		if err := a.startStatusServer(a.config.StatusPort); err != nil {
			a.logger.Error("Could not start status server.", "error", err)
		}
	}

	workdir := a.config.Workdir
	if workdir == "" {
		tmp, err := os.MkdirTemp("", "matrixci-run-*")
		if err != nil {
			return nil, fmt.Errorf("creating run workdir: %w", err)
		}
		defer os.RemoveAll(tmp)
		workdir = tmp
	} else if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run workdir: %w", err)
	}

	exec := executor.NewLocal(workdir, model.Pipeline.InstallDir)
	store := artifact.NewStore()
	sched := scheduler.New(g, exec, store, a.config.Workers)

	a.logger.Info("🚀 Starting pipeline run", "run_id", sched.RunID(), "nodes", g.Len(), "platforms", g.Platforms())
	rep, runErr := sched.Run(ctx)
	rep.Pipeline = model.Pipeline.Name
	a.logger.Info("🏁 Pipeline run finished", "run_id", rep.RunID, "failed", rep.Failed())

	a.setLatestReport(rep)
	rep.Summary(a.outW)

	if a.config.ReportFile != "" {
		if err := rep.WriteFile(a.config.ReportFile); err != nil {
			a.logger.Error("Could not persist run report.", "path", a.config.ReportFile, "error", err)
		}
	}

	if runErr != nil {
		return rep, fmt.Errorf("internal scheduling error: %w", runErr)
	}
	return rep, nil
}
