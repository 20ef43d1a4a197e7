package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/hclloader"
	"github.com/vk/matrixci/internal/platform"
	"github.com/vk/matrixci/internal/report"
	"github.com/vk/matrixci/internal/yamlloader"
)

// App encapsulates the orchestrator's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *platform.Registry

	// statusAddr is the status server's bound address, set before its
	// serving goroutine starts.
	statusAddr string

	mu     sync.RWMutex
	latest *report.RunReport
}

// New constructs an App writing human output to outW and logs to logW,
// with its own isolated logger and the builtin platform registry.
func New(outW, logW io.Writer, cfg *Config) *App {
	return &App{
		outW:     outW,
		logW:     logW,
		logger:   newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		config:   cfg,
		registry: platform.Builtin(),
	}
}

// Registry returns the application's platform registry. Primarily for tests.
func (a *App) Registry() *platform.Registry {
	return a.registry
}

// loadModel picks the pipeline loader by file extension and loads the
// format-agnostic model.
func (a *App) loadModel(ctx context.Context) (*config.Model, error) {
	var loader config.Loader
	switch ext := strings.ToLower(filepath.Ext(a.config.PipelinePath)); ext {
	case ".hcl":
		loader = hclloader.New(a.registry)
	case ".yaml", ".yml":
		loader = yamlloader.New()
	default:
		return nil, config.Errorf("", "unsupported pipeline file extension %q", ext)
	}
	return loader.Load(ctx, a.config.PipelinePath)
}

// withLogger attaches the app logger to the context for downstream layers.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

func (a *App) setLatestReport(r *report.RunReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latest = r
}

// LatestReport returns the most recently finalized run report, or nil.
func (a *App) LatestReport() *report.RunReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}
