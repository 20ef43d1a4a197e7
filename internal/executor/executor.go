// Package executor runs one job's command sequence in a scoped
// environment. It is the only component in the orchestrator that spawns
// external processes; everything else is pure state and data management.
package executor

import (
	"context"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/platform"
)

// Result is the outcome of one job's command sequence.
type Result struct {
	// ExitCode is 0 on success, otherwise the exit code of the first
	// failing command (the sequence aborts there).
	ExitCode int
	Stdout   string
	Stderr   string
	// ProducedPaths lists the declared artifact paths that exist in the
	// job workspace after the run.
	ProducedPaths []string
	// Artifacts holds the content of each produced path, keyed by path.
	Artifacts map[string][]byte
}

// Executor runs a job against a platform target. The inputs mapping
// carries resolved upstream artifacts to materialize into the job's
// workspace before the first command runs.
type Executor interface {
	Execute(ctx context.Context, job *config.Job, target platform.Target, inputs map[string][]byte) (*Result, error)
}
