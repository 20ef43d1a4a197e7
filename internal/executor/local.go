package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/platform"
)

// Local runs job commands as child processes on this machine. Each job
// gets its own workspace directory under Workdir, keyed by platform and
// stage, so a test job can only see build output that was materialized
// for it through the artifact store.
type Local struct {
	// Workdir is the root directory for all job workspaces.
	Workdir string
	// InstallDir is the per-job install prefix, relative to the job
	// workspace, whose bin/ and lib/ subdirectories are pushed onto the
	// search-path variables.
	InstallDir string
	// BaseEnv is the process-wide environment each job inherits.
	BaseEnv []string
}

// NewLocal returns a Local executor rooted at workdir, inheriting the
// current process environment.
func NewLocal(workdir, installDir string) *Local {
	if installDir == "" {
		installDir = "install"
	}
	return &Local{
		Workdir:    workdir,
		InstallDir: installDir,
		BaseEnv:    os.Environ(),
	}
}

// Execute materializes inputs into the job workspace, then runs the
// command sequence, aborting on the first nonzero exit. After a clean run
// it collects the job's declared artifact paths from the workspace.
func (l *Local) Execute(ctx context.Context, job *config.Job, target platform.Target, inputs map[string][]byte) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("job", job.ID, "platform", target.Name)

	dir := filepath.Join(l.Workdir, target.Name, string(job.Stage))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace for job %q: %w", job.ID, err)
	}
	for path, data := range inputs {
		dst := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("materializing artifact %q for job %q: %w", path, job.ID, err)
		}
		if err := os.WriteFile(dst, data, 0o755); err != nil {
			return nil, fmt.Errorf("materializing artifact %q for job %q: %w", path, job.ID, err)
		}
		logger.Debug("Materialized upstream artifact.", "path", path, "bytes", len(data))
	}

	env := composeEnv(l.BaseEnv, target.LibraryPathVar, filepath.Join(dir, l.InstallDir), dir)

	res := &Result{Artifacts: make(map[string][]byte)}
	var stdout, stderr bytes.Buffer

	for _, command := range job.Commands {
		argv, err := shlex.Split(command)
		if err != nil {
			return nil, fmt.Errorf("tokenizing command %q of job %q: %w", command, job.ID, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("empty command in job %q", job.ID)
		}

		logger.Debug("Running command.", "argv", argv)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = dir
		cmd.Env = env
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			res.Stdout = stdout.String()
			res.Stderr = stderr.String()
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				// Nonzero exit of the first failing command becomes the
				// job's exit code; remaining commands do not run.
				res.ExitCode = exitErr.ExitCode()
				logger.Debug("Command exited nonzero, aborting sequence.", "exit_code", res.ExitCode)
				return res, nil
			}
			return nil, fmt.Errorf("running command %q of job %q: %w", command, job.ID, err)
		}
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	for _, path := range job.Artifacts {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		if err != nil {
			logger.Debug("Declared artifact not found in workspace.", "path", path, "error", err)
			continue
		}
		res.ProducedPaths = append(res.ProducedPaths, path)
		res.Artifacts[path] = data
	}
	return res, nil
}
