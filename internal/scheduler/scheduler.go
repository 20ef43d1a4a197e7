package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vk/matrixci/internal/artifact"
	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/executor"
	"github.com/vk/matrixci/internal/graph"
	"github.com/vk/matrixci/internal/report"
)

// ErrCancelled marks nodes that were skipped because the run was cancelled
// before they could be dispatched.
var ErrCancelled = errors.New("run cancelled")

// Scheduler walks the dependency graph, dispatching each runnable node to
// the executor once its dependency has succeeded and its upstream
// artifacts are resolvable. It exclusively owns node state transitions.
type Scheduler struct {
	graph   *graph.Graph
	exec    executor.Executor
	store   *artifact.Store
	workers int
	runID   string

	wg        sync.WaitGroup
	cancelled atomic.Bool

	// fatalOnce records the first internal consistency violation
	// (duplicate or missing artifact), which aborts the run.
	fatalOnce sync.Once
	fatalErr  error
}

// New returns a scheduler over g. A workers value <= 0 sizes the pool to
// one lane per platform in the graph.
func New(g *graph.Graph, exec executor.Executor, store *artifact.Store, workers int) *Scheduler {
	if workers <= 0 {
		workers = len(g.Platforms())
	}
	if workers == 0 {
		workers = 1
	}
	return &Scheduler{
		graph:   g,
		exec:    exec,
		store:   store,
		workers: workers,
		runID:   uuid.NewString(),
	}
}

// RunID returns the unique id assigned to this run.
func (s *Scheduler) RunID() string {
	return s.runID
}

// Cancel requests a cooperative stop: nodes not yet dispatched are marked
// skipped, while in-flight executor calls run to completion.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

// Run executes the graph and returns once every node has reached a
// terminal state. The report is never partial. A non-nil error indicates
// an internal consistency violation, not an ordinary job failure; job
// failures are visible only through the report.
func (s *Scheduler) Run(ctx context.Context) (*report.RunReport, error) {
	logger := ctxlog.FromContext(ctx)
	startedAt := time.Now()

	readyChan := make(chan *graph.Node, s.graph.Len())

	// At start the ready set is exactly the dependency-free build nodes.
	logger.Debug("Scheduler initializing, enqueueing initial ready set.")
	roots := s.graph.Ready()
	for _, n := range roots {
		readyChan <- n
	}
	logger.Debug("Initial ready set enqueued.", "count", len(roots))

	s.wg.Add(s.graph.Len())

	logger.Debug("Starting worker pool.", "workers", s.workers)
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx, readyChan, i)
	}

	s.wg.Wait()
	close(readyChan)
	logger.Debug("All nodes terminal.")

	rep := report.FromGraph(s.runID, s.graph, startedAt)
	// Artifacts are retained for the whole run and released only after the
	// report is finalized.
	s.store.Release()
	return rep, s.fatalErr
}

// worker is the processing loop for one concurrent lane.
func (s *Scheduler) worker(ctx context.Context, readyChan chan *graph.Node, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		nodeLogger := logger.With("workerID", workerID, "job", n.ID(), "platform", n.Spec.Platform)

		if s.cancelled.Load() || ctx.Err() != nil {
			nodeLogger.Warn("Run cancelled, skipping node.")
			s.skip(n, ErrCancelled)
			continue
		}

		inputs, err := s.resolveInputs(n)
		if err != nil {
			// Unreachable under correct scheduling; treat as a scheduler
			// bug and abort the whole run.
			nodeLogger.Error("Artifact resolution failed.", "error", err)
			s.fatal(err)
			s.fail(n, err, 0)
			continue
		}

		nodeLogger.Info("▶️ Dispatching job", "stage", n.Spec.Stage)
		n.SetState(graph.Running)
		res, err := s.exec.Execute(ctx, n.Spec, n.Target, inputs)
		if err != nil {
			nodeLogger.Error("Job could not be executed.", "error", err)
			s.fail(n, err, 0)
			continue
		}
		if res.ExitCode != 0 {
			nodeLogger.Error("Job failed.", "exit_code", res.ExitCode)
			s.fail(n, fmt.Errorf("command sequence exited with code %d", res.ExitCode), res.ExitCode)
			continue
		}

		if err := s.publishArtifacts(ctx, n, res); err != nil {
			nodeLogger.Error("Artifact publication failed.", "error", err)
			s.fail(n, err, 0)
			continue
		}

		nodeLogger.Info("✅ Job succeeded")
		n.SetState(graph.Succeeded)
		s.wg.Done()

		// A node has at most one dependency, so a dependent becomes ready
		// the moment this node succeeds.
		for _, dependent := range n.Dependents {
			nodeLogger.Debug("Unlocking dependent node.", "dependent", dependent.ID())
			readyChan <- dependent
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// resolveInputs fetches the upstream artifacts for a dependent node
// through the store, the sole inter-node transfer path.
func (s *Scheduler) resolveInputs(n *graph.Node) (map[string][]byte, error) {
	if n.Dep == nil {
		return nil, nil
	}
	handles, err := s.store.Resolve(n)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string][]byte, len(handles))
	for path, h := range handles {
		data, err := s.store.Open(h)
		if err != nil {
			return nil, err
		}
		inputs[path] = data
	}
	return inputs, nil
}

// publishArtifacts records a succeeded node's outputs. For build jobs every
// declared path must have been produced and published; a duplicate
// publication is an internal consistency violation. Test-job outputs are
// logs, published best-effort and never blocking.
func (s *Scheduler) publishArtifacts(ctx context.Context, n *graph.Node, res *executor.Result) error {
	logger := ctxlog.FromContext(ctx)

	if n.Spec.Stage == config.StageTest {
		for path, data := range res.Artifacts {
			if _, err := s.store.Publish(n.ID(), path, data); err != nil {
				logger.Warn("Could not publish test log artifact.", "job", n.ID(), "path", path, "error", err)
			}
		}
		return nil
	}

	for _, path := range n.Spec.Artifacts {
		data, ok := res.Artifacts[path]
		if !ok {
			return fmt.Errorf("declared artifact %q was not produced", path)
		}
		if _, err := s.store.Publish(n.ID(), path, data); err != nil {
			s.fatal(err)
			return err
		}
		logger.Debug("Published artifact.", "job", n.ID(), "path", path, "bytes", len(data))
	}
	return nil
}

// fail moves a node to Failed and propagates a skip to its dependents.
// Failure is isolated: nothing outside the node's own platform lane is
// affected.
func (s *Scheduler) fail(n *graph.Node, err error, exitCode int) {
	if n.SetState(graph.Failed) {
		n.Err = err
		n.ExitCode = exitCode
		s.wg.Done()
	}
	s.skipDependents(n)
}

// skip marks a node Skipped exactly once, then cascades to its dependents.
func (s *Scheduler) skip(n *graph.Node, reason error) {
	n.SkipOnce(func() {
		if !n.SetState(graph.Skipped) {
			return
		}
		n.Err = reason
		s.wg.Done()
	})
	s.skipDependents(n)
}

// skipDependents marks every downstream node Skipped without ever
// invoking the executor for them: a test run against a nonexistent
// artifact is meaningless, not merely likely to fail.
func (s *Scheduler) skipDependents(n *graph.Node) {
	for _, dependent := range n.Dependents {
		s.skip(dependent, fmt.Errorf("upstream job %q did not succeed", n.ID()))
	}
}

// fatal records the first internal consistency violation of the run and
// cancels everything still pending.
func (s *Scheduler) fatal(err error) {
	s.fatalOnce.Do(func() {
		s.fatalErr = err
		s.Cancel()
	})
}
