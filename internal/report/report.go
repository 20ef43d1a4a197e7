// Package report aggregates the terminal state of every node of a run.
// A RunReport is a pure projection of final graph state: serializing and
// re-reading one never changes a node's recorded outcome.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vk/matrixci/internal/graph"
)

// NodeReport records one node's terminal outcome.
type NodeReport struct {
	ID       string `yaml:"id" json:"id"`
	Stage    string `yaml:"stage" json:"stage"`
	Platform string `yaml:"platform" json:"platform"`
	State    string `yaml:"state" json:"state"`
	ExitCode int    `yaml:"exit_code" json:"exit_code"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty"`
}

// RunReport is the aggregate outcome of a run. It is only built once
// every node is terminal and is never partial.
type RunReport struct {
	RunID     string        `yaml:"run_id" json:"run_id"`
	Pipeline  string        `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	StartedAt time.Time     `yaml:"started_at" json:"started_at"`
	Elapsed   time.Duration `yaml:"elapsed" json:"elapsed"`
	Nodes     []NodeReport  `yaml:"nodes" json:"nodes"`
}

// FromGraph projects the graph's node states into a report, in declaration
// order.
func FromGraph(runID string, g *graph.Graph, startedAt time.Time) *RunReport {
	r := &RunReport{
		RunID:     runID,
		StartedAt: startedAt,
		Elapsed:   time.Since(startedAt),
	}
	for _, n := range g.Nodes() {
		nr := NodeReport{
			ID:       n.ID(),
			Stage:    string(n.Spec.Stage),
			Platform: n.Spec.Platform,
			State:    n.State().String(),
			ExitCode: n.ExitCode,
		}
		if n.Err != nil {
			nr.Error = n.Err.Error()
		}
		r.Nodes = append(r.Nodes, nr)
	}
	return r
}

// Failed reports whether any node ended in a state other than succeeded.
func (r *RunReport) Failed() bool {
	for _, n := range r.Nodes {
		if n.State != graph.Succeeded.String() {
			return true
		}
	}
	return false
}

// ExitCode maps the worst terminal state across all nodes onto the
// process exit code: 0 only when every node succeeded.
func (r *RunReport) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Summary writes one line per node plus a trailing verdict.
func (r *RunReport) Summary(w io.Writer) {
	for _, n := range r.Nodes {
		line := fmt.Sprintf("%-10s %-6s %-14s %s", n.Platform, n.Stage, n.ID, n.State)
		if n.Error != "" {
			line += " (" + n.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
	if r.Failed() {
		fmt.Fprintln(w, "result: failed")
		return
	}
	fmt.Fprintln(w, "result: succeeded")
}

// WriteFile persists the report as YAML.
func (r *RunReport) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// Load reads a report previously persisted with WriteFile.
func Load(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r RunReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &r, nil
}
