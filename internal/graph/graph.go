package graph

import (
	"context"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/platform"
)

// Graph is the validated dependency graph of one pipeline. Edges only ever
// point from a test node to the build node on the same platform, so the
// graph is acyclic by construction.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// Build constructs a graph from the loaded jobs, validating them against
// the platform registry. It returns a *config.ConfigError naming the
// offending job when the description is malformed or contradictory.
func Build(ctx context.Context, jobs []*config.Job, reg *platform.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.", "job_count", len(jobs))

	g := &Graph{nodes: make(map[string]*Node, len(jobs))}

	// First pass: create a node per job and validate each record in isolation.
	for _, job := range jobs {
		if job.ID == "" {
			return nil, config.Errorf("", "job with empty id")
		}
		if _, exists := g.nodes[job.ID]; exists {
			return nil, config.Errorf(job.ID, "duplicate job id")
		}
		if !job.Stage.Valid() {
			return nil, config.Errorf(job.ID, "unknown stage %q", string(job.Stage))
		}
		target, ok := reg.Lookup(job.Platform)
		if !ok {
			return nil, config.Errorf(job.ID, "unknown platform %q", job.Platform)
		}
		if len(job.Commands) == 0 {
			return nil, config.Errorf(job.ID, "no commands declared")
		}
		// Declared artifacts form a set; a repeated path would otherwise
		// surface much later as a publish conflict mid-run.
		seenArtifacts := make(map[string]bool, len(job.Artifacts))
		for _, p := range job.Artifacts {
			if seenArtifacts[p] {
				return nil, config.Errorf(job.ID, "duplicate artifact path %q", p)
			}
			seenArtifacts[p] = true
		}
		g.nodes[job.ID] = &Node{Spec: job, Target: target}
		g.order = append(g.order, job.ID)
	}
	logger.Debug("Build: node creation complete.", "node_count", len(g.nodes))

	// Second pass: link dependencies. Only test jobs may declare one, and it
	// must resolve to a build job on the identical platform. No job may
	// depend on a job of its own or a later stage, which is what keeps the
	// graph acyclic without a cycle check.
	for _, id := range g.order {
		node := g.nodes[id]
		switch node.Spec.Stage {
		case config.StageBuild:
			if node.Spec.DependsOn != "" {
				return nil, config.Errorf(id, "build job may not declare depends_on")
			}
		case config.StageTest:
			if node.Spec.DependsOn == "" {
				return nil, config.Errorf(id, "test job must declare depends_on")
			}
			dep, ok := g.nodes[node.Spec.DependsOn]
			if !ok {
				return nil, config.Errorf(id, "depends_on references unknown job %q", node.Spec.DependsOn)
			}
			if dep.Spec.Stage != config.StageBuild {
				return nil, config.Errorf(id, "depends_on must reference a build job, %q is a %s job", dep.ID(), dep.Spec.Stage)
			}
			if dep.Spec.Platform != node.Spec.Platform {
				return nil, config.Errorf(id, "depends_on crosses platforms: %q runs on %q, not %q",
					dep.ID(), dep.Spec.Platform, node.Spec.Platform)
			}
			logger.Debug("Build: linking dependency.", "from", id, "to", dep.ID())
			node.Dep = dep
			dep.Dependents = append(dep.Dependents, node)
		}
	}

	logger.Debug("Build: graph construction successful.")
	return g, nil
}

// Node returns the node with the given job id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Ready returns every Pending node whose dependency, if any, has Succeeded.
// The computation is pure: it only reads node state and may be called
// repeatedly as the graph mutates.
func (g *Graph) Ready() []*Node {
	var ready []*Node
	for _, id := range g.order {
		n := g.nodes[id]
		if n.State() != Pending {
			continue
		}
		if n.Dep == nil || n.Dep.State() == Succeeded {
			ready = append(ready, n)
		}
	}
	return ready
}

// Settled reports whether every node has reached a terminal state.
func (g *Graph) Settled() bool {
	for _, n := range g.nodes {
		if !n.State().Terminal() {
			return false
		}
	}
	return true
}

// Platforms returns the distinct platform names referenced by the graph,
// in first-appearance order. The scheduler sizes its worker pool from this:
// one lane per platform.
func (g *Graph) Platforms() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range g.order {
		p := g.nodes[id].Spec.Platform
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
