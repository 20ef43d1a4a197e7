package graph

import (
	"sync"
	"sync/atomic"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/platform"
)

// State is the lifecycle state of a node. A node starts Pending, moves to
// Running when dispatched, and ends in exactly one of the terminal states.
type State int32

const (
	Pending State = iota
	Running
	Succeeded
	Failed
	Skipped
)

// String returns the lower-case state name used in reports and logs.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Skipped
}

// ParseState maps a state name back to its State. Used when re-reading
// serialized reports.
func ParseState(name string) (State, bool) {
	for _, s := range []State{Pending, Running, Succeeded, Failed, Skipped} {
		if s.String() == name {
			return s, true
		}
	}
	return Pending, false
}

// Node is the runtime instance of one job tracked through the scheduler.
// The scheduler is the only component that transitions node state.
type Node struct {
	// Spec is the declared job this node executes.
	Spec *config.Job
	// Target is the resolved platform for Spec.Platform.
	Target platform.Target
	// Dep is the node's single upstream dependency, nil for build jobs.
	Dep *Node
	// Dependents are the nodes gated on this one.
	Dependents []*Node

	// Err holds the failure or skip reason once the node is terminal.
	Err error
	// ExitCode is the exit code of the job's command sequence.
	ExitCode int

	state    atomic.Int32
	skipOnce sync.Once
}

// ID returns the node's job id.
func (n *Node) ID() string {
	return n.Spec.ID
}

// State returns the node's current state.
func (n *Node) State() State {
	return State(n.state.Load())
}

// SetState transitions the node to s. Terminal states are immutable: once
// a node is Succeeded, Failed, or Skipped, further transitions are ignored
// and SetState reports false.
func (n *Node) SetState(s State) bool {
	for {
		cur := n.state.Load()
		if State(cur).Terminal() {
			return false
		}
		if n.state.CompareAndSwap(cur, int32(s)) {
			return true
		}
	}
}

// SkipOnce runs fn exactly once for this node, used by the scheduler to
// make the skip decision idempotent under concurrent failure propagation.
func (n *Node) SkipOnce(fn func()) {
	n.skipOnce.Do(fn)
}
