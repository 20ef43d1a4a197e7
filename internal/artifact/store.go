// Package artifact implements the in-memory store that carries build
// outputs to dependent test jobs. The store is the only inter-node
// transfer path: a test node never reads its build node's output directly.
package artifact

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/matrixci/internal/graph"
)

// ErrDuplicateArtifact is returned when a path is published twice for the
// same node. ErrMissingArtifact is returned when a consumer's upstream
// artifacts are not all present. Both indicate a scheduler bug: under
// correct dependency enforcement neither is reachable.
var (
	ErrDuplicateArtifact = errors.New("artifact already published")
	ErrMissingArtifact   = errors.New("artifact not published")
	ErrReleased          = errors.New("artifact store released")
)

// Handle identifies one published artifact. Handles are immutable; the
// content behind a handle never changes after Publish.
type Handle struct {
	ID     string
	NodeID string
	Path   string
	Size   int64
}

type entry struct {
	handle Handle
	data   []byte
}

// Store is the shared artifact registry. Publish and Resolve are safe
// under concurrent access from different platform lanes; each lane only
// touches its own node's artifacts, so contention is limited to the
// registry map guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	byNode   map[string]map[string]entry
	released bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byNode: make(map[string]map[string]entry)}
}

// Publish records data as the artifact at path produced by nodeID and
// returns its handle. Publishing the same path twice for a node fails
// with ErrDuplicateArtifact.
func (s *Store) Publish(nodeID, path string, data []byte) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return Handle{}, fmt.Errorf("publish %q for job %q: %w", path, nodeID, ErrReleased)
	}
	paths, ok := s.byNode[nodeID]
	if !ok {
		paths = make(map[string]entry)
		s.byNode[nodeID] = paths
	}
	if _, exists := paths[path]; exists {
		return Handle{}, fmt.Errorf("publish %q for job %q: %w", path, nodeID, ErrDuplicateArtifact)
	}

	h := Handle{
		ID:     uuid.NewString(),
		NodeID: nodeID,
		Path:   path,
		Size:   int64(len(data)),
	}
	// Copy so the caller cannot mutate published content afterwards.
	buf := make([]byte, len(data))
	copy(buf, data)
	paths[path] = entry{handle: h, data: buf}
	return h, nil
}

// Resolve returns the handles for every artifact declared by the
// consumer's upstream build node. All declared paths must be present;
// a gap fails with ErrMissingArtifact. A consumer without a dependency
// resolves to an empty mapping.
func (s *Store) Resolve(consumer *graph.Node) (map[string]Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, fmt.Errorf("resolve for job %q: %w", consumer.ID(), ErrReleased)
	}
	out := make(map[string]Handle)
	if consumer.Dep == nil {
		return out, nil
	}

	producer := consumer.Dep
	paths := s.byNode[producer.ID()]
	for _, want := range producer.Spec.Artifacts {
		e, ok := paths[want]
		if !ok {
			return nil, fmt.Errorf("resolve for job %q: %q from job %q: %w",
				consumer.ID(), want, producer.ID(), ErrMissingArtifact)
		}
		out[want] = e.handle
	}
	return out, nil
}

// Open returns the content behind a handle.
func (s *Store) Open(h Handle) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, fmt.Errorf("open %q: %w", h.Path, ErrReleased)
	}
	e, ok := s.byNode[h.NodeID][h.Path]
	if !ok || e.handle.ID != h.ID {
		return nil, fmt.Errorf("open %q from job %q: %w", h.Path, h.NodeID, ErrMissingArtifact)
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Release drops all artifact content, making it eligible for garbage
// collection. Called once the run report is finalized; artifacts live for
// the full run before that.
func (s *Store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byNode = nil
	s.released = true
}
