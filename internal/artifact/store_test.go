package artifact

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/graph"
	"github.com/vk/matrixci/internal/platform"
)

// pair builds a two-node graph (build + dependent test) on one platform.
func pair(t *testing.T, artifacts ...string) (*graph.Node, *graph.Node) {
	t.Helper()
	jobs := []*config.Job{
		{ID: "build-debian", Stage: config.StageBuild, Platform: "debian",
			Commands: []string{"make"}, Artifacts: artifacts},
		{ID: "test-debian", Stage: config.StageTest, Platform: "debian",
			Commands: []string{"make check"}, DependsOn: "build-debian"},
	}
	g, err := graph.Build(context.Background(), jobs, platform.Builtin())
	require.NoError(t, err)
	return g.Node("build-debian"), g.Node("test-debian")
}

func TestPublishAndResolve(t *testing.T) {
	build, test := pair(t, "bin", "lib/core.so")
	s := NewStore()

	h1, err := s.Publish(build.ID(), "bin", []byte("binary"))
	require.NoError(t, err)
	assert.Equal(t, build.ID(), h1.NodeID)
	assert.Equal(t, "bin", h1.Path)
	assert.EqualValues(t, 6, h1.Size)
	assert.NotEmpty(t, h1.ID)

	_, err = s.Publish(build.ID(), "lib/core.so", []byte("so"))
	require.NoError(t, err)

	handles, err := s.Resolve(test)
	require.NoError(t, err)
	// Exactly the declared paths, nothing else.
	require.Len(t, handles, 2)
	assert.Contains(t, handles, "bin")
	assert.Contains(t, handles, "lib/core.so")

	data, err := s.Open(handles["bin"])
	require.NoError(t, err)
	assert.Equal(t, []byte("binary"), data)
}

func TestPublishDuplicate(t *testing.T) {
	build, _ := pair(t, "bin")
	s := NewStore()

	_, err := s.Publish(build.ID(), "bin", []byte("one"))
	require.NoError(t, err)

	_, err = s.Publish(build.ID(), "bin", []byte("two"))
	assert.ErrorIs(t, err, ErrDuplicateArtifact)
}

func TestResolveMissing(t *testing.T) {
	build, test := pair(t, "bin", "extra")
	s := NewStore()

	_, err := s.Publish(build.ID(), "bin", []byte("binary"))
	require.NoError(t, err)

	_, err = s.Resolve(test)
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.ErrorContains(t, err, `"extra"`)
}

func TestResolveWithoutDependency(t *testing.T) {
	build, _ := pair(t, "bin")
	s := NewStore()

	handles, err := s.Resolve(build)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestPublishedContentIsImmutable(t *testing.T) {
	build, test := pair(t, "bin")
	s := NewStore()

	payload := []byte("original")
	_, err := s.Publish(build.ID(), "bin", payload)
	require.NoError(t, err)
	payload[0] = 'X'

	handles, err := s.Resolve(test)
	require.NoError(t, err)
	data, err := s.Open(handles["bin"])
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
}

func TestRelease(t *testing.T) {
	build, test := pair(t, "bin")
	s := NewStore()

	h, err := s.Publish(build.ID(), "bin", []byte("binary"))
	require.NoError(t, err)

	s.Release()

	_, err = s.Publish(build.ID(), "other", nil)
	assert.ErrorIs(t, err, ErrReleased)
	_, err = s.Resolve(test)
	assert.ErrorIs(t, err, ErrReleased)
	_, err = s.Open(h)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestConcurrentLanes(t *testing.T) {
	// Each lane publishes only its own node's artifacts; the store must
	// stay consistent under concurrent inserts from all lanes.
	s := NewStore()

	var wg sync.WaitGroup
	for lane := 0; lane < 5; lane++ {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			nodeID := fmt.Sprintf("build-%d", lane)
			for i := 0; i < 20; i++ {
				_, err := s.Publish(nodeID, fmt.Sprintf("artifact-%d", i), []byte("x"))
				assert.NoError(t, err)
			}
		}(lane)
	}
	wg.Wait()
}
