package config

import "context"

// Loader is the interface for a format-specific pipeline loader. A loader
// reads a pipeline description from path and translates it into the
// format-agnostic Model without validating cross-job consistency; that is
// the graph builder's job.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
