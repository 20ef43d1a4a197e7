// Package platform defines the fixed registry of execution targets a
// pipeline can address. A target is a named environment plus the name of
// the dynamic-library search-path variable its OS family uses, so that
// per-platform behavior is data, not duplicated control flow.
package platform

import "fmt"

// Library search-path variable names by OS family.
const (
	LinuxLibraryPathVar  = "LD_LIBRARY_PATH"
	DarwinLibraryPathVar = "DYLD_LIBRARY_PATH"
)

// Target is a single named execution environment. Targets are immutable
// after registration.
type Target struct {
	Name           string
	LibraryPathVar string
}

// Registry is an immutable collection of targets keyed by name.
type Registry struct {
	targets map[string]Target
	order   []string
}

// NewRegistry builds a registry from the given targets. Names must be unique.
func NewRegistry(targets ...Target) (*Registry, error) {
	r := &Registry{targets: make(map[string]Target, len(targets))}
	for _, t := range targets {
		if t.Name == "" {
			return nil, fmt.Errorf("platform target with empty name")
		}
		if _, exists := r.targets[t.Name]; exists {
			return nil, fmt.Errorf("duplicate platform target %q", t.Name)
		}
		r.targets[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Builtin returns the registry of the five supported targets: four Linux
// distributions sharing the LD_LIBRARY_PATH convention and one macOS target
// using DYLD_LIBRARY_PATH.
func Builtin() *Registry {
	r, err := NewRegistry(
		Target{Name: "debian", LibraryPathVar: LinuxLibraryPathVar},
		Target{Name: "ubuntu", LibraryPathVar: LinuxLibraryPathVar},
		Target{Name: "fedora", LibraryPathVar: LinuxLibraryPathVar},
		Target{Name: "rockylinux", LibraryPathVar: LinuxLibraryPathVar},
		Target{Name: "macos", LibraryPathVar: DarwinLibraryPathVar},
	)
	if err != nil {
		// The builtin set is static, so this is unreachable.
		panic(err)
	}
	return r
}

// Lookup returns the target registered under name.
func (r *Registry) Lookup(name string) (Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns the target names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.targets)
}
