// Package scheduler topologically executes a pipeline graph with a pool
// of concurrent workers, one logical lane per platform. Within a platform,
// build strictly precedes test through the dependency edge; across
// platforms there is no ordering guarantee and no failure coupling.
package scheduler
