// Package graph builds and validates the dependency graph of a pipeline.
//
// Construction happens in two passes: node creation validates each job
// record in isolation (ids, stages, platforms, commands), then linking
// resolves every declared dependency into a checked test-to-build edge on
// the same platform. Readiness computation is pure so the scheduler can
// recompute it as node states change.
package graph
