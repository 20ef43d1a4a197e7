// Package app wires the orchestrator together: configuration, logging,
// pipeline loading, the status server, and the run and validate flows.
package app
