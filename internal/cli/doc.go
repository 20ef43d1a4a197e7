// Package cli parses the orchestrator's command line into an app.Config
// and maps usage problems onto distinct process exit codes.
package cli
