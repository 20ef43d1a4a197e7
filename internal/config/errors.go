package config

import "fmt"

// ConfigError reports a malformed or contradictory pipeline description.
// It is fatal: nothing is executed once one is raised. JobID names the
// offending job when the problem is attributable to a single record.
type ConfigError struct {
	JobID  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("invalid pipeline: %s", e.Reason)
	}
	return fmt.Sprintf("invalid pipeline: job %q: %s", e.JobID, e.Reason)
}

// Errorf constructs a ConfigError for the given job id.
func Errorf(jobID, format string, args ...any) *ConfigError {
	return &ConfigError{JobID: jobID, Reason: fmt.Sprintf(format, args...)}
}
