package app

import (
	"errors"
	"log/slog"
)

// Commands understood by the orchestrator binary.
const (
	CommandRun      = "run"
	CommandValidate = "validate"
)

// Config holds everything an App instance needs to run.
type Config struct {
	Command      string // "run" or "validate"
	PipelinePath string // .hcl or .yaml/.yml pipeline file

	Workdir    string // root for job workspaces; a temp dir when empty
	ReportFile string // optional YAML report destination

	LogFormat  string
	LogLevel   slog.Level
	StatusPort int
	Workers    int
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Command != CommandRun && cfg.Command != CommandValidate {
		return nil, errors.New("Command must be either run or validate")
	}
	return &cfg, nil
}
