package config

// Stage names the phase a job belongs to. Within one platform, build
// strictly precedes test.
type Stage string

const (
	StageBuild Stage = "build"
	StageTest  Stage = "test"
)

// Valid reports whether s is one of the recognized stages.
func (s Stage) Valid() bool {
	return s == StageBuild || s == StageTest
}

// Model is the format-agnostic representation of a loaded pipeline file.
// Loaders for each concrete format translate into this model; everything
// downstream (graph construction, scheduling) consumes only the model.
type Model struct {
	Pipeline Pipeline
	Jobs     []*Job
}

// Pipeline holds the file-level settings shared by all jobs.
type Pipeline struct {
	Name       string `yaml:"name"`
	InstallDir string `yaml:"install_dir"`
}

// Job is one declared unit of work: a stage on a platform with a command
// sequence, the artifact paths it produces, and at most one upstream
// dependency (test jobs reference their build job by id).
type Job struct {
	ID        string   `yaml:"id"`
	Stage     Stage    `yaml:"stage"`
	Platform  string   `yaml:"platform"`
	Commands  []string `yaml:"commands"`
	Artifacts []string `yaml:"artifacts"`
	DependsOn string   `yaml:"depends_on"`
}
