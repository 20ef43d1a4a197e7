package executor

import (
	"os"
	"strings"
)

// DataDirVar is the base data-directory variable every job inherits and
// has extended with its own workspace.
const DataDirVar = "MATRIXCI_DATA_DIR"

// composeEnv merges the base environment with the per-job overrides: PATH
// gains the install bin directory, DataDirVar gains the job workspace, and
// the target's library-path variable gains the install lib directory, each
// prepended so freshly built binaries and libraries win lookup. All other
// variables pass through unchanged.
func composeEnv(base []string, libraryPathVar, installDir, workDir string) []string {
	overrides := map[string]string{
		"PATH":         installDir + string(os.PathSeparator) + "bin",
		DataDirVar:     workDir,
		libraryPathVar: installDir + string(os.PathSeparator) + "lib",
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix, hit := overrides[name]; hit {
			env = append(env, name+"="+prependList(prefix, value))
			delete(overrides, name)
			continue
		}
		env = append(env, kv)
	}
	// Variables absent from the base environment are still set.
	for name, prefix := range overrides {
		env = append(env, name+"="+prefix)
	}
	return env
}

// prependList puts head in front of a colon-separated search path.
func prependList(head, rest string) string {
	if rest == "" {
		return head
	}
	return head + string(os.PathListSeparator) + rest
}
