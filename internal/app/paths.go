package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved paths for the roleflow home directory.
// Collaboration artifacts (plan.md, review.md, ...) live in the workspace
// itself, not under Home; see internal/infra/artifact.
type Paths struct {
	Home string // .roleflow directory
	Etc  string // .roleflow/etc
	Var  string // .roleflow/var

	// Key files
	Workflow string // .roleflow/etc/workflow.yaml
	State    string // .roleflow/var/state.json
	Journal  string // .roleflow/var/journal.ndjson
}

// ResolvePaths returns all paths based on the ROLEFLOW_HOME environment variable
func ResolvePaths() Paths {
	home := os.Getenv("ROLEFLOW_HOME")
	if home == "" {
		home = ".roleflow"
	}
	return ResolvePathsFrom(home)
}

// ResolvePathsFrom builds the path set rooted at an explicit home directory
func ResolvePathsFrom(home string) Paths {
	p := Paths{
		Home: home,
		Etc:  filepath.Join(home, "etc"),
		Var:  filepath.Join(home, "var"),
	}

	p.Workflow = filepath.Join(p.Etc, "workflow.yaml")
	p.State = filepath.Join(p.Var, "state.json")
	p.Journal = filepath.Join(p.Var, "journal.ndjson")

	return p
}
