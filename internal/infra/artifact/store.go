// Package artifact manages the shared collaboration files the roles
// produce and consume. Every artifact is a current-state snapshot that is
// overwritten each cycle, never an append-only log; this bounds file size
// and avoids stale-context drift.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/roleflow/roleflow/internal/app/journal"
	"github.com/roleflow/roleflow/internal/infra/fs"
)

// Artifact file names, all relative to the workspace directory
const (
	PlanFile         = "plan.md"
	ArchitectureFile = "architecture.md"
	DevelopmentFile  = "development.md"
	ReviewFile       = "review.md"
	TestResultsFile  = "test_results.md"
	ComplianceFile   = "compliance.md"
	DecisionsLogFile = "decisions_log.md"
)

// Names lists every managed artifact
var Names = []string{
	PlanFile, ArchitectureFile, DevelopmentFile,
	ReviewFile, TestResultsFile, ComplianceFile, DecisionsLogFile,
}

var titles = map[string]string{
	ArchitectureFile: "Architecture",
	DevelopmentFile:  "Development State",
	ReviewFile:       "Review State",
	TestResultsFile:  "Test State",
	ComplianceFile:   "Compliance State",
}

// Store reads and writes the named artifacts of one workspace
type Store struct {
	fsys afero.Fs
	dir  string
}

// NewStore creates a store rooted at the workspace directory
func NewStore(fsys afero.Fs, dir string) *Store {
	return &Store{fsys: fsys, dir: dir}
}

// Dir returns the workspace directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a named artifact
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named artifact is present
func (s *Store) Exists(name string) bool {
	ok, err := afero.Exists(s.fsys, s.Path(name))
	return err == nil && ok
}

// Read returns the full content of a named artifact.
// A missing artifact reads as empty.
func (s *Store) Read(name string) (string, error) {
	data, err := afero.ReadFile(s.fsys, s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// Write replaces a named artifact atomically
func (s *Store) Write(name, content string) error {
	if err := fs.WriteFileAtomic(s.fsys, s.Path(name), []byte(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// WriteSnapshot replaces a role artifact with the normalized snapshot shape
func (s *Store) WriteSnapshot(name, body string) error {
	title := titles[name]
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "(no updates yet)"
	}
	content := fmt.Sprintf("# %s\n\nUpdated: %s\n\n## Current State\n%s\n",
		title, time.Now().Format(time.RFC3339), body)
	return s.Write(name, content)
}

// EnsureSeeds creates any missing artifact with its initial content.
// The plan seed records the run inputs so follow-up runs can recover them.
func (s *Store) EnsureSeeds(idea, guidelines, rolePreferences string) error {
	if rolePreferences == "" {
		rolePreferences = "(none)"
	}
	seeds := map[string]string{
		PlanFile: fmt.Sprintf(
			"# Plan\n\n## Inputs\n- Idea: %s\n- Guidelines: %s\n- Role Preferences: %s\n\n## Current Plan\n(To be written by planner)\n",
			idea, guidelines, rolePreferences),
		ArchitectureFile: "# Architecture\n\n(To be written by architect)\n",
		DevelopmentFile:  "# Development State\n\n(To be maintained as current state by developer)\n",
		ReviewFile:       "# Review State\n\n(To be maintained as current state by reviewer)\n",
		TestResultsFile:  "# Test State\n\n(To be maintained as current state by tester)\n",
		ComplianceFile:   "# Compliance State\n\n(To be maintained as current state by compliance role)\n",
		DecisionsLogFile: "# Decisions\n\n(no decisions yet)\n",
	}
	for name, content := range seeds {
		if s.Exists(name) {
			continue
		}
		if err := s.Write(name, content); err != nil {
			return err
		}
	}
	return nil
}

// RenderDecisionsLog rewrites decisions_log.md from the journal tail.
// The log is a bounded current-state view of recent gate decisions, not an
// unbounded history; the NDJSON journal keeps the full trail.
func (s *Store) RenderDecisionsLog(entries []journal.Entry) error {
	var b strings.Builder
	b.WriteString("# Decisions\n\n")
	b.WriteString(fmt.Sprintf("Updated: %s\n\n## Recent Gates\n", time.Now().Format(time.RFC3339)))
	if len(entries) == 0 {
		b.WriteString("(no decisions yet)\n")
	}
	for _, e := range entries {
		line := fmt.Sprintf("- %s | cycle=%d | role=%s", e.TS, e.Cycle, e.Role)
		if e.StepID != "" {
			line += " | step=" + e.StepID
		}
		line += " | decision=" + e.Decision
		if e.Handoff != "" {
			line += " | handoff=" + e.Handoff
		}
		if e.Reason != "" {
			line += " | reason=" + e.Reason
		}
		if e.Error != "" {
			line += " | error=" + e.Error
		}
		b.WriteString(line + "\n")
	}
	return s.Write(DecisionsLogFile, b.String())
}
