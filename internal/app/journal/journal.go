// Package journal appends one NDJSON record per gate decision.
// The journal is the audit trail of the run: decisions_log.md is rendered
// from its tail, and a terminal halt reports from it so a human can
// diagnose without re-running.
package journal

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// Entry is a single journal record
type Entry struct {
	ID        string            `json:"id"`
	TS        string            `json:"ts"`
	Cycle     int               `json:"cycle"`
	Role      string            `json:"role"`
	StepID    string            `json:"step_id,omitempty"`
	Markers   map[string]string `json:"markers,omitempty"`
	Decision  string            `json:"decision"`
	Handoff   string            `json:"handoff,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Error     string            `json:"error,omitempty"`
}

// Writer appends normalized entries to the journal file
type Writer struct {
	fsys afero.Fs
	path string
}

// NewWriter creates a journal writer for the given path
func NewWriter(fsys afero.Fs, path string) *Writer {
	return &Writer{fsys: fsys, path: path}
}

// Append writes one entry as a JSON line and syncs it to disk.
// Missing ID and timestamp are filled in.
func (w *Writer) Append(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}
	if entry.TS == "" {
		entry.TS = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := w.fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	f, err := w.fsys.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}

	// Durability: the journal is the audit trail, keep it synced
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return nil
}

// ReadTail returns up to n most recent entries in chronological order.
// A missing journal yields an empty slice.
func ReadTail(fsys afero.Fs, path string, n int) ([]Entry, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// Skip torn or foreign lines rather than failing the whole read
			continue
		}
		entries = append(entries, e)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
