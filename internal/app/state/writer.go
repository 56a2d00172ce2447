package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/roleflow/roleflow/internal/infra/fs"
)

// SaveAtomic persists the state with an updated timestamp.
// The write is atomic from the reader's perspective (temp file + rename),
// so a crash between cycles loses at most the in-flight invocation, never
// committed history. The record is indented JSON to allow human inspection.
func SaveAtomic(fsys afero.Fs, st *State, path string) error {
	st.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')

	if err := fs.WriteFileAtomic(fsys, path, data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
