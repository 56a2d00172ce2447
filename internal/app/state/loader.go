package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrNoState signals that no prior persisted state exists.
// The scheduler uses it to decide bootstrap versus resume.
var ErrNoState = errors.New("no prior state")

// Load reads and validates a persisted state from the given path.
// A missing file is reported as ErrNoState; everything else (unreadable
// file, invalid JSON, violated invariants) is fatal, because the core must
// not proceed on uncertain state.
func Load(fsys afero.Fs, path string) (*State, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", path, err)
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
	}
	return &st, nil
}
