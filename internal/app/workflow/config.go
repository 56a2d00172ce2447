// Package workflow holds the policy constants of a run: loop limits,
// stagnation window, and the agent command line. They live in
// etc/workflow.yaml so operators can tune them without rebuilding.
package workflow

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// AgentConfig describes how the external agent CLI is invoked
type AgentConfig struct {
	Bin  string   `yaml:"bin"`
	Args []string `yaml:"args"` // base arguments, the prompt is appended last
}

// Config is the workflow.yaml document
type Config struct {
	MaxCycles        int         `yaml:"max_cycles"`
	StagnationWindow int         `yaml:"stagnation_window"`
	IdleTimeoutSec   int         `yaml:"idle_timeout_sec"`
	RepeatWindow     int         `yaml:"repeat_window"`
	RepeatLimit      int         `yaml:"repeat_limit"`
	Agent            AgentConfig `yaml:"agent"`
}

// Default returns the built-in policy values
func Default() Config {
	return Config{
		MaxCycles:        6,
		StagnationWindow: 3,
		IdleTimeoutSec:   600,
		RepeatWindow:     6,
		RepeatLimit:      3,
		Agent: AgentConfig{
			Bin:  "claude",
			Args: []string{"--print", "--verbose", "--output-format", "stream-json"},
		},
	}
}

// Load reads workflow.yaml from the given path. A missing file yields the
// defaults; zero-valued fields in a present file fall back per field.
func Load(fsys afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if loaded.MaxCycles > 0 {
		cfg.MaxCycles = loaded.MaxCycles
	}
	if loaded.StagnationWindow > 0 {
		cfg.StagnationWindow = loaded.StagnationWindow
	}
	if loaded.IdleTimeoutSec > 0 {
		cfg.IdleTimeoutSec = loaded.IdleTimeoutSec
	}
	if loaded.RepeatWindow > 0 {
		cfg.RepeatWindow = loaded.RepeatWindow
	}
	if loaded.RepeatLimit > 0 {
		cfg.RepeatLimit = loaded.RepeatLimit
	}
	if loaded.Agent.Bin != "" {
		cfg.Agent.Bin = loaded.Agent.Bin
	}
	if loaded.Agent.Args != nil {
		cfg.Agent.Args = loaded.Agent.Args
	}
	return cfg, nil
}

// Seed renders the default document, written by `roleflow init`
func Seed() ([]byte, error) {
	cfg := Default()
	return yaml.Marshal(&cfg)
}
