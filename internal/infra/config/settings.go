package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	appconfig "github.com/roleflow/roleflow/internal/app/config"
	"github.com/roleflow/roleflow/internal/app/workflow"
)

// RawSettings represents the structure of setting.json.
// Pointer fields distinguish "absent" from zero values.
type RawSettings struct {
	Home           *string  `json:"home"`
	WorkDir        *string  `json:"work_dir"`
	AgentBin       *string  `json:"agent_bin"`
	AgentArgs      []string `json:"agent_args"`
	IdleTimeoutSec *int     `json:"idle_timeout_sec"`

	MaxCycles        *int `json:"max_cycles"`
	StagnationWindow *int `json:"stagnation_window"`
	RepeatWindow     *int `json:"repeat_window"`
	RepeatLimit      *int `json:"repeat_limit"`

	BriefFile   *string `json:"brief_file"`
	ChangesFile *string `json:"changes_file"`
	PolicyFile  *string `json:"policy_file"`

	StrictGates   *bool `json:"strict_gates"`
	ScanSensitive *bool `json:"scan_sensitive"`
}

// LoadSettings builds the effective configuration for a home directory.
// Priority: setting.json > ROLEFLOW_* environment > etc/workflow.yaml >
// built-in defaults.
func LoadSettings(fsys afero.Fs, baseDir string) (*appconfig.AppConfig, error) {
	wf, err := workflow.Load(fsys, filepath.Join(baseDir, "etc", "workflow.yaml"))
	if err != nil {
		return nil, err
	}

	// Defaults, policy file values already folded in
	home := baseDir
	workDir := "."
	agentBin := wf.Agent.Bin
	agentArgs := wf.Agent.Args
	idleTimeoutSec := wf.IdleTimeoutSec
	maxCycles := wf.MaxCycles
	stagnationWindow := wf.StagnationWindow
	repeatWindow := wf.RepeatWindow
	repeatLimit := wf.RepeatLimit
	briefFile := "brief.md"
	changesFile := "changes.md"
	policyFile := "agent_policies.md"
	strictGates := true
	scanSensitive := true

	// Environment overrides
	if v := os.Getenv("ROLEFLOW_WORKDIR"); v != "" {
		workDir = v
	}
	if v := os.Getenv("ROLEFLOW_AGENT_BIN"); v != "" {
		agentBin = v
	}
	if v := os.Getenv("ROLEFLOW_AGENT_ARGS"); v != "" {
		agentArgs = strings.Fields(v)
	}
	if v, ok := envInt("ROLEFLOW_IDLE_TIMEOUT_SEC"); ok {
		idleTimeoutSec = v
	}
	if v, ok := envInt("ROLEFLOW_MAX_CYCLES"); ok {
		maxCycles = v
	}
	if v, ok := envInt("ROLEFLOW_STAGNATION_WINDOW"); ok {
		stagnationWindow = v
	}
	if v, ok := envInt("ROLEFLOW_REPEAT_WINDOW"); ok {
		repeatWindow = v
	}
	if v, ok := envInt("ROLEFLOW_REPEAT_LIMIT"); ok {
		repeatLimit = v
	}
	if v, ok := envBool("ROLEFLOW_STRICT_GATES"); ok {
		strictGates = v
	}
	if v, ok := envBool("ROLEFLOW_SCAN_SENSITIVE"); ok {
		scanSensitive = v
	}

	// setting.json wins over everything
	configSource := "default"
	settingPath := ""
	jsonPath := filepath.Join(baseDir, "setting.json")
	if data, err := afero.ReadFile(fsys, jsonPath); err == nil {
		var raw RawSettings
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
		configSource = "json"
		settingPath = jsonPath

		if raw.Home != nil {
			home = *raw.Home
		}
		if raw.WorkDir != nil {
			workDir = *raw.WorkDir
		}
		if raw.AgentBin != nil {
			agentBin = *raw.AgentBin
		}
		if raw.AgentArgs != nil {
			agentArgs = raw.AgentArgs
		}
		if raw.IdleTimeoutSec != nil {
			idleTimeoutSec = *raw.IdleTimeoutSec
		}
		if raw.MaxCycles != nil {
			maxCycles = *raw.MaxCycles
		}
		if raw.StagnationWindow != nil {
			stagnationWindow = *raw.StagnationWindow
		}
		if raw.RepeatWindow != nil {
			repeatWindow = *raw.RepeatWindow
		}
		if raw.RepeatLimit != nil {
			repeatLimit = *raw.RepeatLimit
		}
		if raw.BriefFile != nil {
			briefFile = *raw.BriefFile
		}
		if raw.ChangesFile != nil {
			changesFile = *raw.ChangesFile
		}
		if raw.PolicyFile != nil {
			policyFile = *raw.PolicyFile
		}
		if raw.StrictGates != nil {
			strictGates = *raw.StrictGates
		}
		if raw.ScanSensitive != nil {
			scanSensitive = *raw.ScanSensitive
		}
	} else if configSource == "default" && envTouched() {
		configSource = "env"
	}

	return appconfig.NewAppConfig(
		home, workDir, agentBin, agentArgs, idleTimeoutSec,
		maxCycles, stagnationWindow, repeatWindow, repeatLimit,
		briefFile, changesFile, policyFile,
		strictGates, scanSensitive,
		configSource, settingPath,
	), nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envTouched() bool {
	for _, key := range []string{
		"ROLEFLOW_WORKDIR", "ROLEFLOW_AGENT_BIN", "ROLEFLOW_AGENT_ARGS",
		"ROLEFLOW_IDLE_TIMEOUT_SEC", "ROLEFLOW_MAX_CYCLES",
		"ROLEFLOW_STAGNATION_WINDOW", "ROLEFLOW_REPEAT_WINDOW",
		"ROLEFLOW_REPEAT_LIMIT", "ROLEFLOW_STRICT_GATES", "ROLEFLOW_SCAN_SENSITIVE",
	} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
