package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (JSON, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string               // Base directory for roleflow (ROLEFLOW_HOME)
	WorkDir() string            // Workspace the roles operate on (ROLEFLOW_WORKDIR)
	AgentBin() string           // Agent binary path (ROLEFLOW_AGENT_BIN)
	AgentArgs() []string        // Base arguments passed before the prompt
	IdleTimeoutSec() int        // Idle-silence limit in seconds (ROLEFLOW_IDLE_TIMEOUT_SEC)
	IdleTimeout() time.Duration // Idle-silence limit as Duration

	// Loop policy
	MaxCycles() int        // Maximum role cycles before forced halt
	StagnationWindow() int // Consecutive identical gate outcomes before halt
	RepeatWindow() int     // Progress-line window for subprocess loop detection
	RepeatLimit() int      // Repeats of that window before the invocation aborts

	// Workspace inputs
	BriefFile() string   // Markdown brief with idea/guidelines sections
	ChangesFile() string // Change request file for follow-up runs
	PolicyFile() string  // Compliance policy pack

	// Gate behavior
	StrictGates() bool   // Block completion on compliance/safeguard failure
	ScanSensitive() bool // Run the sensitive-content scan at the compliance gate

	// Metadata
	ConfigSource() string // Source of configuration: "json", "env", or "default"
	SettingPath() string  // Path to setting.json if loaded from file
}

// AppConfig is the concrete implementation of Config interface.
// It holds all configuration values loaded from various sources.
type AppConfig struct {
	home           string
	workDir        string
	agentBin       string
	agentArgs      []string
	idleTimeoutSec int

	maxCycles        int
	stagnationWindow int
	repeatWindow     int
	repeatLimit      int

	briefFile   string
	changesFile string
	policyFile  string

	strictGates   bool
	scanSensitive bool

	configSource string
	settingPath  string
}

// NewAppConfig creates an AppConfig with all fields set explicitly
func NewAppConfig(
	home, workDir, agentBin string,
	agentArgs []string,
	idleTimeoutSec int,
	maxCycles, stagnationWindow, repeatWindow, repeatLimit int,
	briefFile, changesFile, policyFile string,
	strictGates, scanSensitive bool,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:             home,
		workDir:          workDir,
		agentBin:         agentBin,
		agentArgs:        agentArgs,
		idleTimeoutSec:   idleTimeoutSec,
		maxCycles:        maxCycles,
		stagnationWindow: stagnationWindow,
		repeatWindow:     repeatWindow,
		repeatLimit:      repeatLimit,
		briefFile:        briefFile,
		changesFile:      changesFile,
		policyFile:       policyFile,
		strictGates:      strictGates,
		scanSensitive:    scanSensitive,
		configSource:     configSource,
		settingPath:      settingPath,
	}
}

func (c *AppConfig) Home() string    { return c.home }
func (c *AppConfig) WorkDir() string { return c.workDir }

func (c *AppConfig) AgentBin() string { return c.agentBin }

// AgentArgs returns a copy so callers cannot mutate the configured slice
func (c *AppConfig) AgentArgs() []string {
	out := make([]string, len(c.agentArgs))
	copy(out, c.agentArgs)
	return out
}

func (c *AppConfig) IdleTimeoutSec() int { return c.idleTimeoutSec }

func (c *AppConfig) IdleTimeout() time.Duration {
	return time.Duration(c.idleTimeoutSec) * time.Second
}

func (c *AppConfig) MaxCycles() int        { return c.maxCycles }
func (c *AppConfig) StagnationWindow() int { return c.stagnationWindow }
func (c *AppConfig) RepeatWindow() int     { return c.repeatWindow }
func (c *AppConfig) RepeatLimit() int      { return c.repeatLimit }

func (c *AppConfig) BriefFile() string   { return c.briefFile }
func (c *AppConfig) ChangesFile() string { return c.changesFile }
func (c *AppConfig) PolicyFile() string  { return c.policyFile }

func (c *AppConfig) StrictGates() bool   { return c.strictGates }
func (c *AppConfig) ScanSensitive() bool { return c.scanSensitive }

func (c *AppConfig) ConfigSource() string { return c.configSource }
func (c *AppConfig) SettingPath() string  { return c.settingPath }
