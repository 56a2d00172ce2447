package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	cfg, err := LoadSettings(afero.NewMemMapFs(), "/home/.roleflow")
	require.NoError(t, err)

	assert.Equal(t, "/home/.roleflow", cfg.Home())
	assert.Equal(t, ".", cfg.WorkDir())
	assert.Equal(t, "claude", cfg.AgentBin())
	assert.Equal(t, 600, cfg.IdleTimeoutSec())
	assert.Equal(t, 6, cfg.MaxCycles())
	assert.Equal(t, 3, cfg.StagnationWindow())
	assert.Equal(t, "brief.md", cfg.BriefFile())
	assert.Equal(t, "changes.md", cfg.ChangesFile())
	assert.True(t, cfg.StrictGates())
	assert.True(t, cfg.ScanSensitive())
	assert.Equal(t, "default", cfg.ConfigSource())
}

func TestLoadSettingsWorkflowYAML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	doc := `max_cycles: 9
idle_timeout_sec: 120
agent:
  bin: fake-agent
  args: ["--quiet"]
`
	require.NoError(t, afero.WriteFile(fsys, "/h/etc/workflow.yaml", []byte(doc), 0o644))

	cfg, err := LoadSettings(fsys, "/h")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxCycles())
	assert.Equal(t, 120, cfg.IdleTimeoutSec())
	assert.Equal(t, "fake-agent", cfg.AgentBin())
	assert.Equal(t, []string{"--quiet"}, cfg.AgentArgs())
}

func TestLoadSettingsEnvOverridesYAML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/h/etc/workflow.yaml",
		[]byte("max_cycles: 9\n"), 0o644))
	t.Setenv("ROLEFLOW_MAX_CYCLES", "4")
	t.Setenv("ROLEFLOW_STRICT_GATES", "false")

	cfg, err := LoadSettings(fsys, "/h")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxCycles())
	assert.False(t, cfg.StrictGates())
	assert.Equal(t, "env", cfg.ConfigSource())
}

func TestLoadSettingsJSONWinsOverEnv(t *testing.T) {
	fsys := afero.NewMemMapFs()
	settings := `{
  "work_dir": "/project",
  "max_cycles": 2,
  "brief_file": "idea.md",
  "scan_sensitive": false
}`
	require.NoError(t, afero.WriteFile(fsys, "/h/setting.json", []byte(settings), 0o644))
	t.Setenv("ROLEFLOW_MAX_CYCLES", "99")

	cfg, err := LoadSettings(fsys, "/h")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxCycles())
	assert.Equal(t, "/project", cfg.WorkDir())
	assert.Equal(t, "idea.md", cfg.BriefFile())
	assert.False(t, cfg.ScanSensitive())
	assert.Equal(t, "json", cfg.ConfigSource())
	assert.Equal(t, "/h/setting.json", cfg.SettingPath())
}

func TestLoadSettingsRejectsBrokenJSON(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/h/setting.json", []byte("{oops"), 0o644))

	_, err := LoadSettings(fsys, "/h")
	assert.Error(t, err)
}

func TestAgentArgsCopied(t *testing.T) {
	cfg, err := LoadSettings(afero.NewMemMapFs(), "/h")
	require.NoError(t, err)

	args := cfg.AgentArgs()
	require.NotEmpty(t, args)
	args[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.AgentArgs()[0])
}
