//go:build !windows

package agentcli

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so the whole
// tree can be terminated together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup terminates the child's process group.
// Killing only the direct child would leak long-running grandchildren
// (shells, build tools) spawned by the agent.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
