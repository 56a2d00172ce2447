//go:build windows

package agentcli

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup falls back to killing the direct child on Windows
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
