//go:build !windows

package compiler

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the transformer in its own process group
// and replaces the context cancel action with a group-wide kill, so npm
// wrapper scripts cannot leave orphaned children behind on timeout.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			return syscall.Kill(-pgid, syscall.SIGKILL)
		}
		return cmd.Process.Kill()
	}
}
