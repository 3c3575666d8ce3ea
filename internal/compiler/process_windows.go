//go:build windows

package compiler

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureProcessGroup starts the transformer in a new process group.
// Windows has no pgid kill; the plain process kill on cancel is the
// best available behavior.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
}
