//go:build !windows

package ipc

import (
	"os/exec"
	"syscall"
)

// setProcAttr detaches the daemon from the parent process group so it
// survives the CLI exiting.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
