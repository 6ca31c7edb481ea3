//go:build windows

package ipc

import "os/exec"

func setProcAttr(cmd *exec.Cmd) {
	// Windows has no process groups to detach from.
}
