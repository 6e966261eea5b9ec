// SPDX-License-Identifier: Apache-2.0

//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the shell as a process group leader so that
// cancellation takes its children down with it
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
