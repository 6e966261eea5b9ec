// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package runner

import "os/exec"

// killProcessGroup keeps the default of killing only the shell
func killProcessGroup(cmd *exec.Cmd) {}
