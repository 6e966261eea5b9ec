// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kusari-oss/fixit/internal/core/models"
)

// Shell exit statuses for a command that was never started
const (
	exitNotExecutable = 126
	exitNotFound      = 127
)

// pipeWaitDelay bounds how long Wait keeps reading output after the shell
// exits or the context is cancelled
const pipeWaitDelay = 500 * time.Millisecond

// Runner executes one shell command. Implementations never return an error:
// failures are reported inside the result.
type Runner interface {
	Run(ctx context.Context, command string) models.CommandResult
}

// Func adapts a plain function to the Runner interface
type Func func(ctx context.Context, command string) models.CommandResult

// Run calls f
func (f Func) Run(ctx context.Context, command string) models.CommandResult {
	return f(ctx, command)
}

// ShellRunner runs commands through a shell and echoes their output live
type ShellRunner struct {
	shell       string
	workingDir  string
	environment []string
	output      io.Writer
}

// NewShellRunner creates a runner using /bin/sh that echoes to stdout
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		shell:  "/bin/sh",
		output: os.Stdout,
	}
}

// WithShell sets the shell binary; it is invoked as "<shell> -c <command>"
func (r *ShellRunner) WithShell(shell string) *ShellRunner {
	r.shell = shell
	return r
}

// WithWorkingDir sets the working directory
func (r *ShellRunner) WithWorkingDir(dir string) *ShellRunner {
	r.workingDir = dir
	return r
}

// WithEnvironment sets extra environment variables on top of the process environment
func (r *ShellRunner) WithEnvironment(env []string) *ShellRunner {
	r.environment = env
	return r
}

// WithOutput sets where live output is echoed; nil disables the echo
func (r *ShellRunner) WithOutput(w io.Writer) *ShellRunner {
	if w == nil {
		w = io.Discard
	}
	r.output = w
	return r
}

// Execute runs command and returns its text result
func (r *ShellRunner) Execute(command string) string {
	return r.Run(context.Background(), command).Output
}

// Run executes the command, streaming stdout and stderr line by line to the
// configured output as they arrive. Cancelling ctx kills the command's whole
// process group.
func (r *ShellRunner) Run(ctx context.Context, command string) models.CommandResult {
	result := models.CommandResult{Command: command, ExitCode: -1}

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(r.environment) > 0 {
		cmd.Env = append(os.Environ(), r.environment...)
	}
	killProcessGroup(cmd)
	// Background children may hold the output pipes open after the shell exits
	cmd.WaitDelay = pipeWaitDelay

	var (
		mu       sync.Mutex
		combined strings.Builder
	)
	stdout := &lineWriter{mu: &mu, combined: &combined, echo: r.output}
	stderr := &lineWriter{mu: &mu, combined: &combined, echo: r.output}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return failed(result, err)
	}
	waitErr := cmd.Wait()
	stdout.flush()
	stderr.flush()

	result.Output = combined.String()
	result.Stdout = stdout.captured.String()
	result.Stderr = stderr.captured.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return failed(result, ctx.Err())
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// the shell itself finished; a detached child still owns the pipes
	case waitErr != nil && !errors.As(waitErr, &exitErr):
		return failed(result, waitErr)
	case result.ExitCode == exitNotExecutable || result.ExitCode == exitNotFound:
		return failed(result, fmt.Errorf("command could not be started (%w)", waitErr))
	}

	return result
}

// lineWriter captures one stream and echoes it a whole line at a time.
// The mutex is shared so lines from stdout and stderr never interleave.
type lineWriter struct {
	mu       *sync.Mutex
	combined *strings.Builder
	captured strings.Builder
	echo     io.Writer
	pending  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.pending[:i+1])
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

// flush emits a trailing partial line once the command is done
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) > 0 {
		w.emit(w.pending)
		w.pending = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	w.combined.Write(line)
	w.captured.Write(line)
	_, _ = w.echo.Write(line)
}

// failed converts an execution failure into the error text result,
// keeping any output captured before the failure
func failed(result models.CommandResult, err error) models.CommandResult {
	result.Err = err.Error()
	msg := fmt.Sprintf("%s%v", models.ErrorPrefix, err)
	if result.Output != "" {
		msg = result.Output + "\n" + msg
	}
	result.Output = msg
	return result
}
