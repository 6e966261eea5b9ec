// SPDX-License-Identifier: Apache-2.0

package models

import "sort"

// ErrorPrefix marks a CommandResult whose command could not be started or read
const ErrorPrefix = "Error executing command: "

// Step is one diagnostic unit of an issue type
type Step struct {
	Command        string            `json:"command" yaml:"command"`
	Description    string            `json:"description" yaml:"description"`
	ExpectedOutput string            `json:"expected_output" yaml:"expected_output"`
	Remediation    map[string]string `json:"remediation" yaml:"remediation"`
	SuccessWhen    string            `json:"success_when,omitempty" yaml:"success_when,omitempty"` // Optional CEL expression over the command result
}

// KnowledgeBase maps an issue type to its ordered diagnostic steps
type KnowledgeBase map[string][]Step

// Steps returns the steps registered for an issue type
func (kb KnowledgeBase) Steps(issueType string) ([]Step, bool) {
	steps, ok := kb[issueType]
	return steps, ok
}

// IssueTypes returns the issue type names in sorted order
func (kb KnowledgeBase) IssueTypes() []string {
	names := make([]string, 0, len(kb))
	for name := range kb {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandResult holds everything observed while running a step command.
// Output is the text handed to the reasoning layer: the combined stream,
// or an ErrorPrefix message when the command could not run.
type CommandResult struct {
	Command  string `json:"command"`
	Output   string `json:"output"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
	Err      string `json:"error,omitempty"`
}

// String returns the text result of the command
func (r CommandResult) String() string {
	return r.Output
}

// Failed reports whether the command failed to run or exited non-zero
func (r CommandResult) Failed() bool {
	return r.Err != "" || r.ExitCode != 0
}

// Observation is what the controller learned from running a step before
// handing it to the reasoning roles
type Observation struct {
	Result    CommandResult
	Condition string
	Healthy   *bool // nil when no condition was evaluated
}

// ExecutionOptions contains options for a debugging session
type ExecutionOptions struct {
	DryRun bool
}
