// SPDX-License-Identifier: Apache-2.0

// Package tools holds the capabilities the reasoning roles may invoke
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kusari-oss/fixit/internal/core/schema"
	"github.com/kusari-oss/fixit/internal/fixit/gate"
	"github.com/kusari-oss/fixit/internal/fixit/runner"
	"go.uber.org/zap"
)

const (
	TerminalToolName        = "terminal_command"
	terminalToolDescription = "Execute commands in a terminal and display live output to the user"

	// DeclinedResult is handed back to the model when the user refuses a command
	DeclinedResult = "Command not run: declined by user"
)

var terminalParameters = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"command": map[string]interface{}{
			"type":        "string",
			"description": "Shell command to execute",
			"minLength":   1,
		},
	},
	"required":             []string{"command"},
	"additionalProperties": false,
}

// TerminalTool lets a role run shell commands. Knowledge-base commands run
// directly; anything else needs the user's confirmation first.
type TerminalTool struct {
	runner    runner.Runner
	confirmer gate.Confirmer
	allowed   map[string]bool
	logger    *zap.Logger
}

// NewTerminalTool creates a terminal tool that runs allowlisted commands
// without asking
func NewTerminalTool(r runner.Runner, confirmer gate.Confirmer, allowlist []string, logger *zap.Logger) *TerminalTool {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]bool, len(allowlist))
	for _, command := range allowlist {
		allowed[strings.TrimSpace(command)] = true
	}

	return &TerminalTool{
		runner:    r,
		confirmer: confirmer,
		allowed:   allowed,
		logger:    logger,
	}
}

// Name returns the tool name
func (t *TerminalTool) Name() string {
	return TerminalToolName
}

// Description returns the tool description
func (t *TerminalTool) Description() string {
	return terminalToolDescription
}

// Parameters returns the JSON schema of the tool arguments
func (t *TerminalTool) Parameters() map[string]interface{} {
	return terminalParameters
}

// Call runs the requested command and returns its text output
func (t *TerminalTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	if err := schema.ValidateParams(terminalParameters, args); err != nil {
		return "", fmt.Errorf("invalid %s arguments: %w", TerminalToolName, err)
	}
	command := strings.TrimSpace(args["command"].(string))

	if !t.allowed[command] {
		ok, err := t.confirmer.Confirm(ctx, "Run command requested by the assistant: "+command)
		if err != nil {
			return "", err
		}
		if !ok {
			t.logger.Info("User declined assistant command", zap.String("command", command))
			return DeclinedResult, nil
		}
	}

	t.logger.Info("Running assistant command", zap.String("command", command))
	return t.runner.Run(ctx, command).String(), nil
}
