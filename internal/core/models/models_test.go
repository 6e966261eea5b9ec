// SPDX-License-Identifier: Apache-2.0

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnowledgeBase(t *testing.T) {
	kb := KnowledgeBase{
		"high_cpu_usage": {
			{Command: "top -bn1 | head -20", Description: "Check CPU consumers"},
		},
		"disk_full": {
			{Command: "df -h", Description: "Check disk usage"},
			{Command: "du -sh /var/log", Description: "Check log size"},
		},
	}

	t.Run("StepsForKnownIssue", func(t *testing.T) {
		steps, ok := kb.Steps("disk_full")
		assert.True(t, ok)
		assert.Len(t, steps, 2)
		assert.Equal(t, "df -h", steps[0].Command)
		assert.Equal(t, "du -sh /var/log", steps[1].Command)
	})

	t.Run("StepsForUnknownIssue", func(t *testing.T) {
		steps, ok := kb.Steps("memory_leak")
		assert.False(t, ok)
		assert.Nil(t, steps)
	})

	t.Run("IssueTypesSorted", func(t *testing.T) {
		assert.Equal(t, []string{"disk_full", "high_cpu_usage"}, kb.IssueTypes())
	})
}

func TestCommandResult(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		result := CommandResult{Output: "ok\n", Stdout: "ok\n"}
		assert.False(t, result.Failed())
		assert.Equal(t, "ok\n", result.String())
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		result := CommandResult{Output: "boom\n", ExitCode: 2}
		assert.True(t, result.Failed())
	})

	t.Run("LaunchError", func(t *testing.T) {
		result := CommandResult{Output: ErrorPrefix + "exec: not found", Err: "exec: not found", ExitCode: -1}
		assert.True(t, result.Failed())
		assert.Contains(t, result.String(), ErrorPrefix)
	})
}
