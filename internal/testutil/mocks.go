// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"

	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/fixit/reasoning"
	"github.com/stretchr/testify/mock"
)

// MockService mocks the reasoning service
type MockService struct {
	mock.Mock
}

// Submit mocks the Submit method
func (m *MockService) Submit(ctx context.Context, batch reasoning.Batch) (string, error) {
	args := m.Called(ctx, batch)
	return args.String(0), args.Error(1)
}

// MockConfirmer mocks the permission gate
type MockConfirmer struct {
	mock.Mock
}

// Confirm mocks the Confirm method
func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

// MockRunner mocks the command runner. Without expectations it behaves like
// a command that printed "<command> output".
type MockRunner struct {
	mock.Mock
	// Commands run while no expectations were set
	Commands []string
}

// Run mocks the Run method
func (m *MockRunner) Run(ctx context.Context, command string) models.CommandResult {
	if len(m.ExpectedCalls) > 0 {
		args := m.Called(ctx, command)
		return args.Get(0).(models.CommandResult)
	}

	m.Commands = append(m.Commands, command)
	return models.CommandResult{
		Command: command,
		Output:  command + " output\n",
		Stdout:  command + " output\n",
	}
}

// MockTool mocks a reasoning tool
type MockTool struct {
	mock.Mock
	ToolName string
}

// Name returns the tool name
func (m *MockTool) Name() string {
	return m.ToolName
}

// Description returns a fixed description
func (m *MockTool) Description() string {
	return "mock tool " + m.ToolName
}

// Parameters returns an empty object schema
func (m *MockTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

// Call mocks the Call method
func (m *MockTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	ret := m.Called(ctx, args)
	return ret.String(0), ret.Error(1)
}
