// SPDX-License-Identifier: Apache-2.0

// Package reasoning is the boundary to the external language-model service.
// The controller only sees Service; everything behind it (role framing,
// tool calling, the concrete backend) can be swapped without touching it.
package reasoning

import (
	"context"
	"errors"
)

var (
	// ErrEmptyBatch is returned when a batch has no tasks
	ErrEmptyBatch = errors.New("task batch is empty")
	// ErrEmptyResponse is returned when the backend answers with no choices
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrToolRounds is returned when the model keeps calling tools past the limit
	ErrToolRounds = errors.New("tool call limit reached")
)

// Service accepts an ordered batch of role-tagged tasks and returns a single
// textual result
type Service interface {
	Submit(ctx context.Context, batch Batch) (string, error)
}

// Tool is a capability the service may invoke while working on a task
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the argument object
	Parameters() map[string]interface{}
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// Role frames how the service approaches a task
type Role struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Tools     []Tool
}

// Task is one unit of work for a role
type Task struct {
	Description    string
	ExpectedOutput string
	Role           Role
}

// Batch is an ordered list of tasks; each task sees the outputs of the ones before it
type Batch struct {
	Tasks []Task
}

// Conversation is a single prompt exchange with a model, including any tool calls
type Conversation struct {
	System        string
	Prompt        string
	Tools         []Tool
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
}

// Model is a chat backend that runs one conversation to its final answer
type Model interface {
	Converse(ctx context.Context, conv Conversation) (string, error)
	Name() string
}
