// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"fmt"
	"strings"
	gotemplate "text/template"

	"github.com/kusari-oss/fixit/internal/core/template"
	"go.uber.org/zap"
)

const systemText = `You are {{.Name}}. {{.Role}}
Your personal goal is: {{.Goal}}
{{.Backstory}}`

const promptText = `Current Task: {{.Task.Description}}

This is the expected criteria for your final answer: {{.Task.ExpectedOutput}}
You MUST return the actual complete content as the final answer, not a summary.
{{- if .Context}}

This is the context you're working with:
{{range .Context}}
{{.}}
{{end}}
{{- end}}`

var (
	systemTemplate = gotemplate.Must(template.Parse("system", systemText))
	promptTemplate = gotemplate.Must(template.Parse("prompt", promptText))
)

// CrewOptions tune every conversation a crew starts
type CrewOptions struct {
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
}

// Crew runs a batch sequentially on one model, feeding each task the
// outputs of the tasks before it
type Crew struct {
	model   Model
	options CrewOptions
	logger  *zap.Logger
}

// ServiceOption customizes a crew built by the factory
type ServiceOption func(*Crew)

// WithLogger sets the logger used for task progress
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(c *Crew) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCrew creates a crew backed by model
func NewCrew(model Model, options CrewOptions, logger *zap.Logger) *Crew {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crew{model: model, options: options, logger: logger}
}

// Submit runs the batch and returns the last task's output
func (c *Crew) Submit(ctx context.Context, batch Batch) (string, error) {
	if len(batch.Tasks) == 0 {
		return "", ErrEmptyBatch
	}

	var outputs []string
	for i, task := range batch.Tasks {
		conv, err := c.conversation(task, outputs)
		if err != nil {
			return "", err
		}

		c.logger.Debug("Working on task",
			zap.Int("task", i+1),
			zap.String("role", task.Role.Name),
			zap.String("model", c.model.Name()))

		out, err := c.model.Converse(ctx, conv)
		if err != nil {
			return "", fmt.Errorf("task %d (%s) failed: %w", i+1, task.Role.Name, err)
		}
		outputs = append(outputs, strings.TrimSpace(out))
	}

	return outputs[len(outputs)-1], nil
}

func (c *Crew) conversation(task Task, previous []string) (Conversation, error) {
	system, err := template.Execute(systemTemplate, task.Role)
	if err != nil {
		return Conversation{}, err
	}

	prompt, err := template.Execute(promptTemplate, struct {
		Task    Task
		Context []string
	}{task, previous})
	if err != nil {
		return Conversation{}, err
	}

	return Conversation{
		System:        system,
		Prompt:        prompt,
		Tools:         task.Role.Tools,
		Temperature:   c.options.Temperature,
		MaxTokens:     c.options.MaxTokens,
		MaxToolRounds: c.options.MaxToolRounds,
	}, nil
}
