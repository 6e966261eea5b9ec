// SPDX-License-Identifier: Apache-2.0

// Package orchestrator turns one executed step into the executor, analyzer
// and remediator tasks and hands them to the reasoning service
package orchestrator

import (
	"context"
	"fmt"
	gotemplate "text/template"

	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/core/template"
	"github.com/kusari-oss/fixit/internal/fixit/reasoning"
)

const executeText = `Execute command: {{.Step.Command}}
The command has already been run once, with the user's permission, and produced:
{{fence .Result.Output}}
{{- if .Result.Failed}}
Exit code: {{.Result.ExitCode}}
{{- end}}
Report this output as the command execution result. Do not run the command again.`

const analyzeText = `Analyze output for: {{.Step.Description}}
Expected output: {{.Step.ExpectedOutput}}
Possible issues: {{json .Step.Remediation}}
{{- if .Verdict}}
Success condition {{.Condition}} was {{.Verdict}} by the command result.
{{- end}}`

const remediateText = `Based on the analysis, implement the most appropriate fix from these options:
{{json .Step.Remediation}}`

const (
	executeExpected   = "Command execution output"
	analyzeExpected   = "Analysis of system state and identified issues"
	remediateExpected = "Implemented fix and its results"
)

var (
	executeTemplate   = gotemplate.Must(template.Parse("execute", executeText))
	analyzeTemplate   = gotemplate.Must(template.Parse("analyze", analyzeText))
	remediateTemplate = gotemplate.Must(template.Parse("remediate", remediateText))
)

type taskData struct {
	Step      models.Step
	Result    models.CommandResult
	Condition string
	Verdict   string
}

// Orchestrator binds the three roles to one reasoning service
type Orchestrator struct {
	service    reasoning.Service
	executor   reasoning.Role
	analyzer   reasoning.Role
	remediator reasoning.Role
}

// New creates an orchestrator; every role gets the given tools
func New(service reasoning.Service, tools ...reasoning.Tool) *Orchestrator {
	return &Orchestrator{
		service:    service,
		executor:   executorRole(tools),
		analyzer:   analyzerRole(tools),
		remediator: remediatorRole(tools),
	}
}

// Roles returns the roles in task order
func (o *Orchestrator) Roles() []reasoning.Role {
	return []reasoning.Role{o.executor, o.analyzer, o.remediator}
}

// Tasks renders the executor, analyzer and remediator tasks for a step
func (o *Orchestrator) Tasks(step models.Step, obs models.Observation) ([]reasoning.Task, error) {
	data := taskData{
		Step:      step,
		Result:    obs.Result,
		Condition: obs.Condition,
	}
	if obs.Healthy != nil {
		data.Verdict = "not met"
		if *obs.Healthy {
			data.Verdict = "met"
		}
	}

	specs := []struct {
		tmpl     *gotemplate.Template
		expected string
		role     reasoning.Role
	}{
		{executeTemplate, executeExpected, o.executor},
		{analyzeTemplate, analyzeExpected, o.analyzer},
		{remediateTemplate, remediateExpected, o.remediator},
	}

	tasks := make([]reasoning.Task, 0, len(specs))
	for _, spec := range specs {
		description, err := template.Execute(spec.tmpl, data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, reasoning.Task{
			Description:    description,
			ExpectedOutput: spec.expected,
			Role:           spec.role,
		})
	}
	return tasks, nil
}

// Run submits a fresh batch for the step and returns the service's result
func (o *Orchestrator) Run(ctx context.Context, step models.Step, obs models.Observation) (string, error) {
	tasks, err := o.Tasks(step, obs)
	if err != nil {
		return "", err
	}

	result, err := o.service.Submit(ctx, reasoning.Batch{Tasks: tasks})
	if err != nil {
		return "", fmt.Errorf("reasoning service failed: %w", err)
	}
	return result, nil
}
