// SPDX-License-Identifier: Apache-2.0

// Package session drives a debugging session: one confirmation-gated pass
// over the steps of an issue type
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/kusari-oss/fixit/internal/core/condition"
	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/fixit/gate"
	"github.com/kusari-oss/fixit/internal/fixit/reasoning"
	"github.com/kusari-oss/fixit/internal/fixit/runner"
	"go.uber.org/zap"
)

const (
	continueAfterErrorPrompt = "Continue despite error?"
	continuePrompt           = "Continue to next step?"
	dryRunOutput             = "(not run: dry run)"
)

// Reasoner interprets an executed step. The orchestrator implements it.
type Reasoner interface {
	Run(ctx context.Context, step models.Step, obs models.Observation) (string, error)
	Tasks(step models.Step, obs models.Observation) ([]reasoning.Task, error)
}

// Controller runs debugging sessions against a knowledge base
type Controller struct {
	kb        models.KnowledgeBase
	runner    runner.Runner
	confirmer gate.Confirmer
	reasoner  Reasoner
	evaluator *condition.CELEvaluator
	logger    *zap.Logger
	options   models.ExecutionOptions
	state     State
}

// NewController creates a session controller
func NewController(kb models.KnowledgeBase, r runner.Runner, confirmer gate.Confirmer, reasoner Reasoner, logger *zap.Logger, options models.ExecutionOptions) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	evaluator, err := condition.NewCELEvaluator()
	if err != nil {
		return nil, err
	}

	return &Controller{
		kb:        kb,
		runner:    r,
		confirmer: confirmer,
		reasoner:  reasoner,
		evaluator: evaluator,
		logger:    logger,
		options:   options,
		state:     Idle,
	}, nil
}

// State returns the current session state
func (c *Controller) State() State {
	return c.state
}

// Debug walks the steps of issueType. An unknown issue type is logged and
// ends the session without prompting. Confirmation failures, including a
// cancelled context, abort the session and are returned.
func (c *Controller) Debug(ctx context.Context, issueType string) (Summary, error) {
	summary := Summary{
		SessionID: uuid.NewString(),
		IssueType: issueType,
	}
	logger := c.logger.With(zap.String("session", summary.SessionID))
	c.state = Idle

	steps, ok := c.kb.Steps(issueType)
	if !ok {
		logger.Error("Unknown issue type", zap.String("issue_type", issueType))
		return c.finish(logger, summary, Complete), nil
	}
	summary.Steps = len(steps)

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return c.abort(logger, summary, err)
		}

		c.state = StepPending
		logger.Info("Step",
			zap.Int("step", i+1),
			zap.Int("of", len(steps)),
			zap.String("description", step.Description))

		if c.options.DryRun {
			if err := c.preview(logger, step); err != nil {
				return c.abort(logger, summary, err)
			}
			summary.Previewed++
			continue
		}

		c.state = AwaitingStepPermission
		ok, err := c.confirmer.Confirm(ctx, step.Description)
		if err != nil {
			return c.abort(logger, summary, err)
		}
		if !ok {
			logger.Info("User chose to skip this step")
			summary.Skipped++
			continue
		}

		c.state = Running
		result := c.runner.Run(ctx, step.Command)
		summary.Ran++
		if err := ctx.Err(); err != nil {
			return c.abort(logger, summary, err)
		}

		analysis, err := c.reasoner.Run(ctx, step, c.observe(logger, step, result))
		if err != nil {
			summary.Failed++
			logger.Error("Error during task execution", zap.Error(err))

			ok, err := c.confirmer.Confirm(ctx, continueAfterErrorPrompt)
			if err != nil {
				return c.abort(logger, summary, err)
			}
			if !ok {
				return c.finish(logger, summary, Aborted), nil
			}
		} else {
			logger.Info("Analysis result", zap.String("result", analysis))
		}

		c.state = AwaitingContinuePermission
		ok, err = c.confirmer.Confirm(ctx, continuePrompt)
		if err != nil {
			return c.abort(logger, summary, err)
		}
		if !ok {
			logger.Info("User chose to stop debugging")
			return c.finish(logger, summary, Aborted), nil
		}
	}

	return c.finish(logger, summary, Complete), nil
}

// observe evaluates the step's success condition, if any, against the result
func (c *Controller) observe(logger *zap.Logger, step models.Step, result models.CommandResult) models.Observation {
	obs := models.Observation{Result: result}
	if result.Failed() {
		logger.Warn("Command failed",
			zap.String("command", step.Command),
			zap.Int("exit_code", result.ExitCode),
			zap.String("error", result.Err))
	}

	if step.SuccessWhen == "" {
		return obs
	}

	healthy, err := c.evaluator.Evaluate(step.SuccessWhen, result)
	if err != nil {
		logger.Warn("Success condition could not be evaluated",
			zap.String("condition", step.SuccessWhen),
			zap.Error(err))
		return obs
	}

	logger.Info("Success condition",
		zap.String("condition", step.SuccessWhen),
		zap.Bool("met", healthy))
	obs.Condition = step.SuccessWhen
	obs.Healthy = &healthy
	return obs
}

// preview logs what a step would do without prompting, running, or calling the service
func (c *Controller) preview(logger *zap.Logger, step models.Step) error {
	logger.Info("Would run command", zap.String("command", step.Command))

	tasks, err := c.reasoner.Tasks(step, models.Observation{
		Result: models.CommandResult{Command: step.Command, Output: dryRunOutput},
	})
	if err != nil {
		return err
	}

	for _, task := range tasks {
		logger.Info("Would submit task",
			zap.String("role", task.Role.Name),
			zap.String("description", task.Description),
			zap.String("expected_output", task.ExpectedOutput))
	}
	return nil
}

func (c *Controller) abort(logger *zap.Logger, summary Summary, err error) (Summary, error) {
	return c.finish(logger, summary, Aborted), err
}

func (c *Controller) finish(logger *zap.Logger, summary Summary, state State) Summary {
	c.state = state
	summary.State = state
	logger.Info("Session summary", zap.Object("summary", summary))
	return summary
}
