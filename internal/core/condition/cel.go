// SPDX-License-Identifier: Apache-2.0

package condition

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/kusari-oss/fixit/internal/core/models"
)

// CELEvaluator evaluates step success conditions against a command result.
// Expressions see exit_code (int) and stdout, stderr, output (string).
type CELEvaluator struct {
	env *cel.Env
}

// NewCELEvaluator creates a new CEL evaluator
func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("exit_code", cel.IntType),
		cel.Variable("stdout", cel.StringType),
		cel.Variable("stderr", cel.StringType),
		cel.Variable("output", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	return &CELEvaluator{env: env}, nil
}

// Check parses and type-checks an expression without evaluating it
func (e *CELEvaluator) Check(expression string) error {
	_, err := e.compile(expression)
	return err
}

// Evaluate reports whether the expression holds for the command result
func (e *CELEvaluator) Evaluate(expression string, result models.CommandResult) (bool, error) {
	program, err := e.compile(expression)
	if err != nil {
		return false, err
	}

	out, _, err := program.Eval(map[string]interface{}{
		"exit_code": int64(result.ExitCode),
		"stdout":    result.Stdout,
		"stderr":    result.Stderr,
		"output":    result.Output,
	})
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	if out.Type() != types.BoolType {
		return false, fmt.Errorf("expression did not evaluate to a boolean")
	}

	return out.Value().(bool), nil
}

func (e *CELEvaluator) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error parsing expression: %w", issues.Err())
	}

	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}

	program, err := e.env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("error compiling expression: %w", err)
	}
	return program, nil
}
