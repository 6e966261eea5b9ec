// SPDX-License-Identifier: Apache-2.0

// Package knowledge loads and validates the issue-type knowledge base
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/kusari-oss/fixit/internal/core/condition"
	"github.com/kusari-oss/fixit/internal/core/format"
	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/core/schema"
)

//go:embed schema.json
var kbSchema []byte

// ErrInvalid is returned when a knowledge base document does not match the schema
var ErrInvalid = errors.New("invalid knowledge base")

// Schema returns the JSON schema knowledge base documents must satisfy
func Schema() []byte {
	return kbSchema
}

// Load reads a YAML or JSON knowledge base, validates it, and decodes it
func Load(path string) (models.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading knowledge base %s: %w", path, err)
	}

	kb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error loading knowledge base %s: %w", path, err)
	}
	return kb, nil
}

// Parse validates and decodes a knowledge base document
func Parse(data []byte) (models.KnowledgeBase, error) {
	var doc interface{}
	if err := format.ParseData(data, &doc); err != nil {
		return nil, err
	}

	if err := schema.ValidateDocument(kbSchema, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	kb := models.KnowledgeBase{}
	if err := format.ParseData(data, &kb); err != nil {
		return nil, err
	}
	return kb, nil
}

// Validate returns non-fatal problems: steps without remediation options and
// success conditions that do not compile
func Validate(kb models.KnowledgeBase) []string {
	var warnings []string

	evaluator, err := condition.NewCELEvaluator()
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("success conditions not checked: %v", err))
	}

	for _, issueType := range kb.IssueTypes() {
		steps := kb[issueType]
		if len(steps) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s: no steps", issueType))
		}
		for i, step := range steps {
			if len(step.Remediation) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s step %d (%s): no remediation options", issueType, i+1, step.Command))
			}
			if step.SuccessWhen != "" && evaluator != nil {
				if err := evaluator.Check(step.SuccessWhen); err != nil {
					warnings = append(warnings, fmt.Sprintf("%s step %d (%s): %v", issueType, i+1, step.Command, err))
				}
			}
		}
	}
	return warnings
}

// Save writes the knowledge base in the format implied by the path's extension
func Save(path string, kb models.KnowledgeBase) error {
	if err := format.WriteFile(path, kb); err != nil {
		return fmt.Errorf("error saving knowledge base %s: %w", path, err)
	}
	return nil
}

// Commands returns every step command in the knowledge base, once each
func Commands(kb models.KnowledgeBase) []string {
	seen := make(map[string]bool)
	var commands []string
	for _, issueType := range kb.IssueTypes() {
		for _, step := range kb[issueType] {
			if !seen[step.Command] {
				seen[step.Command] = true
				commands = append(commands, step.Command)
			}
		}
	}
	return commands
}
