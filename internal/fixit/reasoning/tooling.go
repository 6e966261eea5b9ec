// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
)

// callTool dispatches a model tool call. Failures are returned as text for
// the model to read, with isError set, rather than ending the conversation.
func callTool(ctx context.Context, tools []Tool, name string, rawArgs []byte) (output string, isError bool) {
	var tool Tool
	for _, t := range tools {
		if t.Name() == name {
			tool = t
			break
		}
	}
	if tool == nil {
		return fmt.Sprintf("Error: unknown tool %q", name), true
	}

	args := map[string]interface{}{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err), true
		}
	}

	out, err := tool.Call(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return out, false
}

// toolSchema splits a tool's JSON schema into its properties and required list
func toolSchema(t Tool) (properties interface{}, required []string) {
	params := t.Parameters()
	properties = params["properties"]

	switch req := params["required"].(type) {
	case []string:
		required = req
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return properties, required
}
