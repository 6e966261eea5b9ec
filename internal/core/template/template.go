// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"json": toJSON,
	"trim": strings.TrimSpace,
	"fence": fence,
}

// Parse compiles a named template with the prompt helper functions.
// Missing map keys are errors rather than "<no value>".
func Parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing template %s: %w", name, err)
	}
	return tmpl, nil
}

// Execute renders a compiled template
func Execute(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// toJSON renders v as two-space indented JSON; map keys come out sorted
func toJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// fence wraps text in a markdown code block, trimming trailing newlines
func fence(text string) string {
	return "```\n" + strings.TrimRight(text, "\n") + "\n```"
}
