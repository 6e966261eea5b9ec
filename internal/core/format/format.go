// SPDX-License-Identifier: Apache-2.0

package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a document encoding
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ForPath picks the encoding for a file path. Anything that is not .json is YAML.
func ForPath(filePath string) Format {
	if strings.ToLower(filepath.Ext(filePath)) == ".json" {
		return JSON
	}
	return YAML
}

// ParseData decodes data, trying YAML first, then JSON
func ParseData(data []byte, v interface{}) error {
	yamlErr := yaml.Unmarshal(data, v)
	if yamlErr == nil {
		return nil
	}

	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}

	return fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", yamlErr, jsonErr)
}

// Marshal encodes v in the given format
func Marshal(f Format, v interface{}) ([]byte, error) {
	var data []byte
	var err error

	switch f {
	case JSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	default:
		data, err = yaml.Marshal(v)
	}

	if err != nil {
		return nil, fmt.Errorf("error marshaling %s: %w", f, err)
	}
	return data, nil
}

// WriteFile writes v to filePath using the encoding implied by its extension
func WriteFile(filePath string, v interface{}) error {
	data, err := Marshal(ForPath(filePath), v)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
