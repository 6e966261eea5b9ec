// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaStatus reports what a local Ollama server offers
type OllamaStatus struct {
	Host           string   `json:"host"`
	Reachable      bool     `json:"reachable"`
	Models         []string `json:"models,omitempty"`
	ModelAvailable bool     `json:"model_available"`
}

// OllamaHost strips the OpenAI-compatible /v1 suffix from a base URL
func OllamaHost(baseURL string) string {
	host := strings.TrimSuffix(baseURL, "/")
	return strings.TrimSuffix(host, "/v1")
}

// ProbeOllama checks that the Ollama server behind baseURL answers and
// whether model has been pulled. A bare model name matches its ":latest" tag.
func ProbeOllama(ctx context.Context, baseURL, model string, httpClient *http.Client) (*OllamaStatus, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	status := &OllamaStatus{Host: OllamaHost(baseURL)}
	parsed, err := url.Parse(status.Host)
	if err != nil {
		return status, fmt.Errorf("invalid Ollama URL %s: %w", baseURL, err)
	}

	client := api.NewClient(parsed, httpClient)
	if err := client.Heartbeat(ctx); err != nil {
		return status, fmt.Errorf("ollama server not reachable at %s: %w", status.Host, err)
	}
	status.Reachable = true

	list, err := client.List(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to list Ollama models: %w", err)
	}

	for _, m := range list.Models {
		status.Models = append(status.Models, m.Name)
		if modelMatches(m.Name, model) {
			status.ModelAvailable = true
		}
	}
	return status, nil
}

func modelMatches(installed, wanted string) bool {
	if installed == wanted {
		return true
	}
	return !strings.Contains(wanted, ":") && installed == wanted+":latest"
}
