// SPDX-License-Identifier: Apache-2.0

package reasoning

import (
	"fmt"
	"sort"

	"github.com/kusari-oss/fixit/internal/core/config"
)

// ModelCreator builds a chat backend from the LLM configuration
type ModelCreator func(config.LLMConfig) (Model, error)

// Factory creates chat backends by name
type Factory struct {
	creators map[string]ModelCreator
}

// NewFactory creates an empty backend factory
func NewFactory() *Factory {
	return &Factory{creators: make(map[string]ModelCreator)}
}

// NewDefaultFactory creates a factory with the built-in backends registered
func NewDefaultFactory() *Factory {
	f := NewFactory()
	f.RegisterDefaultBackends()
	return f
}

// Register registers a backend creator under name
func (f *Factory) Register(name string, creator ModelCreator) {
	f.creators[name] = creator
}

// Create builds the backend selected by cfg.Backend
func (f *Factory) Create(cfg config.LLMConfig) (Model, error) {
	creator, ok := f.creators[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown LLM backend: %s", cfg.Backend)
	}
	return creator(cfg)
}

// Backends lists the registered backend names
func (f *Factory) Backends() []string {
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefaultBackends registers the openai, ollama and anthropic backends
func (f *Factory) RegisterDefaultBackends() {
	f.Register("openai", func(cfg config.LLMConfig) (Model, error) {
		return NewOpenAIModel(cfg)
	})

	// Ollama is served through its OpenAI-compatible endpoint
	f.Register("ollama", func(cfg config.LLMConfig) (Model, error) {
		if cfg.BaseURL == "" {
			cfg.BaseURL = config.DefaultBaseURL
		}
		if cfg.APIKey == "" {
			cfg.APIKey = config.DefaultAPIKey
		}
		return NewOpenAIModel(cfg)
	})

	// The Ollama defaults mean nothing to Anthropic; fall back to the SDK's
	// own endpoint and ANTHROPIC_API_KEY
	f.Register("anthropic", func(cfg config.LLMConfig) (Model, error) {
		if cfg.BaseURL == config.DefaultBaseURL {
			cfg.BaseURL = ""
		}
		if cfg.APIKey == config.DefaultAPIKey {
			cfg.APIKey = ""
		}
		return NewAnthropicModel(cfg)
	})
}

// NewService builds the configured backend and wraps it in a crew
func (f *Factory) NewService(cfg config.LLMConfig, opts ...ServiceOption) (Service, error) {
	model, err := f.Create(cfg)
	if err != nil {
		return nil, err
	}

	crewOpts := CrewOptions{
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		MaxToolRounds: cfg.MaxToolRounds,
	}
	crew := NewCrew(model, crewOpts, nil)
	for _, opt := range opts {
		opt(crew)
	}
	return crew, nil
}
