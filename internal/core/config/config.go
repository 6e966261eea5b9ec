// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".fixit"
	DefaultConfigFileName = "config.yaml"
	LocalConfigFileName   = "fixit.yaml"
	DefaultKnowledgeBase  = "knowledge_base.json"
	EnvPrefix             = "FIXIT"

	DefaultBackend = "openai"
	DefaultModel   = "llama3.2"
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultAPIKey  = "not-needed"
)

// Config holds the application configuration
type Config struct {
	KnowledgeBase string       `mapstructure:"knowledge_base" yaml:"knowledge_base"`
	LLM           LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Log           LogConfig    `mapstructure:"log" yaml:"log"`
	Runner        RunnerConfig `mapstructure:"runner" yaml:"runner"`

	// File the configuration was read from, empty when only defaults and env apply
	SourceFile string `mapstructure:"-" yaml:"-"`
}

// LLMConfig configures the external reasoning service
type LLMConfig struct {
	Backend       string  `mapstructure:"backend" yaml:"backend"`
	Model         string  `mapstructure:"model" yaml:"model"`
	BaseURL       string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey        string  `mapstructure:"api_key" yaml:"api_key"`
	Temperature   float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	MaxToolRounds int     `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
}

// LogConfig configures where session log lines go
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Sink       string `mapstructure:"sink" yaml:"sink"` // console, file or none
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// RunnerConfig configures the shell used for step commands
type RunnerConfig struct {
	Shell      string `mapstructure:"shell" yaml:"shell"`
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir"`
}

// NewDefaultConfig creates a default configuration. The reasoning service
// defaults to a local Ollama server through its OpenAI-compatible endpoint.
func NewDefaultConfig() *Config {
	return &Config{
		KnowledgeBase: DefaultKnowledgeBase,
		LLM: LLMConfig{
			Backend:       DefaultBackend,
			Model:         DefaultModel,
			BaseURL:       DefaultBaseURL,
			APIKey:        DefaultAPIKey,
			Temperature:   0.7,
			MaxTokens:     2048,
			MaxToolRounds: 8,
		},
		Log: LogConfig{
			Level:      "info",
			Sink:       "console",
			Format:     "console",
			File:       filepath.Join(DefaultConfigDir, "fixit.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Runner: RunnerConfig{
			Shell: "/bin/sh",
		},
	}
}

// SetDefaults registers every default value with v so that environment
// variables can override keys that never appear in a config file
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("knowledge_base", d.KnowledgeBase)
	v.SetDefault("llm.backend", d.LLM.Backend)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.max_tool_rounds", d.LLM.MaxToolRounds)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.sink", d.Log.Sink)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("runner.shell", d.Runner.Shell)
	v.SetDefault("runner.working_dir", d.Runner.WorkingDir)
}

// Load builds the configuration from defaults, an optional config file and
// FIXIT_* environment variables, in increasing order of precedence. Flags
// bound to v by the caller take precedence over all of them.
//
// When configFile is empty, ./fixit.yaml and then ~/.fixit/config.yaml are
// tried; neither is required. An explicit configFile must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = findConfigFile()
	}

	if configFile != "" {
		v.SetConfigFile(ExpandPathWithTilde(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.SourceFile = v.ConfigFileUsed()
	cfg.KnowledgeBase = ExpandPathWithTilde(cfg.KnowledgeBase)
	cfg.Log.File = ExpandPathWithTilde(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	var errs []error

	switch c.Log.Sink {
	case "console", "file", "none":
	default:
		errs = append(errs, fmt.Errorf("log.sink must be one of console, file, none (got %q)", c.Log.Sink))
	}
	if c.Log.Sink == "file" && c.Log.File == "" {
		errs = append(errs, errors.New("log.file is required when log.sink is file"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.MaxToolRounds < 1 {
		errs = append(errs, fmt.Errorf("llm.max_tool_rounds must be at least 1 (got %d)", c.LLM.MaxToolRounds))
	}
	if c.Runner.Shell == "" {
		errs = append(errs, errors.New("runner.shell is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{LocalConfigFileName}
	if global, err := GlobalConfigFilePath(); err == nil {
		candidates = append(candidates, global)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ExpandPathWithTilde expands ~ to user home directory
// It respects the FIXIT_HOME environment variable for testing purposes.
func ExpandPathWithTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := getHomeDir()
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func getHomeDir() string {
	if fixitHome := os.Getenv("FIXIT_HOME"); fixitHome != "" {
		return fixitHome
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// GlobalConfigFilePath returns the absolute path to the global fixit config file.
func GlobalConfigFilePath() (string, error) {
	home := getHomeDir()
	if home == "" {
		return "", fmt.Errorf("could not get user home directory")
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFileName), nil
}
