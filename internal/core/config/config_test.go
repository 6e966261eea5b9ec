// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points FIXIT_HOME at an empty directory so a real ~/.fixit/config.yaml
// never leaks into a test
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("FIXIT_HOME", home)
	return home
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, DefaultKnowledgeBase, cfg.KnowledgeBase)
	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "not-needed", cfg.LLM.APIKey)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, "console", cfg.Log.Sink)
	assert.Equal(t, "/bin/sh", cfg.Runner.Shell)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, NewDefaultConfig().LLM, cfg.LLM)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.SourceFile)
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "fixit.yaml")
	content := `
knowledge_base: /etc/fixit/kb.yaml
llm:
  backend: anthropic
  model: claude-sonnet-4-5
  temperature: 0.2
log:
  level: debug
  sink: file
  file: /tmp/fixit-test.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/fixit/kb.yaml", cfg.KnowledgeBase)
	assert.Equal(t, "anthropic", cfg.LLM.Backend)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	// Keys absent from the file keep their defaults
	assert.Equal(t, 8, cfg.LLM.MaxToolRounds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file", cfg.Log.Sink)
	assert.Equal(t, path, cfg.SourceFile)
}

func TestLoadGlobalConfigFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, DefaultConfigDir), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, DefaultConfigDir, DefaultConfigFileName),
		[]byte("llm:\n  model: mistral\n"),
		0644,
	))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.LLM.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FIXIT_LLM_MODEL", "qwen2.5")
	t.Setenv("FIXIT_LOG_SINK", "none")
	t.Setenv("FIXIT_KNOWLEDGE_BASE", "~/kb.json")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	assert.Equal(t, "none", cfg.Log.Sink)
	assert.Equal(t, filepath.Join(os.Getenv("FIXIT_HOME"), "kb.json"), cfg.KnowledgeBase)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("InvalidSink", func(t *testing.T) {
		t.Setenv("FIXIT_LOG_SINK", "syslog")
		_, err := Load(viper.New(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.sink")
	})
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.Model = ""
	cfg.LLM.MaxToolRounds = 0
	cfg.Runner.Shell = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.model is required")
	assert.Contains(t, err.Error(), "llm.max_tool_rounds")
	assert.Contains(t, err.Error(), "runner.shell is required")
}

func TestExpandPathWithTilde(t *testing.T) {
	home := isolate(t)

	assert.Equal(t, home, ExpandPathWithTilde("~"))
	assert.Equal(t, filepath.Join(home, "kb.yaml"), ExpandPathWithTilde("~/kb.yaml"))
	assert.Equal(t, "/abs/kb.yaml", ExpandPathWithTilde("/abs/kb.yaml"))
	assert.Equal(t, "rel/kb.yaml", ExpandPathWithTilde("rel/kb.yaml"))
	assert.Equal(t, "~other/kb.yaml", ExpandPathWithTilde("~other/kb.yaml"))
}
