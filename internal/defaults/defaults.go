// SPDX-License-Identifier: Apache-2.0

package defaults

import (
	"embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kusari-oss/fixit/internal/fixit/knowledge"
	"go.uber.org/zap"
)

//go:embed knowledge/*
var embeddedFiles embed.FS

const embeddedKnowledgeBase = "knowledge/knowledge_base.json"

// DefaultsConfig stores configuration for where to fetch a starter knowledge base
type DefaultsConfig struct {
	// URL of a remote knowledge base document, empty to use the embedded one
	KnowledgeBaseURL string `json:"knowledge_base_url"`

	// Timeout for remote fetch operations in seconds
	Timeout int `json:"timeout"`
}

// NewDefaultsConfig creates a default configuration
func NewDefaultsConfig() DefaultsConfig {
	return DefaultsConfig{
		Timeout: 5,
	}
}

// Manager installs the starter knowledge base
type Manager struct {
	config DefaultsConfig
	logger *zap.Logger
}

// NewManager creates a new defaults manager
func NewManager(config DefaultsConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config: config,
		logger: logger,
	}
}

// KnowledgeBase returns the embedded starter knowledge base document
func KnowledgeBase() ([]byte, error) {
	return embeddedFiles.ReadFile(embeddedKnowledgeBase)
}

// InstallKnowledgeBase writes a starter knowledge base to dstPath. A remote
// document is tried first when configured; it must pass validation or the
// embedded copy is used instead. Existing files are kept unless force is set.
func (m *Manager) InstallKnowledgeBase(dstPath string, force bool) (usedRemote bool, err error) {
	if !force {
		if _, err := os.Stat(dstPath); err == nil {
			return false, fmt.Errorf("%s already exists (use --force to overwrite)", dstPath)
		}
	}

	var data []byte
	if m.config.KnowledgeBaseURL != "" {
		m.logger.Info("Fetching knowledge base", zap.String("url", m.config.KnowledgeBaseURL))
		remote, err := m.fetch(m.config.KnowledgeBaseURL)
		if err == nil {
			_, err = knowledge.Parse(remote)
		}
		if err != nil {
			m.logger.Warn("Failed to fetch remote knowledge base, falling back to embedded defaults", zap.Error(err))
		} else {
			data = remote
			usedRemote = true
		}
	}

	if data == nil {
		data, err = KnowledgeBase()
		if err != nil {
			return false, fmt.Errorf("error reading embedded knowledge base: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return false, fmt.Errorf("error creating directory for %s: %w", dstPath, err)
	}
	if err := os.WriteFile(dstPath, data, 0644); err != nil {
		return false, fmt.Errorf("error writing %s: %w", dstPath, err)
	}

	return usedRemote, nil
}

// fetch downloads a document from url
func (m *Manager) fetch(url string) ([]byte, error) {
	client := &http.Client{
		Timeout: time.Duration(m.config.Timeout) * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file not found, status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
