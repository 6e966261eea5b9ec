// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/kusari-oss/fixit/internal/fixit/knowledge"
	"github.com/kusari-oss/fixit/internal/fixit/reasoning"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const ollamaPort = "11434"

// Diagnostics is the report produced by fixit doctor
type Diagnostics struct {
	ConfigFile    string                  `json:"config_file"`
	KnowledgeBase KnowledgeBaseDiagnostic `json:"knowledge_base"`
	Shell         ShellDiagnostic         `json:"shell"`
	Interactive   bool                    `json:"interactive"`
	LLM           LLMDiagnostic           `json:"llm"`
}

// KnowledgeBaseDiagnostic describes the configured knowledge base
type KnowledgeBaseDiagnostic struct {
	Path       string   `json:"path"`
	Loaded     bool     `json:"loaded"`
	IssueTypes []string `json:"issue_types,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ShellDiagnostic describes the shell used to run step commands
type ShellDiagnostic struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// LLMDiagnostic describes the reasoning backend
type LLMDiagnostic struct {
	Backend string                  `json:"backend"`
	Model   string                  `json:"model"`
	BaseURL string                  `json:"base_url,omitempty"`
	Ollama  *reasoning.OllamaStatus `json:"ollama,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func newDoctorCmd(a *app) *cobra.Command {
	var jsonOutput bool
	var timeout time.Duration

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that fixit is ready to run",
		Long: `Check the pieces a debugging session depends on:
- which configuration file was used
- whether the knowledge base loads and validates
- whether the configured shell exists
- whether standard input is an interactive terminal
- whether a local Ollama server is reachable and has the model pulled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			diagnostics := a.diagnose(ctx, cmd.InOrStdin())
			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(diagnostics)
			}
			printDiagnostics(cmd.OutOrStdout(), diagnostics)
			return nil
		},
	}

	doctorCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	doctorCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout for reaching the model server")

	return doctorCmd
}

func (a *app) diagnose(ctx context.Context, in io.Reader) Diagnostics {
	cfg := a.cfg
	d := Diagnostics{
		ConfigFile: cfg.SourceFile,
		KnowledgeBase: KnowledgeBaseDiagnostic{
			Path: cfg.KnowledgeBase,
		},
		Shell: ShellDiagnostic{
			Path: cfg.Runner.Shell,
		},
		LLM: LLMDiagnostic{
			Backend: cfg.LLM.Backend,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		},
	}

	if kb, err := knowledge.Load(cfg.KnowledgeBase); err != nil {
		d.KnowledgeBase.Error = err.Error()
	} else {
		d.KnowledgeBase.Loaded = true
		d.KnowledgeBase.IssueTypes = kb.IssueTypes()
		d.KnowledgeBase.Warnings = knowledge.Validate(kb)
	}

	if path, err := exec.LookPath(cfg.Runner.Shell); err != nil {
		d.Shell.Error = err.Error()
	} else {
		d.Shell.Path = path
		d.Shell.Available = true
	}

	if f, ok := in.(*os.File); ok {
		d.Interactive = term.IsTerminal(int(f.Fd()))
	}

	if usesOllama(cfg.LLM.Backend, cfg.LLM.BaseURL) {
		status, err := reasoning.ProbeOllama(ctx, cfg.LLM.BaseURL, cfg.LLM.Model, nil)
		d.LLM.Ollama = status
		if err != nil {
			d.LLM.Error = err.Error()
		} else if !status.ModelAvailable {
			d.LLM.Error = fmt.Sprintf("model %s is not pulled (run: ollama pull %s)", cfg.LLM.Model, cfg.LLM.Model)
		}
	}

	return d
}

// usesOllama reports whether the backend points at an Ollama server
func usesOllama(backend, baseURL string) bool {
	if backend == "ollama" {
		return true
	}
	if backend != "openai" {
		return false
	}
	u, err := url.Parse(baseURL)
	return err == nil && u.Port() == ollamaPort
}

func printDiagnostics(w io.Writer, d Diagnostics) {
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	fmt.Fprintln(w, "=== Fixit Diagnostics ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	if d.ConfigFile != "" {
		fmt.Fprintf(w, "  File: %s\n", d.ConfigFile)
	} else {
		fmt.Fprintln(w, "  File: (none, using defaults and environment)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Knowledge Base:")
	fmt.Fprintf(w, "  %s %s\n", mark(d.KnowledgeBase.Loaded), d.KnowledgeBase.Path)
	if d.KnowledgeBase.Error != "" {
		fmt.Fprintf(w, "    Error: %s\n", d.KnowledgeBase.Error)
	}
	for _, issueType := range d.KnowledgeBase.IssueTypes {
		fmt.Fprintf(w, "    - %s\n", issueType)
	}
	for _, warning := range d.KnowledgeBase.Warnings {
		fmt.Fprintf(w, "    Warning: %s\n", warning)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Shell:")
	fmt.Fprintf(w, "  %s %s\n", mark(d.Shell.Available), d.Shell.Path)
	if d.Shell.Error != "" {
		fmt.Fprintf(w, "    Error: %s\n", d.Shell.Error)
	}
	fmt.Fprintf(w, "  %s interactive terminal\n", mark(d.Interactive))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Language Model:")
	fmt.Fprintf(w, "  Backend: %s\n", d.LLM.Backend)
	fmt.Fprintf(w, "  Model: %s\n", d.LLM.Model)
	if d.LLM.BaseURL != "" {
		fmt.Fprintf(w, "  Base URL: %s\n", d.LLM.BaseURL)
	}
	if d.LLM.Ollama != nil {
		fmt.Fprintf(w, "  %s Ollama reachable at %s\n", mark(d.LLM.Ollama.Reachable), d.LLM.Ollama.Host)
		if d.LLM.Ollama.Reachable {
			fmt.Fprintf(w, "  %s model %s pulled\n", mark(d.LLM.Ollama.ModelAvailable), d.LLM.Model)
		}
	} else {
		fmt.Fprintln(w, "  (connectivity not checked for this backend)")
	}
	if d.LLM.Error != "" {
		fmt.Fprintf(w, "    Error: %s\n", d.LLM.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Recommendations:")
	n := 0
	recommend := func(format string, args ...interface{}) {
		n++
		fmt.Fprintf(w, "  %d. %s\n", n, fmt.Sprintf(format, args...))
	}
	if !d.KnowledgeBase.Loaded {
		recommend("Create a starter knowledge base with: fixit kb init %s", d.KnowledgeBase.Path)
	}
	if !d.Shell.Available {
		recommend("Set runner.shell to an installed shell")
	}
	if d.LLM.Ollama != nil && !d.LLM.Ollama.Reachable {
		recommend("Start Ollama with: ollama serve")
	}
	if d.LLM.Ollama != nil && d.LLM.Ollama.Reachable && !d.LLM.Ollama.ModelAvailable {
		recommend("Pull the model with: ollama pull %s", d.LLM.Model)
	}
	if n == 0 {
		fmt.Fprintln(w, "  None, ready to debug")
	}
}
