// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/fixit/gate"
	"github.com/kusari-oss/fixit/internal/fixit/knowledge"
	"github.com/kusari-oss/fixit/internal/fixit/orchestrator"
	"github.com/kusari-oss/fixit/internal/fixit/reasoning"
	"github.com/kusari-oss/fixit/internal/fixit/runner"
	"github.com/kusari-oss/fixit/internal/fixit/session"
	"github.com/kusari-oss/fixit/internal/fixit/tools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newDebugCmd(a *app) *cobra.Command {
	var dryRun bool

	debugCmd := &cobra.Command{
		Use:   "debug <issue-type>",
		Short: "Walk through the diagnostic steps for an issue type",
		Long: `Walk through the diagnostic steps the knowledge base lists for an issue type.

Every step asks for confirmation before its command runs. The command output is
streamed live, then analyzed by the configured language model, which may
propose or run a fix. Commands the model asks for that are not in the
knowledge base need a separate confirmation.`,
		Example: `  fixit debug disk_full
  fixit debug high_cpu_usage -k ./knowledge_base.yaml --model llama3.1
  fixit debug disk_full --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDebug(cmd, args[0], dryRun)
		},
	}

	flags := debugCmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "show the commands and tasks of each step without running anything")
	flags.String("backend", "", "LLM backend (openai, ollama, anthropic)")
	flags.String("model", "", "model name")
	flags.String("base-url", "", "base URL of the model API")
	_ = a.v.BindPFlag("llm.backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("llm.model", flags.Lookup("model"))
	_ = a.v.BindPFlag("llm.base_url", flags.Lookup("base-url"))

	return debugCmd
}

func (a *app) runDebug(cmd *cobra.Command, issueType string, dryRun bool) error {
	cfg := a.cfg

	kb, err := a.loadKnowledgeBase(cfg.KnowledgeBase)
	if err != nil {
		return err
	}
	for _, warning := range knowledge.Validate(kb) {
		a.logger.Warn("Knowledge base warning", zap.String("warning", warning))
	}

	var service reasoning.Service
	if !dryRun {
		service, err = reasoning.NewDefaultFactory().NewService(cfg.LLM, reasoning.WithLogger(a.logger))
		if err != nil {
			return &StartupError{Err: err}
		}
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !dryRun && !term.IsTerminal(int(f.Fd())) {
		a.logger.Warn("Standard input is not a terminal, reading answers line by line")
	}

	shell := runner.NewShellRunner().
		WithShell(cfg.Runner.Shell).
		WithWorkingDir(cfg.Runner.WorkingDir).
		WithOutput(cmd.OutOrStdout())
	confirmer := gate.New(in, cmd.OutOrStdout())
	terminal := tools.NewTerminalTool(shell, confirmer, knowledge.Commands(kb), a.logger)

	ctrl, err := session.NewController(
		kb,
		shell,
		confirmer,
		orchestrator.New(service, terminal),
		a.logger,
		models.ExecutionOptions{DryRun: dryRun},
	)
	if err != nil {
		return err
	}

	a.logger.Debug("Starting session",
		zap.String("issue_type", issueType),
		zap.String("backend", cfg.LLM.Backend),
		zap.String("model", cfg.LLM.Model))

	_, err = ctrl.Debug(cmd.Context(), issueType)
	return err
}
