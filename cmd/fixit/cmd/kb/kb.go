// SPDX-License-Identifier: Apache-2.0

package kb

import (
	"fmt"
	"text/tabwriter"

	"github.com/kusari-oss/fixit/internal/core/config"
	"github.com/kusari-oss/fixit/internal/core/format"
	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/defaults"
	"github.com/kusari-oss/fixit/internal/fixit/knowledge"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Loader reads a knowledge base file
type Loader func(path string) (models.KnowledgeBase, error)

// NewKBCommand creates the kb command. cfg and logger are called once the
// root command has loaded the configuration.
func NewKBCommand(cfg func() *config.Config, logger func() *zap.Logger, load Loader) *cobra.Command {
	kbCmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and manage the knowledge base",
		Long:  `Inspect, validate, convert and initialize the knowledge base of issue types and diagnostic steps.`,
	}

	kbCmd.AddCommand(newListCommand(cfg, load))
	kbCmd.AddCommand(newShowCommand(cfg, load))
	kbCmd.AddCommand(newValidateCommand(cfg, load))
	kbCmd.AddCommand(newExportCommand(cfg, load))
	kbCmd.AddCommand(newInitCommand(cfg, logger))
	kbCmd.AddCommand(newSchemaCommand())

	return kbCmd
}

// pathArg returns the knowledge base named on the command line or the configured one
func pathArg(cfg func() *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg().KnowledgeBase
}

func newListCommand(cfg func() *config.Config, load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the issue types in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := load(cfg().KnowledgeBase)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ISSUE TYPE\tSTEPS")
			for _, issueType := range kb.IssueTypes() {
				fmt.Fprintf(w, "%s\t%d\n", issueType, len(kb[issueType]))
			}
			return w.Flush()
		},
	}
}

func newShowCommand(cfg func() *config.Config, load Loader) *cobra.Command {
	var outputFormat string

	showCmd := &cobra.Command{
		Use:   "show <issue-type>",
		Short: "Show the steps of an issue type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := load(cfg().KnowledgeBase)
			if err != nil {
				return err
			}

			steps, ok := kb.Steps(args[0])
			if !ok {
				return fmt.Errorf("unknown issue type: %s", args[0])
			}

			data, err := format.Marshal(format.Format(outputFormat), models.KnowledgeBase{args[0]: steps})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	showCmd.Flags().StringVarP(&outputFormat, "output", "o", string(format.YAML), "output format (yaml or json)")
	return showCmd
}

func newValidateCommand(cfg func() *config.Config, load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a knowledge base file",
		Long: `Validate a knowledge base file against the knowledge base schema and report
steps without remediation options or with success conditions that do not compile.
Defaults to the configured knowledge base.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathArg(cfg, args)
			kb, err := load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			steps := 0
			for _, issueType := range kb.IssueTypes() {
				steps += len(kb[issueType])
			}
			fmt.Fprintf(out, "✓ %s: %d issue types, %d steps\n", path, len(kb), steps)
			for _, warning := range knowledge.Validate(kb) {
				fmt.Fprintf(out, "  Warning: %s\n", warning)
			}
			return nil
		},
	}
}

func newExportCommand(cfg func() *config.Config, load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "export <destination>",
		Short: "Write the knowledge base to a file",
		Long: `Write the configured knowledge base to a file. The format follows the
destination extension: .json writes JSON, anything else YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := load(cfg().KnowledgeBase)
			if err != nil {
				return err
			}
			if err := knowledge.Save(args[0], kb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base written to %s\n", args[0])
			return nil
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema knowledge base files must satisfy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(knowledge.Schema())
			return err
		},
	}
}

func newInitCommand(cfg func() *config.Config, logger func() *zap.Logger) *cobra.Command {
	var force bool
	var remoteURL string

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create a starter knowledge base",
		Long: `Create a starter knowledge base with common Linux issue types. With
--remote-url the document is downloaded instead, falling back to the built-in
one if it cannot be fetched or does not validate. Defaults to the configured
knowledge base path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPathWithTilde(pathArg(cfg, args))

			defaultsConfig := defaults.NewDefaultsConfig()
			defaultsConfig.KnowledgeBaseURL = remoteURL
			manager := defaults.NewManager(defaultsConfig, logger())

			usedRemote, err := manager.InstallKnowledgeBase(path, force)
			if err != nil {
				return err
			}

			source := "built-in defaults"
			if usedRemote {
				source = remoteURL
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Knowledge base created at %s from %s\n", path, source)
			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	initCmd.Flags().StringVarP(&remoteURL, "remote-url", "r", "", "URL of a knowledge base document to download")
	return initCmd
}
