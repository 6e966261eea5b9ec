// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kusari-oss/fixit/cmd/fixit/cmd/kb"
	"github.com/kusari-oss/fixit/internal/core/config"
	"github.com/kusari-oss/fixit/internal/core/models"
	"github.com/kusari-oss/fixit/internal/fixit/knowledge"
	"github.com/kusari-oss/fixit/internal/logging"
	"github.com/kusari-oss/fixit/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StartupError marks failures that happen before a session can start,
// such as a missing or malformed knowledge base
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return e.Err.Error()
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// app holds the state shared by all subcommands of one invocation
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
}

func (a *app) config() *config.Config {
	return a.cfg
}

func (a *app) log() *zap.Logger {
	return a.logger
}

// loadKnowledgeBase reports a missing or malformed knowledge base as a startup error
func (a *app) loadKnowledgeBase(path string) (models.KnowledgeBase, error) {
	kb, err := knowledge.Load(path)
	if err != nil {
		return nil, &StartupError{Err: err}
	}
	return kb, nil
}

// NewRootCmd creates the fixit command tree
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "fixit",
		Short: "Interactive troubleshooting assistant",
		Long: `Fixit walks through the diagnostic steps a knowledge base lists for an issue
type. Each command runs only after you confirm it; its output is then handed to
a language model acting as executor, analyzer and remediator.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return &StartupError{Err: err}
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return &StartupError{Err: err}
			}
			a.logger = logger
			logger.Debug("Configuration loaded", zap.String("source", cfg.SourceFile))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync(a.logger)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./fixit.yaml or ~/.fixit/config.yaml)")
	flags.StringP("knowledge-base", "k", config.DefaultKnowledgeBase, "knowledge base file (JSON or YAML)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-sink", "console", "log sink (console, file, none)")
	_ = a.v.BindPFlag("knowledge_base", flags.Lookup("knowledge-base"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.sink", flags.Lookup("log-sink"))

	rootCmd.AddCommand(newDebugCmd(a))
	rootCmd.AddCommand(newDoctorCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(kb.NewKBCommand(a.config, a.log, a.loadKnowledgeBase))

	return rootCmd
}

// Execute runs the command tree
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command tree; cancelling ctx interrupts a session
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// Report prints err the way the user should see it and returns the process
// exit code. An interrupted session is not a failure.
func Report(err error, w io.Writer) int {
	var startupErr *StartupError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "\nDebugging session interrupted by user")
		return 0
	case errors.As(err, &startupErr):
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	default:
		fmt.Fprintf(w, "An error occurred: %v\n", err)
		return 1
	}
}
