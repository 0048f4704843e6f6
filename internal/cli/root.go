// Package cli defines the repowatch command tree.
package cli

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/nhle/repowatch/internal/model"
	"github.com/nhle/repowatch/pkg/logger"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the repowatch CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "repowatch",
		Short: "Watch a GitHub repository and announce merged PRs and releases",
		Long: `repowatch polls a GitHub repository for newly merged pull requests and
newly published releases, summarizes each one, and posts exactly one Discord
notification per item. Delivery progress is checkpointed after every send,
so a crash or failure never loses or duplicates a notification.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(
		&opts.ConfigPath, "config", model.DefaultConfigPath(), "path to config file",
	)
	cmd.PersistentFlags().BoolVarP(
		&opts.Verbose, "verbose", "v", false, "verbose (debug) logging",
	)

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewReleaseCommand(opts))
	cmd.AddCommand(NewCredentialCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))

	return cmd
}

// loadConfig reads the configuration for a command invocation.
func loadConfig(opts *RootOptions) (*model.AppConfig, error) {
	return model.LoadConfig(opts.ConfigPath)
}

// buildLogger creates the logger for a command invocation. Verbose forces
// debug-level output regardless of the configured level.
func buildLogger(opts *RootOptions, cfg *model.AppConfig) (*zap.Logger, error) {
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}

	return logger.Setup(&logger.Config{
		Level:      level,
		FormatJSON: cfg.Log.JSON,
		Rotation: logger.Rotation{
			File:       cfg.Log.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	})
}
