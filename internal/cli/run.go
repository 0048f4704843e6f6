package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/app"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Watch    bool
	DryRun   bool
	NoDryRun bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the watcher pipeline",
		Long: `Run one pipeline pass: fetch merged pull requests and published
releases, deliver notifications for anything new, and advance the
checkpoint after each delivery. With --watch, repeat on the configured
poll interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "keep running on the poll interval")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "run without side effects")
	cmd.Flags().BoolVar(&opts.NoDryRun, "no-dry-run", false, "disable dry-run mode")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "no-dry-run")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.DryRun {
		cfg.Poll.DryRun = true
	}
	if opts.NoDryRun {
		cfg.Poll.DryRun = false
	}

	log, err := buildLogger(opts.RootOptions, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting repowatch",
		zap.String("repo", cfg.GitHub.Repo),
		zap.String("branch", cfg.GitHub.BaseBranch),
		zap.Bool("dry_run", cfg.Poll.DryRun),
		zap.Int("interval_min", cfg.Poll.IntervalMinutes),
	)

	application := app.New(cfg, log)
	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}()

	ctx := cmd.Context()

	if opts.Watch {
		// Watch returns only when the context is canceled; that is a
		// normal exit, not a failure.
		_ = application.Watch(ctx)
		return nil
	}

	result := application.RunOnce(ctx)
	if !result.Success {
		return fmt.Errorf("pipeline failed after %d deliveries: %s", result.Delivered, result.Message)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (delivered %d)\n", result.Message, result.Delivered)
	return nil
}
