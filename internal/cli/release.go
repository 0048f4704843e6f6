package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/app"
	"github.com/nhle/repowatch/internal/credential"
	"github.com/nhle/repowatch/internal/pipeline"
	"github.com/nhle/repowatch/internal/source"
)

// ReleaseOptions holds flags for the release command.
type ReleaseOptions struct {
	*RootOptions
	Tag  string
	Send bool
}

// NewReleaseCommand creates the release command, a one-shot mode that
// summarizes a single release by tag without touching the checkpoint.
func NewReleaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReleaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Summarize a single release by tag",
		Long: `Fetch one release by its git tag, summarize it, and print the rendered
notification. With --send the message is also posted to Discord. The
checkpoint is not consulted or advanced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tag, "tag", "", "release tag to summarize")
	cmd.Flags().BoolVar(&opts.Send, "send", false, "also post the summary to Discord")
	cmd.MarkFlagRequired("tag")

	return cmd
}

func runRelease(cmd *cobra.Command, opts *ReleaseOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	log, err := buildLogger(opts.RootOptions, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	application := app.New(cfg, log)
	defer application.Shutdown()

	ctx := cmd.Context()

	release, err := application.Source.FetchReleaseByTag(ctx, opts.Tag)
	if err != nil {
		if source.IsAuthError(err) {
			return fmt.Errorf("%w (store a valid token with 'repowatch credential set %s')",
				err, credential.KeyGitHubToken)
		}
		return err
	}

	summary := application.Summarizer.SummarizeRelease(ctx, *release)
	message, err := pipeline.RenderReleaseMessage(*release, summary)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), message)

	if !opts.Send {
		return nil
	}
	if cfg.Poll.DryRun {
		log.Info("dry-run enabled, skipping Discord send", zap.String("tag", opts.Tag))
		return nil
	}
	if !application.WebhookConfigured() {
		return fmt.Errorf("discord webhook URL is required with --send")
	}

	if err := application.Notifier().Send(ctx, message); err != nil {
		return err
	}
	log.Info("release summary sent to Discord", zap.String("tag", opts.Tag))
	return nil
}
