// Package app wires configuration, credentials, and collaborators into a
// runnable watcher and owns the watch-mode polling loop.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/checkpoint"
	"github.com/nhle/repowatch/internal/credential"
	"github.com/nhle/repowatch/internal/model"
	"github.com/nhle/repowatch/internal/notify"
	"github.com/nhle/repowatch/internal/pipeline"
	"github.com/nhle/repowatch/internal/source/github"
	"github.com/nhle/repowatch/internal/store"
	"github.com/nhle/repowatch/internal/summarize"
)

// App holds the assembled watcher.
type App struct {
	Cfg        *model.AppConfig
	Log        *zap.Logger
	Source     *github.Repository
	Summarizer *summarize.Client
	History    store.Store

	webhookURL string
	runner     *pipeline.Runner
}

// New assembles the application from config. Credentials resolve from the
// environment first, then the config file, then the OS keyring. A broken
// history database is tolerated: deliveries still happen, auditing is
// skipped.
func New(cfg *model.AppConfig, log *zap.Logger) *App {
	githubToken := credential.Resolve(credential.KeyGitHubToken, cfg.GitHub.Token)
	webhookURL := credential.Resolve(credential.KeyDiscordWebhookURL, cfg.Discord.WebhookURL)
	anthropicKey := credential.Resolve(credential.KeyAnthropicAPIKey, "")

	src := github.NewRepository(
		github.NewClient(cfg.GitHub.APIURL, githubToken),
		cfg.GitHub.Repo,
		cfg.GitHub.BaseBranch,
	)
	summarizer := summarize.New(
		anthropicKey,
		cfg.Summary.Model,
		cfg.Summary.MaxTokens,
		log,
	)
	checkpoints := checkpoint.NewStore(cfg.CheckpointPath())

	var history store.Store
	sqlStore, err := store.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		log.Warn("delivery history unavailable, continuing without auditing",
			zap.String("path", cfg.HistoryPath()),
			zap.Error(err),
		)
	} else {
		history = sqlStore
	}

	runner := pipeline.New(
		pipeline.Config{
			MaxNotificationsPerRun: cfg.Poll.MaxNotificationsPerRun,
			DryRun:                 cfg.Poll.DryRun,
		},
		src,
		checkpoints,
		summarizer,
		notify.NewDiscordClient(webhookURL),
		history,
		log,
	)

	return &App{
		Cfg:        cfg,
		Log:        log,
		Source:     src,
		Summarizer: summarizer,
		History:    history,
		webhookURL: webhookURL,
		runner:     runner,
	}
}

// WebhookConfigured reports whether a delivery destination is known.
func (a *App) WebhookConfigured() bool {
	return a.webhookURL != ""
}

// Notifier returns a delivery client for the configured webhook.
func (a *App) Notifier() notify.Notifier {
	return notify.NewDiscordClient(a.webhookURL)
}

// RunOnce executes one pipeline pass.
func (a *App) RunOnce(ctx context.Context) pipeline.RunResult {
	if !a.Cfg.Poll.DryRun && !a.WebhookConfigured() {
		a.Log.Error("discord webhook URL is not configured")
		return pipeline.RunResult{Success: false, Message: "missing discord webhook"}
	}

	return a.runner.Run(ctx)
}

// Watch runs the pipeline immediately and then on every poll interval until
// the context is canceled. A failed run is logged and does not stop the
// loop; transient upstream failures heal on the next tick.
func (a *App) Watch(ctx context.Context) error {
	interval := a.Cfg.PollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.Log.Info("watch mode started",
		zap.String("repo", a.Cfg.GitHub.Repo),
		zap.Duration("interval", interval),
	)

	a.logResult(a.RunOnce(ctx))

	for {
		select {
		case <-ctx.Done():
			a.Log.Info("watch mode stopping")
			return ctx.Err()
		case <-ticker.C:
			a.logResult(a.RunOnce(ctx))
		}
	}
}

// Shutdown releases held resources.
func (a *App) Shutdown() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

func (a *App) logResult(result pipeline.RunResult) {
	if !result.Success {
		a.Log.Error("run failed",
			zap.Int("delivered", result.Delivered),
			zap.String("message", result.Message),
		)
		return
	}
	a.Log.Info("run finished",
		zap.Int("delivered", result.Delivered),
		zap.String("message", result.Message),
	)
}
