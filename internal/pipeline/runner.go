// Package pipeline orchestrates one watcher run: load the checkpoint, fetch
// both item batches, select what has not been delivered yet, and deliver
// one item at a time with a checkpoint commit after every successful send.
// A crash or failure mid-batch therefore loses at most the single in-flight
// item, which the next run picks up again.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/checkpoint"
	"github.com/nhle/repowatch/internal/model"
	"github.com/nhle/repowatch/internal/notify"
	"github.com/nhle/repowatch/internal/source"
	"github.com/nhle/repowatch/internal/store"
	"github.com/nhle/repowatch/internal/summarize"
)

// Run outcome messages. "no updates" and "bootstrapped without backfill"
// are both successes; callers distinguish them for observability.
const (
	MessageProcessed    = "processed notifications"
	MessageNoUpdates    = "no updates"
	MessageBootstrapped = "bootstrapped without backfill"
	MessageDryRun       = "dry-run no-op"
)

// RunResult is the structured outcome of a pipeline run. Runs never panic
// past the invocation boundary; every failure path converts to a RunResult.
type RunResult struct {
	// Success reports whether the run completed without a fatal error.
	Success bool

	// Delivered is the number of notifications whose checkpoint commit
	// succeeded. An item that was sent but whose commit failed is not
	// counted; it will be re-examined next run.
	Delivered int

	// Message is the human-readable outcome description.
	Message string
}

// CheckpointStore is the durable watermark record the runner commits to
// after every delivery.
type CheckpointStore interface {
	Load() (checkpoint.Checkpoint, error)
	Save(checkpoint.Checkpoint) error
}

// Runner wires the pipeline's collaborators together. All dependencies are
// supplied at construction; the runner holds no global state.
type Runner struct {
	maxPerRun   int
	dryRun      bool
	src         source.Source
	checkpoints CheckpointStore
	summarizer  summarize.Summarizer
	notifier    notify.Notifier
	history     store.Store
	log         *zap.Logger
}

// Config holds the runner's construction parameters.
type Config struct {
	// MaxNotificationsPerRun caps deliveries per run across both lanes.
	MaxNotificationsPerRun int

	// DryRun short-circuits the run before any external call.
	DryRun bool
}

// New creates a Runner. The history store may be nil; delivery auditing is
// then skipped. Everything else is required.
func New(
	cfg Config,
	src source.Source,
	checkpoints CheckpointStore,
	summarizer summarize.Summarizer,
	notifier notify.Notifier,
	history store.Store,
	log *zap.Logger,
) *Runner {
	return &Runner{
		maxPerRun:   cfg.MaxNotificationsPerRun,
		dryRun:      cfg.DryRun,
		src:         src,
		checkpoints: checkpoints,
		summarizer:  summarizer,
		notifier:    notifier,
		history:     history,
		log:         log,
	}
}

// Run executes one pipeline pass: pull request lane first, then the release
// lane, stopping on the first failure and reporting however many items were
// delivered by then.
func (r *Runner) Run(ctx context.Context) RunResult {
	if r.dryRun {
		r.log.Info("dry-run enabled, skipping source, summarizer, and delivery calls")
		return RunResult{Success: true, Message: MessageDryRun}
	}

	runID := uuid.New().String()

	cp, err := r.checkpoints.Load()
	if err != nil {
		r.log.Error("loading checkpoint failed", zap.Error(err))
		return RunResult{Success: false, Message: err.Error()}
	}

	pulls, err := r.src.FetchMergedPullRequests(ctx)
	if err != nil {
		r.log.Error("fetching pull requests failed", zap.Error(err))
		return RunResult{Success: false, Message: err.Error()}
	}
	releases, err := r.src.FetchReleases(ctx)
	if err != nil {
		r.log.Error("fetching releases failed", zap.Error(err))
		return RunResult{Success: false, Message: err.Error()}
	}

	// First-run bootstrap: adopt the whole batch as delivered so the
	// historical backlog is never announced. An empty batch leaves the lane
	// pending; bootstrapping is retried next run.
	prBootstrapped := false
	if cp.PullRequests.Pending() && len(pulls) > 0 {
		cp.PullRequests = checkpoint.Advance(cp.PullRequests, pulls)
		if err := r.checkpoints.Save(cp); err != nil {
			r.log.Error("persisting bootstrap checkpoint failed", zap.Error(err))
			return RunResult{Success: false, Message: err.Error()}
		}
		prBootstrapped = true
		r.log.Info("bootstrapped pull request lane without backfill",
			zap.Int("batch_size", len(pulls)),
			zap.Time("watermark", cp.PullRequests.Watermark),
		)
	}

	releaseBootstrapped := false
	if cp.Releases.Pending() && len(releases) > 0 {
		cp.Releases = checkpoint.Advance(cp.Releases, releases)
		if err := r.checkpoints.Save(cp); err != nil {
			r.log.Error("persisting bootstrap checkpoint failed", zap.Error(err))
			return RunResult{Success: false, Message: err.Error()}
		}
		releaseBootstrapped = true
		r.log.Info("bootstrapped release lane without backfill",
			zap.Int("batch_size", len(releases)),
			zap.Time("watermark", cp.Releases.Watermark),
		)
	}

	var unseenPulls []model.PullRequest
	if !prBootstrapped {
		unseenPulls = checkpoint.SelectUnseen(pulls, cp.PullRequests)
	}
	var unseenReleases []model.Release
	if !releaseBootstrapped {
		unseenReleases = checkpoint.SelectUnseen(releases, cp.Releases)
	}

	if len(unseenPulls) == 0 && len(unseenReleases) == 0 {
		if prBootstrapped || releaseBootstrapped {
			return RunResult{Success: true, Message: MessageBootstrapped}
		}
		r.log.Info("no unprocessed pull requests or releases")
		return RunResult{Success: true, Message: MessageNoUpdates}
	}

	delivered := 0

	for _, pr := range capSlice(unseenPulls, r.maxPerRun) {
		if err := r.deliverPullRequest(ctx, runID, &cp, pr); err != nil {
			r.log.Error("pull request delivery stopped",
				zap.Int("number", pr.Number),
				zap.Int("delivered", delivered),
				zap.Error(err),
			)
			return RunResult{Success: false, Delivered: delivered, Message: err.Error()}
		}
		delivered++
	}

	for _, release := range capSlice(unseenReleases, r.maxPerRun-delivered) {
		if err := r.deliverRelease(ctx, runID, &cp, release); err != nil {
			r.log.Error("release delivery stopped",
				zap.String("tag", release.TagName),
				zap.Int("delivered", delivered),
				zap.Error(err),
			)
			return RunResult{Success: false, Delivered: delivered, Message: err.Error()}
		}
		delivered++
	}

	r.log.Info("run completed", zap.Int("delivered", delivered))
	return RunResult{Success: true, Delivered: delivered, Message: MessageProcessed}
}

// deliverPullRequest renders, sends, and commits one PR notification. The
// checkpoint is advanced with the list item, not the detail payload, so the
// watermark always reflects what the selector saw.
func (r *Runner) deliverPullRequest(
	ctx context.Context,
	runID string,
	cp *checkpoint.Checkpoint,
	pr model.PullRequest,
) error {
	detail, err := r.src.FetchPullRequestDetail(ctx, pr.Number)
	if err != nil {
		return err
	}

	summary := r.summarizer.SummarizePullRequest(ctx, *detail)
	message, err := RenderPullRequestMessage(*detail, summary)
	if err != nil {
		return err
	}

	if err := r.notifier.Send(ctx, message); err != nil {
		return err
	}

	cp.PullRequests = checkpoint.Advance(cp.PullRequests, []model.PullRequest{pr})
	if err := r.checkpoints.Save(*cp); err != nil {
		return err
	}

	r.recordDelivery(ctx, runID, pr)
	return nil
}

// deliverRelease renders, sends, and commits one release notification.
func (r *Runner) deliverRelease(
	ctx context.Context,
	runID string,
	cp *checkpoint.Checkpoint,
	release model.Release,
) error {
	summary := r.summarizer.SummarizeRelease(ctx, release)
	message, err := RenderReleaseMessage(release, summary)
	if err != nil {
		return err
	}

	if err := r.notifier.Send(ctx, message); err != nil {
		return err
	}

	cp.Releases = checkpoint.Advance(cp.Releases, []model.Release{release})
	if err := r.checkpoints.Save(*cp); err != nil {
		return err
	}

	r.recordDelivery(ctx, runID, release)
	return nil
}

// recordDelivery writes the audit row for a committed delivery. History is
// best-effort; a failed insert is logged and never fails the run.
func (r *Runner) recordDelivery(ctx context.Context, runID string, item model.Notifiable) {
	if r.history == nil {
		return
	}

	err := r.history.RecordDelivery(ctx, model.Delivery{
		RunID:       runID,
		Kind:        item.Kind(),
		ItemID:      item.ItemID(),
		Title:       item.ItemTitle(),
		URL:         item.ItemURL(),
		ItemTime:    item.ItemTime(),
		DeliveredAt: time.Now().UTC(),
	})
	if err != nil {
		r.log.Warn("recording delivery history failed",
			zap.Int64("item_id", item.ItemID()),
			zap.Error(err),
		)
	}
}

func capSlice[T any](items []T, limit int) []T {
	if limit <= 0 {
		return nil
	}
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}
