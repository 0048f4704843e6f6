package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/repowatch/internal/model"
	"github.com/nhle/repowatch/internal/summarize"
)

// RenderPullRequestMessage builds the notification text for one merged PR.
// Required fields must be present; a blank title or URL means the item
// cannot be announced and the delivery fails rather than sending a broken
// message.
func RenderPullRequestMessage(pr model.PullRequest, summary summarize.Summary) (string, error) {
	if pr.Number <= 0 {
		return "", fmt.Errorf("pull request must have a positive number")
	}
	if err := requireFields(pr); err != nil {
		return "", fmt.Errorf("pull request #%d: %w", pr.Number, err)
	}

	lines := []string{
		"### Pull request merged",
		fmt.Sprintf("- PR: #%d %s", pr.Number, pr.Title),
		fmt.Sprintf("- URL: %s", pr.HTMLURL),
		fmt.Sprintf("- Merged at: %s", pr.MergedAt.UTC().Format(time.RFC3339)),
		"",
		"Overview",
		summary.Overview,
		"",
		"Feature details",
		summary.FeatureDetails,
		"",
		"What this enables",
		summary.EnabledOutcomes,
	}
	return strings.Join(lines, "\n"), nil
}

// RenderReleaseMessage builds the notification text for one published
// release.
func RenderReleaseMessage(release model.Release, summary summarize.Summary) (string, error) {
	if strings.TrimSpace(release.TagName) == "" {
		return "", fmt.Errorf("release must have a tag name")
	}
	if err := requireFields(release); err != nil {
		return "", fmt.Errorf("release %s: %w", release.TagName, err)
	}

	lines := []string{
		"### Release published",
		fmt.Sprintf("- Release: %s (%s)", release.TagName, release.Name),
		fmt.Sprintf("- URL: %s", release.HTMLURL),
		fmt.Sprintf("- Published at: %s", release.PublishedAt.UTC().Format(time.RFC3339)),
		"",
		"Overview",
		summary.Overview,
		"",
		"Feature details",
		summary.FeatureDetails,
		"",
		"What this enables",
		summary.EnabledOutcomes,
	}
	return strings.Join(lines, "\n"), nil
}

// requireFields validates the capability set every notifiable item must
// provide before it can be rendered.
func requireFields(item model.Notifiable) error {
	if strings.TrimSpace(item.ItemTitle()) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(item.ItemURL()) == "" {
		return fmt.Errorf("url must not be empty")
	}
	if item.ItemTime().IsZero() {
		return fmt.Errorf("timestamp must not be zero")
	}
	return nil
}
