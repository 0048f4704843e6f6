package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/repowatch/internal/model"
	"github.com/nhle/repowatch/internal/source"
)

const defaultPerPage = 100

// Repository adapts the raw GitHub client to the source.Source contract for
// one watched repository.
type Repository struct {
	client     *Client
	repo       string
	baseBranch string
}

// NewRepository creates a Source for the given "owner/name" slug. Pull
// request watching is restricted to PRs merged into baseBranch.
func NewRepository(client *Client, repo, baseBranch string) *Repository {
	return &Repository{
		client:     client,
		repo:       repo,
		baseBranch: baseBranch,
	}
}

// FetchMergedPullRequests lists recently updated closed PRs and keeps only
// those that were actually merged into the configured base branch. Results
// are sorted by (merged_at, id) ascending.
func (r *Repository) FetchMergedPullRequests(ctx context.Context) ([]model.PullRequest, error) {
	params := url.Values{}
	params.Set("state", "closed")
	params.Set("base", r.baseBranch)
	params.Set("sort", "updated")
	params.Set("direction", "desc")
	params.Set("per_page", strconv.Itoa(defaultPerPage))
	params.Set("page", "1")

	var payload []pullRequestPayload
	path := fmt.Sprintf("/repos/%s/pulls", r.repo)
	if err := r.client.Get(ctx, path, params, &payload); err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindPullRequest,
			Message: fmt.Sprintf("listing merged pull requests for %s", r.repo),
			Err:     err,
		}
	}

	pulls := make([]model.PullRequest, 0, len(payload))
	for _, item := range payload {
		if item.MergedAt == nil {
			continue
		}
		if item.Base.Ref != r.baseBranch {
			continue
		}

		mergedAt, err := parseTimestamp(*item.MergedAt)
		if err != nil {
			return nil, &source.FetchError{
				Kind:    model.KindPullRequest,
				Message: fmt.Sprintf("pull request #%d has malformed merged_at", item.Number),
				Err:     err,
			}
		}

		pulls = append(pulls, model.PullRequest{
			ID:       item.ID,
			Number:   item.Number,
			Title:    item.Title,
			HTMLURL:  item.HTMLURL,
			MergedAt: mergedAt,
		})
	}

	sort.Slice(pulls, func(i, j int) bool {
		if !pulls[i].MergedAt.Equal(pulls[j].MergedAt) {
			return pulls[i].MergedAt.Before(pulls[j].MergedAt)
		}
		return pulls[i].ID < pulls[j].ID
	})
	return pulls, nil
}

// FetchPullRequestDetail returns a single PR, including its body, for
// notification rendering.
func (r *Repository) FetchPullRequestDetail(ctx context.Context, number int) (*model.PullRequest, error) {
	if number <= 0 {
		return nil, fmt.Errorf("pull request number must be greater than 0, got %d", number)
	}

	var payload pullRequestPayload
	path := fmt.Sprintf("/repos/%s/pulls/%d", r.repo, number)
	if err := r.client.Get(ctx, path, nil, &payload); err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindPullRequest,
			Message: fmt.Sprintf("fetching pull request #%d", number),
			Err:     err,
		}
	}

	if payload.MergedAt == nil {
		return nil, &source.FetchError{
			Kind:    model.KindPullRequest,
			Message: fmt.Sprintf("pull request #%d detail is missing merged_at", number),
		}
	}
	mergedAt, err := parseTimestamp(*payload.MergedAt)
	if err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindPullRequest,
			Message: fmt.Sprintf("pull request #%d has malformed merged_at", number),
			Err:     err,
		}
	}

	pr := &model.PullRequest{
		ID:       payload.ID,
		Number:   payload.Number,
		Title:    payload.Title,
		HTMLURL:  payload.HTMLURL,
		MergedAt: mergedAt,
	}
	if payload.Body != nil {
		pr.Body = strings.TrimSpace(*payload.Body)
	}
	return pr, nil
}

// FetchReleases lists published releases, excluding drafts, prereleases,
// and alpha-tagged builds. Results are sorted by (published_at, id)
// ascending.
func (r *Repository) FetchReleases(ctx context.Context) ([]model.Release, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(defaultPerPage))
	params.Set("page", "1")

	var payload []releasePayload
	path := fmt.Sprintf("/repos/%s/releases", r.repo)
	if err := r.client.Get(ctx, path, params, &payload); err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindRelease,
			Message: fmt.Sprintf("listing releases for %s", r.repo),
			Err:     err,
		}
	}

	releases := make([]model.Release, 0, len(payload))
	for _, item := range payload {
		release, ok, err := r.normalizeRelease(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		releases = append(releases, release)
	}

	sort.Slice(releases, func(i, j int) bool {
		if !releases[i].PublishedAt.Equal(releases[j].PublishedAt) {
			return releases[i].PublishedAt.Before(releases[j].PublishedAt)
		}
		return releases[i].ID < releases[j].ID
	})
	return releases, nil
}

// FetchReleaseByTag returns a single release by git tag. Unlike the list
// fetch, it does not filter prereleases: the caller asked for this exact
// tag.
func (r *Repository) FetchReleaseByTag(ctx context.Context, tag string) (*model.Release, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("release tag must not be empty")
	}

	var payload releasePayload
	path := fmt.Sprintf("/repos/%s/releases/tags/%s", r.repo, url.PathEscape(tag))
	if err := r.client.Get(ctx, path, nil, &payload); err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindRelease,
			Message: fmt.Sprintf("fetching release %s", tag),
			Err:     err,
		}
	}

	if payload.PublishedAt == nil || payload.TagName == nil || payload.HTMLURL == nil {
		return nil, &source.FetchError{
			Kind:    model.KindRelease,
			Message: fmt.Sprintf("release %s is missing required fields", tag),
		}
	}
	publishedAt, err := parseTimestamp(*payload.PublishedAt)
	if err != nil {
		return nil, &source.FetchError{
			Kind:    model.KindRelease,
			Message: fmt.Sprintf("release %s has malformed published_at", tag),
			Err:     err,
		}
	}

	name := optionalText(payload.Name)
	if name == "" {
		name = *payload.TagName
	}

	release := &model.Release{
		ID:          payload.ID,
		TagName:     *payload.TagName,
		Name:        name,
		HTMLURL:     *payload.HTMLURL,
		PublishedAt: publishedAt,
		Body:        optionalText(payload.Body),
		Prerelease:  payload.Prerelease,
	}
	return release, nil
}

// normalizeRelease maps one wire payload to the model, reporting ok=false
// for releases the watcher ignores.
func (r *Repository) normalizeRelease(item releasePayload) (model.Release, bool, error) {
	if item.Draft || item.PublishedAt == nil {
		return model.Release{}, false, nil
	}

	tag := optionalText(item.TagName)
	if tag == "" {
		return model.Release{}, false, nil
	}

	name := optionalText(item.Name)
	if name == "" {
		name = tag
	}

	if shouldIgnoreRelease(tag, name, item.Prerelease) {
		return model.Release{}, false, nil
	}

	htmlURL := optionalText(item.HTMLURL)
	if htmlURL == "" {
		return model.Release{}, false, nil
	}

	publishedAt, err := parseTimestamp(*item.PublishedAt)
	if err != nil {
		return model.Release{}, false, &source.FetchError{
			Kind:    model.KindRelease,
			Message: fmt.Sprintf("release %s has malformed published_at", tag),
			Err:     err,
		}
	}

	return model.Release{
		ID:          item.ID,
		TagName:     tag,
		Name:        name,
		HTMLURL:     htmlURL,
		PublishedAt: publishedAt,
		Body:        optionalText(item.Body),
		Prerelease:  item.Prerelease,
	}, true, nil
}

// shouldIgnoreRelease filters prereleases and alpha builds, which the
// destination channel does not want to hear about.
func shouldIgnoreRelease(tag, name string, prerelease bool) bool {
	if prerelease {
		return true
	}
	text := strings.ToLower(tag + " " + name)
	return strings.Contains(text, "alpha") || strings.Contains(text, "α")
}

func optionalText(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// parseTimestamp parses a GitHub API timestamp, normalizing to UTC.
func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}
