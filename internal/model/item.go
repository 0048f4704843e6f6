package model

import "time"

// ItemKind identifies the kind of watched item.
type ItemKind string

const (
	KindPullRequest ItemKind = "pull_request"
	KindRelease     ItemKind = "release"
)

// Notifiable is the capability set a watched item must expose to be rendered
// into a notification. Both item kinds implement it, so rendering and
// checkpoint code stays polymorphic without reflective field lookup.
type Notifiable interface {
	// ItemID is the stable, globally unique id within the item's kind.
	ItemID() int64

	// ItemTitle is the human-readable title shown in notifications.
	ItemTitle() string

	// ItemURL is the canonical browser URL of the item.
	ItemURL() string

	// ItemTime is the UTC instant used for watermark ordering.
	ItemTime() time.Time

	// Kind reports which lane the item belongs to.
	Kind() ItemKind
}

// PullRequest is a merged pull request fetched from the source repository.
// Immutable once fetched.
type PullRequest struct {
	// ID is the source's global PR id (distinct from the number).
	ID int64 `json:"id"`

	// Number is the repository-local PR number.
	Number int `json:"number"`

	// Title is the PR title.
	Title string `json:"title"`

	// HTMLURL is the browser URL of the PR.
	HTMLURL string `json:"html_url"`

	// MergedAt is the merge instant, normalized to UTC.
	MergedAt time.Time `json:"merged_at"`

	// Body is the PR description; populated only by the detail fetch.
	Body string `json:"body,omitempty"`
}

func (p PullRequest) ItemID() int64       { return p.ID }
func (p PullRequest) ItemTitle() string   { return p.Title }
func (p PullRequest) ItemURL() string     { return p.HTMLURL }
func (p PullRequest) ItemTime() time.Time { return p.MergedAt.UTC() }
func (p PullRequest) Kind() ItemKind      { return KindPullRequest }

// Release is a published, non-draft release fetched from the source
// repository. Immutable once fetched.
type Release struct {
	// ID is the source's global release id.
	ID int64 `json:"id"`

	// TagName is the git tag of the release.
	TagName string `json:"tag_name"`

	// Name is the release title; falls back to the tag when blank upstream.
	Name string `json:"name"`

	// HTMLURL is the browser URL of the release.
	HTMLURL string `json:"html_url"`

	// PublishedAt is the publish instant, normalized to UTC.
	PublishedAt time.Time `json:"published_at"`

	// Body is the release notes text, possibly empty.
	Body string `json:"body,omitempty"`

	// Prerelease marks upstream prereleases; these are filtered out before
	// the pipeline ever sees them.
	Prerelease bool `json:"prerelease"`
}

func (r Release) ItemID() int64       { return r.ID }
func (r Release) ItemTitle() string   { return r.Name }
func (r Release) ItemURL() string     { return r.HTMLURL }
func (r Release) ItemTime() time.Time { return r.PublishedAt.UTC() }
func (r Release) Kind() ItemKind      { return KindRelease }
