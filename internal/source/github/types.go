package github

// pullRequestPayload is the subset of the GitHub pull request resource the
// watcher consumes. MergedAt is null for closed-but-unmerged PRs.
type pullRequestPayload struct {
	ID       int64   `json:"id"`
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	HTMLURL  string  `json:"html_url"`
	MergedAt *string `json:"merged_at"`
	Body     *string `json:"body"`
	Base     baseRef `json:"base"`
}

// baseRef identifies the branch a pull request targets.
type baseRef struct {
	Ref string `json:"ref"`
}

// releasePayload is the subset of the GitHub release resource the watcher
// consumes. PublishedAt is null for drafts.
type releasePayload struct {
	ID          int64   `json:"id"`
	TagName     *string `json:"tag_name"`
	Name        *string `json:"name"`
	HTMLURL     *string `json:"html_url"`
	PublishedAt *string `json:"published_at"`
	Body        *string `json:"body"`
	Draft       bool    `json:"draft"`
	Prerelease  bool    `json:"prerelease"`
}
