package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/repowatch/internal/model"
)

// FetchError indicates the item source could not be fetched (unreachable,
// non-2xx status, malformed payload). Fetch failures are run-fatal: no
// deliveries are attempted when the batch itself is unknown.
type FetchError struct {
	Kind    model.ItemKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error (%s): %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err (or any error in its chain) is a FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// AuthError indicates that authentication was rejected by the source. It is
// a fetch failure, surfaced separately so callers can tell the user to fix
// their token rather than retry.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source defines the contract the pipeline needs from the watched
// repository: batch fetches per item kind plus a detail lookup for rendering.
type Source interface {
	// FetchMergedPullRequests returns merged PRs targeting the configured
	// base branch. Results may contain duplicates or arrive out of order;
	// the caller tolerates both.
	FetchMergedPullRequests(ctx context.Context) ([]model.PullRequest, error)

	// FetchPullRequestDetail returns a single PR with its body populated.
	FetchPullRequestDetail(ctx context.Context, number int) (*model.PullRequest, error)

	// FetchReleases returns published, non-draft, non-prerelease releases.
	FetchReleases(ctx context.Context) ([]model.Release, error)

	// FetchReleaseByTag returns a single release by its git tag.
	FetchReleaseByTag(ctx context.Context, tag string) (*model.Release, error)
}
