package driven

import (
	"context"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
)

// GitHubClient defines the driven port for the external paginated data
// provider. Implementations classify their own failures into the
// model.FetchError taxonomy before returning them.
type GitHubClient interface {
	// SearchPullRequests fetches one page of open pull requests
	// involving the authenticated user. cursor positions the request:
	// empty string starts the stream, otherwise pass the EndCursor of
	// the previous page. Record order within and across pages is the
	// provider's and must be forwarded verbatim.
	SearchPullRequests(ctx context.Context, cursor string) (model.PRPage, error)

	// Viewer returns the login of the token's authenticated user. Used
	// to validate a token before it is stored.
	Viewer(ctx context.Context) (string, error)
}
