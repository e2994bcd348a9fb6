package model

import "time"

// PullRequest is one record from the provider's paginated search stream.
// Fields mirror what the GraphQL search returns; ordering and content are
// forwarded verbatim from the provider, never locally re-sorted.
type PullRequest struct {
	Number     int
	Title      string
	Repository string // "owner/name"
	Author     string
	URL        string
	State      string // "OPEN", "CLOSED", "MERGED"
	IsDraft    bool
	Body       string // raw markdown
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PRPage is one page of the provider's cursor-paginated result stream.
// EndCursor positions the next request; HasNextPage false means the
// stream is exhausted.
type PRPage struct {
	Records     []PullRequest
	HasNextPage bool
	EndCursor   string
}
