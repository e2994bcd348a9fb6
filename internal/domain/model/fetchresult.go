package model

import "time"

// FetchResult is the assembled output of one aggregation: the
// concatenation of every fetched page in request order.
//
// Truncated marks a result cut short by the page safety ceiling; it is
// still a success. FromCache and CachedAt describe how the result was
// served, not how it was assembled: a cached Truncated result keeps its
// Truncated flag.
type FetchResult struct {
	Records   []PullRequest
	Truncated bool
	FromCache bool
	CachedAt  time.Time // zero when freshly fetched
}
