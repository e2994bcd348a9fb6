package model

import (
	"fmt"
	"time"
)

// FetchErrorClass is the closed taxonomy for provider failures. Upstream
// error shapes (HTTP statuses, typed client errors, GraphQL error lists)
// are folded into these classes at the provider adapter boundary and
// never leak past it.
type FetchErrorClass string

const (
	// FetchAuthRejected means the provider rejected the credential
	// itself; the caller must replace the token, waiting will not help.
	FetchAuthRejected FetchErrorClass = "auth_rejected"

	// FetchRateLimited means the provider signalled quota exhaustion.
	// RetryAfter carries the recommended wait when the provider gave one.
	FetchRateLimited FetchErrorClass = "rate_limited"

	// FetchTimeout means the bounded per-page deadline elapsed.
	FetchTimeout FetchErrorClass = "timeout"

	// FetchTransient covers everything else: network failures and any
	// provider error matching no recognized heuristic. Deliberately the
	// default class so unknown failures are retriable, never swallowed.
	FetchTransient FetchErrorClass = "transient"
)

// FetchError wraps a provider failure with its classification.
type FetchError struct {
	Class      FetchErrorClass
	RetryAfter time.Duration // only meaningful for FetchRateLimited
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Class, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
