package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
)

// Rate-limit detection is best effort: GitHub signals quota exhaustion
// through typed REST errors, HTTP statuses with Retry-After, and GraphQL
// error types, with no single authoritative channel. Anything matching
// no recognized heuristic classifies as transient, never as success.

// classifyTransport classifies errors from the HTTP round trip itself.
func classifyTransport(err error) *model.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.FetchError{Class: model.FetchTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &model.FetchError{Class: model.FetchTimeout, Err: err}
	}

	return &model.FetchError{Class: model.FetchTransient, Err: err}
}

// classifyStatus classifies a non-200 HTTP response from the GraphQL
// endpoint.
func classifyStatus(resp *http.Response) *model.FetchError {
	err := fmt.Errorf("graphql: HTTP %d", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &model.FetchError{Class: model.FetchAuthRejected, Err: err}
	case http.StatusForbidden, http.StatusTooManyRequests:
		return &model.FetchError{
			Class:      model.FetchRateLimited,
			RetryAfter: retryAfterHeader(resp),
			Err:        err,
		}
	default:
		return &model.FetchError{Class: model.FetchTransient, Err: err}
	}
}

// classifyGraphQL classifies a structured GraphQL error list from an
// otherwise successful (HTTP 200) response.
func classifyGraphQL(errs []graphqlError) *model.FetchError {
	err := fmt.Errorf("graphql: %s", errs[0].Message)

	for _, e := range errs {
		if e.Type == "RATE_LIMITED" || strings.Contains(strings.ToLower(e.Message), "rate limit") {
			return &model.FetchError{Class: model.FetchRateLimited, RetryAfter: time.Minute, Err: err}
		}
		if strings.Contains(strings.ToLower(e.Message), "bad credentials") {
			return &model.FetchError{Class: model.FetchAuthRejected, Err: err}
		}
	}

	return &model.FetchError{Class: model.FetchTransient, Err: err}
}

// classifyREST classifies errors returned by the go-github REST client,
// preferring its typed error values over status sniffing.
func classifyREST(err error) *model.FetchError {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &model.FetchError{
			Class:      model.FetchRateLimited,
			RetryAfter: time.Until(rateErr.Rate.Reset.Time),
			Err:        err,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := time.Minute
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return &model.FetchError{Class: model.FetchRateLimited, RetryAfter: retryAfter, Err: err}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return &model.FetchError{Class: model.FetchAuthRejected, Err: err}
		case http.StatusForbidden, http.StatusTooManyRequests:
			if strings.Contains(strings.ToLower(respErr.Message), "rate limit") {
				return &model.FetchError{Class: model.FetchRateLimited, RetryAfter: time.Minute, Err: err}
			}
			return &model.FetchError{Class: model.FetchAuthRejected, Err: err}
		}
		return &model.FetchError{Class: model.FetchTransient, Err: err}
	}

	return classifyTransport(err)
}

// retryAfterHeader parses a Retry-After header given in seconds.
// Returns zero when the header is absent or unparseable.
func retryAfterHeader(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
