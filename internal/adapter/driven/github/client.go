// Package github implements the GitHubClient port against the GitHub
// GraphQL search API, with REST used for token validation.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// pageSize is the number of records requested per search page.
const pageSize = 100

// pageTimeout bounds a single page fetch. A full aggregation can need
// many sequential round trips, so each page gets its own generous
// deadline rather than the invocation sharing one.
const pageTimeout = 2 * time.Minute

// searchQuery is the provider-side ordering contract: most recently
// updated first. The order is forwarded verbatim to callers.
const searchQuery = "is:pr is:open involves:@me sort:updated-desc"

var pullRequestSearch = fmt.Sprintf(`query($cursor: String) {
	search(query: %q, type: ISSUE, first: %d, after: $cursor) {
		pageInfo {
			hasNextPage
			endCursor
		}
		nodes {
			... on PullRequest {
				number
				title
				url
				bodyText: body
				isDraft
				state
				createdAt
				updatedAt
				author { login }
				repository { nameWithOwner }
			}
		}
	}
	rateLimit {
		limit
		remaining
		resetAt
	}
}`, searchQuery, pageSize)

// Client implements the driven.GitHubClient port. REST traffic goes
// through go-github behind an httpcache + rate-limit transport stack;
// search pagination speaks GraphQL directly, the same way the REST side
// authenticates.
type Client struct {
	rest       *gh.Client
	httpClient *http.Client // GraphQL requests; carries the page timeout.
	token      string
	graphqlURL string
}

// NewClient creates a GitHub API client with the following REST
// transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{
		rest:       client,
		httpClient: &http.Client{Timeout: pageTimeout},
		token:      token,
		graphqlURL: "https://api.github.com/graphql",
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection
// of an httptest server for both REST and GraphQL requests.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		rest:       client,
		httpClient: httpClient,
		token:      token,
		graphqlURL: graphqlU.String(),
	}, nil
}

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// searchResponse is the expected shape of a pull request search page.
type searchResponse struct {
	Data struct {
		Search struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []struct {
				Number    int       `json:"number"`
				Title     string    `json:"title"`
				URL       string    `json:"url"`
				BodyText  string    `json:"bodyText"`
				IsDraft   bool      `json:"isDraft"`
				State     string    `json:"state"`
				CreatedAt time.Time `json:"createdAt"`
				UpdatedAt time.Time `json:"updatedAt"`
				Author    struct {
					Login string `json:"login"`
				} `json:"author"`
				Repository struct {
					NameWithOwner string `json:"nameWithOwner"`
				} `json:"repository"`
			} `json:"nodes"`
		} `json:"search"`
		RateLimit struct {
			Limit     int       `json:"limit"`
			Remaining int       `json:"remaining"`
			ResetAt   time.Time `json:"resetAt"`
		} `json:"rateLimit"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// graphqlError is one entry of a GraphQL error list. Type is set for
// structured errors like RATE_LIMITED; Message is always present.
type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SearchPullRequests fetches one page of open pull requests involving
// the authenticated user. An empty cursor starts the stream. All
// failures are classified into the model.FetchError taxonomy.
func (c *Client) SearchPullRequests(ctx context.Context, cursor string) (model.PRPage, error) {
	vars := map[string]any{"cursor": nil}
	if cursor != "" {
		vars["cursor"] = cursor
	}

	reqBody := graphqlRequest{Query: pullRequestSearch, Variables: vars}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return model.PRPage{}, &model.FetchError{Class: model.FetchTransient, Err: fmt.Errorf("marshal search request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return model.PRPage{}, &model.FetchError{Class: model.FetchTransient, Err: fmt.Errorf("create search request: %w", err)}
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.PRPage{}, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.PRPage{}, classifyStatus(resp)
	}

	var gqlResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return model.PRPage{}, &model.FetchError{Class: model.FetchTransient, Err: fmt.Errorf("decode search response: %w", err)}
	}

	if len(gqlResp.Errors) > 0 {
		return model.PRPage{}, classifyGraphQL(gqlResp.Errors)
	}

	logRateLimit(gqlResp.Data.RateLimit.Limit, gqlResp.Data.RateLimit.Remaining, gqlResp.Data.RateLimit.ResetAt, cursor)

	search := gqlResp.Data.Search
	records := make([]model.PullRequest, 0, len(search.Nodes))
	for _, n := range search.Nodes {
		records = append(records, model.PullRequest{
			Number:     n.Number,
			Title:      n.Title,
			Repository: n.Repository.NameWithOwner,
			Author:     n.Author.Login,
			URL:        n.URL,
			State:      n.State,
			IsDraft:    n.IsDraft,
			Body:       n.BodyText,
			CreatedAt:  n.CreatedAt,
			UpdatedAt:  n.UpdatedAt,
		})
	}

	return model.PRPage{
		Records:     records,
		HasNextPage: search.PageInfo.HasNextPage,
		EndCursor:   search.PageInfo.EndCursor,
	}, nil
}

// Viewer returns the login of the token's authenticated user via the
// REST API. A 401 here means the token itself is bad.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	user, resp, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", classifyREST(err)
	}

	if resp != nil {
		logRateLimit(resp.Rate.Limit, resp.Rate.Remaining, resp.Rate.Reset.Time, "")
	}

	return user.GetLogin(), nil
}

// logRateLimit logs quota telemetry after each provider call and warns
// when the remaining quota is running low.
func logRateLimit(limit, remaining int, reset time.Time, cursor string) {
	if limit == 0 {
		return
	}

	slog.Debug("github api call",
		"cursor", cursor,
		"rate_remaining", remaining,
		"rate_limit", limit,
	)

	if remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", remaining,
			"reset_in", time.Until(reset).Round(time.Second),
		)
	}
}
