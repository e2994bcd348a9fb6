package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/mergeboard/internal/cache"
	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
	"github.com/ericfisherdev/mergeboard/internal/secrets"
)

// maxPages is the hard safety ceiling on sequential page fetches per
// aggregation: 100 pages at 100 records each caps a run at ~10,000
// records. Hitting the ceiling truncates the result instead of failing.
const maxPages = 100

// ErrNoCredential is returned when aggregation is requested but no
// usable credential is configured.
var ErrNoCredential = errors.New("no github credential configured")

// FetchService assembles the complete set of open pull requests
// involving the stored token's user by walking the provider's cursor
// pagination, and caches the assembled result keyed by the token's
// fingerprint so repeated requests do not burn API quota.
type FetchService struct {
	provider *ClientProvider
	creds    driven.CredentialStore
	results  *cache.Cache[model.FetchResult]
	cacheTTL time.Duration
	identity string
}

// NewFetchService creates a FetchService. cacheTTL is the maximum age at
// which a cached aggregation is still served.
func NewFetchService(
	provider *ClientProvider,
	creds driven.CredentialStore,
	results *cache.Cache[model.FetchResult],
	cacheTTL time.Duration,
	identity string,
) *FetchService {
	return &FetchService{
		provider: provider,
		creds:    creds,
		results:  results,
		cacheTTL: cacheTTL,
		identity: identity,
	}
}

// FetchAggregated returns the aggregated pull request set for the stored
// credential. Unless forceRefresh is set, a cached result younger than
// the configured TTL is served with FromCache and CachedAt populated.
// A fresh aggregation is cached only when it completes; failed
// invocations never populate the cache.
//
// Failures carry the closed taxonomy: decryption failures propagate from
// the store, provider failures arrive as *model.FetchError.
func (s *FetchService) FetchAggregated(ctx context.Context, forceRefresh bool) (*model.FetchResult, error) {
	secret, err := s.creds.Get(ctx, s.identity)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, ErrNoCredential
	}

	key := secrets.Fingerprint(secret)

	if !forceRefresh {
		if cached, storedAt, ok := s.results.Get(key, s.cacheTTL); ok {
			cached.FromCache = true
			cached.CachedAt = storedAt
			return &cached, nil
		}
	}

	client := s.provider.Get()
	if client == nil {
		return nil, ErrNoCredential
	}

	result, err := s.fetchAll(ctx, client)
	if err != nil {
		return nil, err
	}

	s.results.Set(key, *result)
	return result, nil
}

// Invalidate drops the cached aggregation for the given secret.
func (s *FetchService) Invalidate(secret string) {
	s.results.Delete(secrets.Fingerprint(secret))
}

// CacheStats exposes the result cache's introspection snapshot. Keys are
// token fingerprints, never secrets.
func (s *FetchService) CacheStats() cache.Stats {
	return s.results.Stats()
}

// fetchAll drives the pagination state machine: request a page, append
// its records in order, follow the cursor while the provider signals
// more pages and the ceiling allows. Page fetches are strictly
// sequential because each cursor is only known from the previous
// response. Record order is the provider's, forwarded verbatim.
func (s *FetchService) fetchAll(ctx context.Context, client driven.GitHubClient) (*model.FetchResult, error) {
	records := []model.PullRequest{}
	cursor := ""
	pageCount := 0

	for {
		page, err := client.SearchPullRequests(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", pageCount+1, err)
		}

		records = append(records, page.Records...)
		pageCount++

		if !page.HasNextPage {
			return &model.FetchResult{Records: records}, nil
		}

		if pageCount >= maxPages {
			slog.Warn("aggregation truncated at page ceiling",
				"pages", pageCount,
				"records", len(records),
			)
			return &model.FetchResult{Records: records, Truncated: true}, nil
		}

		cursor = page.EndCursor
	}
}
