package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
)

// fakeCredStore is an in-memory CredentialStore for service tests.
type fakeCredStore struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error // forced Get failure, e.g. a decrypt error
	upserts int
}

var _ driven.CredentialStore = (*fakeCredStore)(nil)

func newFakeCredStore() *fakeCredStore {
	return &fakeCredStore{values: map[string]string{}}
}

func (f *fakeCredStore) Upsert(_ context.Context, identity, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[identity] = secret
	f.upserts++
	return nil
}

func (f *fakeCredStore) Get(_ context.Context, identity string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.values[identity], nil
}

func (f *fakeCredStore) Exists(_ context.Context, identity string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[identity]
	return ok, nil
}

func (f *fakeCredStore) Describe(_ context.Context, identity string) (*model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[identity]; !ok {
		return nil, nil
	}
	now := time.Now()
	return &model.Credential{Identity: identity, CreatedAt: now, UpdatedAt: now}, nil
}

func (f *fakeCredStore) Delete(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, identity)
	return nil
}

func (f *fakeCredStore) stored(identity string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[identity]
}

// fakeGitHub is a scripted GitHubClient. Pages are served in order; the
// cursor returned for page N must come back on the request for page N+1.
type fakeGitHub struct {
	mu        sync.Mutex
	pages     []model.PRPage
	neverEnds bool // always signal another page, for ceiling tests
	err       error
	login     string
	viewerErr error
	calls     int
}

var _ driven.GitHubClient = (*fakeGitHub)(nil)

// makePages builds sequential pages with the given record counts, with
// globally increasing PR numbers so ordering is checkable end to end.
func makePages(counts ...int) []model.PRPage {
	var pages []model.PRPage
	number := 0
	for i, count := range counts {
		records := make([]model.PullRequest, 0, count)
		for j := 0; j < count; j++ {
			number++
			records = append(records, model.PullRequest{
				Number:     number,
				Title:      fmt.Sprintf("PR %d", number),
				Repository: "owner/repo",
				Author:     "alice",
			})
		}
		pages = append(pages, model.PRPage{
			Records:     records,
			HasNextPage: i < len(counts)-1,
			EndCursor:   fmt.Sprintf("cursor-%d", i+1),
		})
	}
	return pages
}

func (f *fakeGitHub) SearchPullRequests(_ context.Context, cursor string) (model.PRPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return model.PRPage{}, f.err
	}

	if f.neverEnds {
		return model.PRPage{
			Records:     []model.PullRequest{{Number: f.calls}},
			HasNextPage: true,
			EndCursor:   strconv.Itoa(f.calls),
		}, nil
	}

	index := 0
	if cursor != "" {
		var n int
		if _, err := fmt.Sscanf(cursor, "cursor-%d", &n); err != nil {
			return model.PRPage{}, fmt.Errorf("unexpected cursor %q", cursor)
		}
		index = n
	}
	if index >= len(f.pages) {
		return model.PRPage{}, fmt.Errorf("no page at cursor %q", cursor)
	}
	return f.pages[index], nil
}

func (f *fakeGitHub) Viewer(_ context.Context) (string, error) {
	if f.viewerErr != nil {
		return "", f.viewerErr
	}
	if f.login == "" {
		return "octocat", nil
	}
	return f.login, nil
}

func (f *fakeGitHub) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
