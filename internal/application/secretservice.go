package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
	"github.com/ericfisherdev/mergeboard/internal/secrets"
)

// ErrInvalidSecret is returned when a submitted token fails the format
// check. It is reported before any cryptographic or network operation.
var ErrInvalidSecret = errors.New("token does not look like a GitHub personal access token")

// tokenPattern accepts classic PATs (ghp_ + 36 alphanumerics) and
// fine-grained PATs (github_pat_ prefix).
var tokenPattern = regexp.MustCompile(`^(ghp_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,255})$`)

// ClientFactory builds a GitHub client for a token. Injected so tests
// can substitute fakes for the real adapter.
type ClientFactory func(token string) driven.GitHubClient

// SecretService manages the single stored credential: format validation,
// validation against GitHub, encrypted persistence, and hot-swapping the
// GitHub client when the credential changes.
type SecretService struct {
	creds     driven.CredentialStore
	provider  *ClientProvider
	fetch     *FetchService
	newClient ClientFactory
	identity  string
}

// NewSecretService creates a SecretService. fetch may be nil when no
// fetch cache needs invalidating on credential changes.
func NewSecretService(
	creds driven.CredentialStore,
	provider *ClientProvider,
	fetch *FetchService,
	newClient ClientFactory,
	identity string,
) *SecretService {
	return &SecretService{
		creds:     creds,
		provider:  provider,
		fetch:     fetch,
		newClient: newClient,
		identity:  identity,
	}
}

// SaveSecret validates, verifies, and stores a token, then swaps the
// provider to a client authenticated with it. The token is checked
// against GitHub before anything is written: a well-formed but rejected
// token stores nothing and surfaces the provider's classification.
func (s *SecretService) SaveSecret(ctx context.Context, raw string) error {
	if !tokenPattern.MatchString(raw) {
		return ErrInvalidSecret
	}

	client := s.newClient(raw)
	login, err := client.Viewer(ctx)
	if err != nil {
		return fmt.Errorf("validating token: %w", err)
	}

	// Invalidate the cache entry of the token being replaced, if any.
	if s.fetch != nil {
		if old, err := s.creds.Get(ctx, s.identity); err == nil && old != "" {
			s.fetch.Invalidate(old)
		}
	}

	if err := s.creds.Upsert(ctx, s.identity, raw); err != nil {
		return err
	}

	s.provider.Replace(client, login)
	slog.Info("credential saved",
		"identity", s.identity,
		"viewer", login,
		"fingerprint", secrets.Fingerprint(raw),
	)
	return nil
}

// HasSecret reports whether a credential is stored. It does not decrypt,
// so it answers true even when the stored blob is unusable.
func (s *SecretService) HasSecret(ctx context.Context) (bool, error) {
	return s.creds.Exists(ctx, s.identity)
}

// Describe returns the stored credential's metadata, or nil when none is
// stored. The secret value is never exposed here.
func (s *SecretService) Describe(ctx context.Context) (*model.Credential, error) {
	return s.creds.Describe(ctx, s.identity)
}

// DeleteSecret removes the stored credential and drops the client.
// Deleting when nothing is stored is a no-op success.
func (s *SecretService) DeleteSecret(ctx context.Context) error {
	if s.fetch != nil {
		if old, err := s.creds.Get(ctx, s.identity); err == nil && old != "" {
			s.fetch.Invalidate(old)
		}
	}

	if err := s.creds.Delete(ctx, s.identity); err != nil {
		return err
	}

	s.provider.Replace(nil, "")
	slog.Info("credential deleted", "identity", s.identity)
	return nil
}
