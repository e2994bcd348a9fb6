package driven

import (
	"context"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
)

// CredentialStore defines the driven port for encrypted credential
// persistence. The adapter layer owns encryption and decryption; this
// interface operates on plaintext values at the domain boundary and
// enforces exactly one row per identity.
type CredentialStore interface {
	// Upsert stores or replaces the credential for identity with the
	// given plaintext secret. CreatedAt is preserved across re-saves;
	// UpdatedAt is refreshed.
	Upsert(ctx context.Context, identity, secret string) error

	// Get returns the plaintext secret for identity, or ("", nil) when
	// no credential exists. A stored blob that fails authentication
	// (tamper, corruption, wrong master key) returns an error wrapping
	// secrets.ErrDecrypt; no partial or default value is ever returned.
	Get(ctx context.Context, identity string) (string, error)

	// Exists reports whether a credential is stored for identity. It
	// never decrypts, so it succeeds even when the blob is unusable.
	Exists(ctx context.Context, identity string) (bool, error)

	// Describe returns the credential's metadata, or nil when no
	// credential exists. The secret value is never included.
	Describe(ctx context.Context, identity string) (*model.Credential, error)

	// Delete removes the credential for identity. Deleting a missing
	// identity is a no-op success.
	Delete(ctx context.Context, identity string) error
}
