package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
	"github.com/ericfisherdev/mergeboard/internal/secrets"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore
// port. Secret values are encrypted before write and decrypted after
// read; the identity primary key enforces one row per identity at the
// schema level, not by caller discipline.
type CredentialRepo struct {
	db     *DB
	cipher *secrets.Cipher
}

// NewCredentialRepo creates a CredentialRepo using the given cipher for
// at-rest encryption.
func NewCredentialRepo(db *DB, cipher *secrets.Cipher) *CredentialRepo {
	return &CredentialRepo{db: db, cipher: cipher}
}

// Upsert stores or replaces the credential for identity. The single
// writer connection makes the upsert atomic: a concurrent Get sees
// either the old blob or the new one, never a torn write.
func (r *CredentialRepo) Upsert(ctx context.Context, identity, secret string) error {
	encrypted, err := r.cipher.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt credential %q: %w", identity, err)
	}

	const query = `
		INSERT INTO credentials (identity, secret) VALUES (?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			secret = excluded.secret,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.Writer.ExecContext(ctx, query, identity, encrypted); err != nil {
		return fmt.Errorf("upsert credential %q: %w", identity, err)
	}
	return nil
}

// Get retrieves the plaintext credential for identity.
// Returns ("", nil) if no credential exists. Decryption failures wrap
// secrets.ErrDecrypt and never yield a partial or default value.
func (r *CredentialRepo) Get(ctx context.Context, identity string) (string, error) {
	const query = `SELECT secret FROM credentials WHERE identity = ?`

	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential %q: %w", identity, err)
	}

	plaintext, err := r.cipher.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %q: %w", identity, err)
	}
	return plaintext, nil
}

// Exists reports whether a credential row exists for identity without
// decrypting it.
func (r *CredentialRepo) Exists(ctx context.Context, identity string) (bool, error) {
	const query = `SELECT 1 FROM credentials WHERE identity = ?`

	var one int
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("credential exists %q: %w", identity, err)
	}
	return true, nil
}

// Describe returns the credential's metadata, or nil when none exists.
func (r *CredentialRepo) Describe(ctx context.Context, identity string) (*model.Credential, error) {
	const query = `SELECT created_at, updated_at FROM credentials WHERE identity = ?`

	var createdAt, updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("describe credential %q: %w", identity, err)
	}

	cred := &model.Credential{Identity: identity}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for credential %q: %w", identity, err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for credential %q: %w", identity, err)
	}
	return cred, nil
}

// Delete removes the credential for identity. Deleting a missing
// identity is a no-op success.
func (r *CredentialRepo) Delete(ctx context.Context, identity string) error {
	const query = `DELETE FROM credentials WHERE identity = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("delete credential %q: %w", identity, err)
	}
	return nil
}

// parseTime parses the timestamp formats SQLite emits for
// CURRENT_TIMESTAMP defaults and driver-written time values.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
