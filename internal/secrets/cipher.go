// Package secrets provides the at-rest encryption scheme for the stored
// GitHub token and the fingerprint used to key caches without exposing it.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize  = 64
	nonceSize = 16
	tagSize   = 16
	keySize   = 32 // AES-256

	// kdfIterations is the PBKDF2 work factor. The master key may be a
	// human-chosen passphrase, so derivation has to be deliberately slow.
	kdfIterations = 100_000
)

// ErrDecrypt is returned when a blob fails authentication: tampered
// ciphertext, a truncated blob, or the wrong master key. Callers cannot
// distinguish these cases, which is intentional.
var ErrDecrypt = errors.New("secrets: decryption failed")

// Cipher encrypts and decrypts single secret values under a process-wide
// master key. Each Encrypt call derives a fresh per-call AES-256 key via
// PBKDF2-SHA512 with a random salt, so ciphertexts are never linkable and
// nonce reuse cannot occur across calls.
type Cipher struct {
	masterKey []byte
}

// NewCipher creates a Cipher for the given master key. The key is used as
// PBKDF2 input, not directly as an AES key, so any non-empty string works.
func NewCipher(masterKey string) *Cipher {
	return &Cipher{masterKey: []byte(masterKey)}
}

// Encrypt encrypts plaintext and returns an opaque base64 blob laid out as
// salt || nonce || tag || ciphertext. Salt and nonce are freshly random on
// every call.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("rand salt: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	// Seal returns ciphertext || tag; the blob format wants the tag up
	// front, after salt and nonce.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, saltSize+nonceSize+tagSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. Any blob that does not decompose into the
// fixed-layout segments, or whose authentication tag does not verify,
// fails with ErrDecrypt; no partial plaintext is ever returned.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrDecrypt, err)
	}

	if len(blob) < saltSize+nonceSize+tagSize {
		return "", fmt.Errorf("%w: blob too short (%d bytes)", ErrDecrypt, len(blob))
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	tag := blob[saltSize+nonceSize : saltSize+nonceSize+tagSize]
	ciphertext := blob[saltSize+nonceSize+tagSize:]

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	// Reassemble ciphertext || tag, the order gcm.Open expects.
	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// aead builds the AES-256-GCM AEAD for the key derived from the master key
// and the given salt.
func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.masterKey, salt, kdfIterations, keySize, sha512.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return gcm, nil
}
