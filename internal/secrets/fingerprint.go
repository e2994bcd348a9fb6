package secrets

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept from the digest.
// 16 hex chars = 64 bits, plenty for partitioning a single-digit number
// of identities while staying readable in logs and stats output.
const fingerprintLen = 16

// Fingerprint derives a stable cache-partition key from a raw token.
// It is a truncated SHA-256 digest: deterministic, one-way, and never a
// substring of the token itself, so it is safe to use as a cache key and
// to expose in introspection endpoints and logs.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
