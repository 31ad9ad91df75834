package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewToken returns a hex-encoded random token built from n bytes of
// cryptographically secure randomness.  It backs both email
// verification tokens and refresh tokens; only HashToken(raw) is ever
// persisted.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
// Storing only the hash keeps stolen database rows from being replayed
// as live tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
