package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const tokenPrefix = "pk_"

// NewToken generates a plaintext bearer token.
func NewToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(raw), nil
}

// HashToken returns the hex sha256 digest stored in api_tokens.token_hash.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
