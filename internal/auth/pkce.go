package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// verifierBytes yields a 128-character base64url verifier, the maximum
	// length RFC 7636 allows.
	verifierBytes = 96

	// stateBytes yields a 43-character base64url state token.
	stateBytes = 32
)

// newVerifier generates a cryptographically random PKCE code verifier.
func newVerifier() (string, error) {
	return randomToken(verifierBytes)
}

// newState generates a random anti-forgery state token bound to one login
// attempt.
func newState() (string, error) {
	return randomToken(stateBytes)
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// challengeS256 derives the S256 code challenge for a verifier:
// base64url(sha256(verifier)) without padding.
func challengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
