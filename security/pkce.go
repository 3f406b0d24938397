package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/oauth2"
)

const verifierBytes = 32

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("security: token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: random token generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateVerifier returns a PKCE code verifier that doubles as the CSRF
// state token. 64 hex characters sit inside the 43..128 range RFC 7636 allows.
func GenerateVerifier() (string, error) {
	return RandomToken(verifierBytes)
}

// CodeChallenge is base64url(SHA-256(verifier)) without padding.
func CodeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// SealedToken is a freshly generated token alongside its encrypted form.
type SealedToken struct {
	Plain     string
	Encrypted string
}

// NewSealedToken generates a random token and encrypts it with secret.
func NewSealedToken(secret string) (SealedToken, error) {
	plain, err := RandomToken(verifierBytes)
	if err != nil {
		return SealedToken{}, err
	}
	encrypted, err := Encrypt(plain, Options{Secret: secret})
	if err != nil {
		return SealedToken{}, err
	}
	return SealedToken{Plain: plain, Encrypted: encrypted}, nil
}
