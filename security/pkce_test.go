package security

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestCodeChallenge_MatchesS256(t *testing.T) {
	verifier, err := GenerateVerifier()
	if err != nil {
		t.Fatalf("generate verifier: %v", err)
	}
	if len(verifier) != 64 {
		t.Fatalf("expected 64 character verifier, got %d", len(verifier))
	}

	sum := sha256.Sum256([]byte(verifier))
	expected := base64.StdEncoding.EncodeToString(sum[:])
	expected = strings.TrimRight(expected, "=")
	expected = strings.NewReplacer("+", "-", "/", "_").Replace(expected)

	if got := CodeChallenge(verifier); got != expected {
		t.Fatalf("expected challenge %q, got %q", expected, got)
	}
}

func TestRandomToken(t *testing.T) {
	first, err := RandomToken(16)
	if err != nil {
		t.Fatalf("random token: %v", err)
	}
	second, err := RandomToken(16)
	if err != nil {
		t.Fatalf("random token: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct tokens")
	}
	if _, err := RandomToken(0); err == nil {
		t.Fatalf("expected invalid length error")
	}
}

func TestNewSealedToken(t *testing.T) {
	sealed, err := NewSealedToken("secret")
	if err != nil {
		t.Fatalf("sealed token: %v", err)
	}
	plain, ok := Decrypt(sealed.Encrypted, Options{Secret: "secret"})
	if !ok || plain != sealed.Plain {
		t.Fatalf("expected sealed token to decrypt to its plain form")
	}
}
