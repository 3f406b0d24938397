package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Key derivation parameters. The salt is fixed so ciphertexts written by
// other deployments sharing the secret stay readable.
const (
	keySalt   = "salt"
	keyLength = 32
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	ivLength  = aes.BlockSize
)

type Options struct {
	Secret string
}

// TokenCipher encrypts stored tokens with AES-256-CBC. The scrypt derived
// key is computed once per cipher.
type TokenCipher struct {
	key []byte
}

func NewTokenCipher(secret string) (*TokenCipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("security: encryption secret is required")
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &TokenCipher{key: key}, nil
}

// Encrypt returns hex(iv):hex(ciphertext). The empty string encrypts to the
// empty string.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("security: token cipher is nil")
	}
	if plaintext == "" {
		return "", nil
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("security: create cipher: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("security: iv generation failed: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	sealed := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(sealed, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reports ok=false for malformed input or a secret mismatch instead
// of returning an error.
func (c *TokenCipher) Decrypt(ciphertext string) (string, bool) {
	if c == nil {
		return "", false
	}
	ivHex, payloadHex, found := strings.Cut(strings.TrimSpace(ciphertext), ":")
	if !found || strings.Contains(payloadHex, ":") {
		return "", false
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivLength {
		return "", false
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil || len(payload) == 0 || len(payload)%aes.BlockSize != 0 {
		return "", false
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", false
	}
	plain := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, payload)
	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", false
	}
	return string(unpadded), true
}

func Encrypt(plaintext string, opts Options) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	tokenCipher, err := NewTokenCipher(opts.Secret)
	if err != nil {
		return "", err
	}
	return tokenCipher.Encrypt(plaintext)
}

func Decrypt(ciphertext string, opts Options) (string, bool) {
	tokenCipher, err := NewTokenCipher(opts.Secret)
	if err != nil {
		return "", false
	}
	return tokenCipher.Decrypt(ciphertext)
}

func deriveKey(secret string) ([]byte, error) {
	key, err := scrypt.Key([]byte(secret), []byte(keySalt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("security: derive key: %w", err)
	}
	return key, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
