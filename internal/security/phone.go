// Package security handles contact-number encryption and hashing. Phone
// numbers are stored AES-256-GCM encrypted and only ever logged as one-way
// hashes.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey is returned when no encryption key is configured.
	ErrMissingKey = errors.New("security: encryption key is not configured")
	// ErrCiphertextInvalid is returned for malformed or tampered ciphertexts.
	ErrCiphertextInvalid = errors.New("security: ciphertext invalid")
)

// PhoneCipher encrypts and decrypts phone numbers with AES-256-GCM. The key
// is derived from the configured secret with SHA-256 so any passphrase
// length is accepted.
type PhoneCipher struct {
	aead cipher.AEAD
}

// NewPhoneCipher builds a cipher from the configured secret.
func NewPhoneCipher(secret string) (*PhoneCipher, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("security: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: init gcm: %w", err)
	}
	return &PhoneCipher{aead: aead}, nil
}

// Encrypt returns a URL-safe base64 ciphertext (nonce prepended). Empty
// input encrypts to the empty string.
func (c *PhoneCipher) Encrypt(phone string) (string, error) {
	if phone == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("security: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(phone), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input decrypts to the empty string.
func (c *PhoneCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrCiphertextInvalid
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plain), nil
}

// HashPhone returns the SHA-256 hex digest of a phone number, suitable for
// audit rows and log correlation without exposing PII.
func HashPhone(phone string) string {
	if phone == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])
}

// CleanPhone strips separators so providers receive bare digits
// (a leading + for E.164 input is preserved).
func CleanPhone(phone string) string {
	r := strings.NewReplacer("-", "", " ", "", "(", "", ")", "", ".", "")
	return strings.TrimSpace(r.Replace(phone))
}
