// Package crypto seals calendar credentials before they reach disk. Tokens are
// bearer secrets for someone else's calendar; the database should never hold
// them in the clear.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// AEAD wraps an AES-GCM cipher keyed once at startup.
type AEAD struct {
	aead cipher.AEAD
}

// New builds an AEAD from a 16, 24, or 32 byte key.
func New(key []byte) (*AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AEAD{aead: aead}, nil
}

// Seal encrypts plaintext and encodes nonce+ciphertext as base64 for storage
// in a text column. An empty plaintext seals to an empty string.
func (a *AEAD) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (a *AEAD) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	buf, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	ns := a.aead.NonceSize()
	if len(buf) < ns {
		return "", errors.New("crypto: sealed value too short")
	}
	plaintext, err := a.aead.Open(nil, buf[:ns], buf[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
