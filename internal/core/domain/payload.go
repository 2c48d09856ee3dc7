package domain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"
)

const payloadKeyLen = 32

// EncryptedPayload is an AES-256-GCM sealed notification body: base64-encoded
// ciphertext, 12-byte nonce and 16-byte authentication tag.
type EncryptedPayload struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
	Tag        string `json:"tag"`
}

// EncryptPayload seals plaintext with the first 32 bytes of key. A fresh
// random nonce is drawn per message.
func EncryptPayload(plaintext string, key []byte) (EncryptedPayload, error) {
	if plaintext == "" {
		return EncryptedPayload{}, apperror.Validation("plaintext required")
	}
	if len(key) < payloadKeyLen {
		return EncryptedPayload{}, apperror.Validation("encryption key must be at least 32 bytes")
	}

	aead, err := newPayloadAEAD(key)
	if err != nil {
		return EncryptedPayload{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return EncryptedPayload{}, apperror.ErrEncryptionFailure(fmt.Errorf("generating nonce: %w", err))
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - aead.Overhead()

	return EncryptedPayload{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed[:tagStart]),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(sealed[tagStart:]),
	}, nil
}

// Decrypt opens the payload with key. Authentication failure (tampered data or
// wrong key) surfaces as an integrity error, distinct from validation errors,
// since it signals possible tampering rather than bad input.
func (p EncryptedPayload) Decrypt(key []byte) (string, error) {
	if len(key) < payloadKeyLen {
		return "", apperror.Validation("encryption key must be at least 32 bytes")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return "", apperror.Validation("malformed ciphertext encoding")
	}
	nonce, err := base64.StdEncoding.DecodeString(p.Nonce)
	if err != nil {
		return "", apperror.Validation("malformed nonce encoding")
	}
	tag, err := base64.StdEncoding.DecodeString(p.Tag)
	if err != nil {
		return "", apperror.Validation("malformed tag encoding")
	}

	aead, err := newPayloadAEAD(key)
	if err != nil {
		return "", err
	}
	if len(nonce) != aead.NonceSize() {
		return "", apperror.Validation("nonce has wrong length")
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", apperror.ErrIntegrity(fmt.Errorf("payload authentication failed: %w", err))
	}
	return string(plaintext), nil
}

func newPayloadAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:payloadKeyLen])
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("creating cipher: %w", err))
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("creating GCM: %w", err))
	}
	return aead, nil
}
