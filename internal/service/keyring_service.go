package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"golang.org/x/crypto/hkdf"
)

const payloadKeyInfo = "finledger/webhook-payload/v1"

// KeyringService derives the webhook payload key from the configured master
// secret at startup and implements ports.KeyProvider. The secret itself is
// never used directly as key material.
type KeyringService struct {
	payloadKey []byte
}

// NewKeyringService derives a 32-byte AES key via HKDF-SHA256.
func NewKeyringService(masterSecret string) (*KeyringService, error) {
	if masterSecret == "" {
		return nil, apperror.Validation("payload master secret required")
	}

	kdf := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(payloadKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("deriving payload key: %w", err))
	}

	return &KeyringService{payloadKey: key}, nil
}

// PayloadKey returns the derived 32-byte AEAD key.
func (k *KeyringService) PayloadKey() []byte {
	return k.payloadKey
}
