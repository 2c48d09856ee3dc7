package service

import (
	"testing"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringService_DerivesStableKey(t *testing.T) {
	a, err := NewKeyringService("test-master-secret")
	require.NoError(t, err)
	b, err := NewKeyringService("test-master-secret")
	require.NoError(t, err)

	assert.Len(t, a.PayloadKey(), 32)
	// Same secret, same key: restart must not orphan sealed payloads
	assert.Equal(t, a.PayloadKey(), b.PayloadKey())
	// Derived, never the raw secret
	assert.NotEqual(t, []byte("test-master-secret"), a.PayloadKey()[:len("test-master-secret")])
}

func TestKeyringService_DifferentSecretsDiverge(t *testing.T) {
	a, err := NewKeyringService("secret-one")
	require.NoError(t, err)
	b, err := NewKeyringService("secret-two")
	require.NoError(t, err)

	assert.NotEqual(t, a.PayloadKey(), b.PayloadKey())
}

func TestKeyringService_EmptySecretRejected(t *testing.T) {
	_, err := NewKeyringService("")

	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
