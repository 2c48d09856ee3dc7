package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		wantErr  bool
	}{
		{"valid", 50000, "USD", false},
		{"zero allowed", 0, "EUR", false},
		{"negative rejected", -1, "USD", true},
		{"currency too short", 100, "US", true},
		{"currency too long", 100, "USDT", true},
		{"empty currency", 100, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(tt.amount, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, m.Amount)
			assert.Equal(t, tt.currency, m.Currency)
		})
	}
}

func TestNewPositiveMoney_RejectsZero(t *testing.T) {
	_, err := NewPositiveMoney(0, "USD")
	assert.Error(t, err)

	m, err := NewPositiveMoney(1, "USD")
	require.NoError(t, err)
	assert.True(t, m.IsPositive())
}

func TestMoney_Add(t *testing.T) {
	a, _ := NewMoney(100, "USD")
	b, _ := NewMoney(250, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Amount)

	c, _ := NewMoney(100, "EUR")
	_, err = a.Add(c)
	assert.Error(t, err, "mixed currencies must not add")
}

func TestMoney_String(t *testing.T) {
	m, _ := NewMoney(50000, "USD")
	assert.Equal(t, "50000 USD", m.String())
}

func TestNewPaymentReference(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "ORDER-001", false},
		{"single char", "x", false},
		{"max length", strings.Repeat("a", 50), false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewPaymentReference(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, ref.String())
		})
	}
}
