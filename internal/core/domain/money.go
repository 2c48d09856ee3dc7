package domain

import (
	"fmt"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"
)

// Money is an amount in minor units (cents) paired with an ISO 4217 currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value. Amount must be non-negative and the
// currency exactly 3 characters.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.Validation("amount cannot be negative")
	}
	if len(currency) != 3 {
		return Money{}, apperror.Validation("currency must be 3 characters (ISO 4217)")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewPositiveMoney is NewMoney with a strictly positive amount.
func NewPositiveMoney(amount int64, currency string) (Money, error) {
	m, err := NewMoney(amount, currency)
	if err != nil {
		return Money{}, err
	}
	if !m.IsPositive() {
		return Money{}, apperror.Validation("amount must be positive")
	}
	return m, nil
}

// Add sums two Money values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperror.Validation("cannot add different currencies")
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsZero() bool     { return m.Amount == 0 }

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

// PaymentReference is the caller-supplied idempotency key, unique across payments.
type PaymentReference string

// NewPaymentReference validates the 1-50 character constraint.
func NewPaymentReference(value string) (PaymentReference, error) {
	if len(value) == 0 || len(value) > 50 {
		return "", apperror.Validation("payment reference must be 1-50 characters")
	}
	return PaymentReference(value), nil
}

func (r PaymentReference) String() string { return string(r) }
