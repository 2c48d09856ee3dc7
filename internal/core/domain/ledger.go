package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
)

// LedgerAccount identifies one of the three accounts a payment moves value between.
type LedgerAccount string

const (
	AccountCustomer LedgerAccount = "CUSTOMER"
	AccountClearing LedgerAccount = "CLEARING"
	AccountMerchant LedgerAccount = "MERCHANT"
)

// LedgerEntry is a single immutable debit or credit, owned by a Payment.
// Entries are never updated or deleted after creation.
type LedgerEntry struct {
	ID              uuid.UUID     `json:"id"`
	PaymentID       uuid.UUID     `json:"payment_id"`
	Account         LedgerAccount `json:"account"`
	Debit           int64         `json:"debit"`
	Credit          int64         `json:"credit"`
	CreatedAt       time.Time     `json:"created_at"`
	TransactionHash string        `json:"transaction_hash"`
}

// NewLedgerEntry validates that exactly one of debit/credit is nonzero and
// stamps the entry with a tamper-evidence hash. The hash is a diagnostic
// fingerprint, not a security control: it covers the entry's own created_at,
// so it can only be recomputed from the stored row itself.
func NewLedgerEntry(paymentID uuid.UUID, account LedgerAccount, debit, credit int64, now time.Time) (LedgerEntry, error) {
	if paymentID == uuid.Nil {
		return LedgerEntry{}, apperror.Validation("payment id required")
	}
	if debit < 0 || credit < 0 {
		return LedgerEntry{}, apperror.Validation("debit/credit cannot be negative")
	}
	if debit > 0 && credit > 0 {
		return LedgerEntry{}, apperror.Validation("cannot have both debit and credit")
	}
	if debit == 0 && credit == 0 {
		return LedgerEntry{}, apperror.Validation("must have either debit or credit")
	}

	e := LedgerEntry{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Account:   account,
		Debit:     debit,
		Credit:    credit,
		CreatedAt: now,
	}
	e.TransactionHash = e.computeHash()
	return e, nil
}

// Balance returns the signed balance contribution of this entry: credit - debit.
func (e LedgerEntry) Balance() int64 {
	return e.Credit - e.Debit
}

// Verify recomputes the tamper-evidence hash from the entry's fields.
func (e LedgerEntry) Verify() bool {
	return e.TransactionHash == e.computeHash()
}

func (e LedgerEntry) computeHash() string {
	data := fmt.Sprintf("%s%s%d%d%d",
		e.PaymentID, e.Account, e.Debit, e.Credit, e.CreatedAt.UnixNano())
	sum := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}
