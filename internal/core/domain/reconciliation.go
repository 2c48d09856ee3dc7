package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot notes, also surfaced in reconciliation responses.
const (
	NoteLedgerBalanced  = "Ledger balanced"
	NoteLedgerImbalance = "Ledger imbalance detected"
)

// ReconciliationSnapshot is an immutable point-in-time record of payment
// counts and global account balances. Snapshots are diagnostic, not
// authoritative state.
type ReconciliationSnapshot struct {
	ID                uuid.UUID `json:"id"`
	TotalPayments     int       `json:"total_payments"`
	PendingPayments   int       `json:"pending_payments"`
	CompletedPayments int       `json:"completed_payments"`
	FailedPayments    int       `json:"failed_payments"`
	CustomerBalance   int64     `json:"customer_balance"`
	ClearingBalance   int64     `json:"clearing_balance"`
	MerchantBalance   int64     `json:"merchant_balance"`
	IsBalanced        bool      `json:"is_balanced"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewReconciliationSnapshot captures the balances and verifies the global
// double-entry invariant: signed account balances (credit - debit) must sum
// to zero. Amounts are integer minor units, so the check is exact.
func NewReconciliationSnapshot(pending, completed, failed int, customer, clearing, merchant int64) *ReconciliationSnapshot {
	s := &ReconciliationSnapshot{
		ID:                uuid.New(),
		TotalPayments:     pending + completed + failed,
		PendingPayments:   pending,
		CompletedPayments: completed,
		FailedPayments:    failed,
		CustomerBalance:   customer,
		ClearingBalance:   clearing,
		MerchantBalance:   merchant,
		CreatedAt:         time.Now().UTC(),
	}
	s.IsBalanced = customer+clearing+merchant == 0
	if s.IsBalanced {
		s.Notes = NoteLedgerBalanced
	} else {
		s.Notes = NoteLedgerImbalance
	}
	return s
}
