package domain

import (
	"fmt"
	"time"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

const maxPaymentRetries = 5

// Payment is the aggregate root for the reservation->settlement lifecycle.
// It exclusively owns its ledger entries and buffers the domain events each
// transition emits until the persistence boundary flushes them.
type Payment struct {
	ID            uuid.UUID        `json:"id"`
	MerchantID    uuid.UUID        `json:"merchant_id"`
	Amount        Money            `json:"amount"`
	Reference     PaymentReference `json:"reference"`
	Status        PaymentStatus    `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	WebhookURL    *string          `json:"webhook_url,omitempty"`
	RetryCount    int              `json:"retry_count"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	LedgerEntries []LedgerEntry    `json:"ledger_entries"`

	pendingEvents []Event
}

// NewPayment creates a Pending payment and emits PaymentCreated.
func NewPayment(merchantID uuid.UUID, amount Money, reference PaymentReference, webhookURL *string) (*Payment, error) {
	if merchantID == uuid.Nil {
		return nil, apperror.Validation("merchant id required")
	}
	if !amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}
	if _, err := NewPaymentReference(reference.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Payment{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     amount,
		Reference:  reference,
		Status:     PaymentStatusPending,
		CreatedAt:  now,
		WebhookURL: webhookURL,
	}
	p.raise(PaymentCreated{
		EventMeta:  newEventMeta(p.ID, now),
		PaymentID:  p.ID,
		MerchantID: merchantID,
		Amount:     amount.Amount,
		Currency:   amount.Currency,
		Reference:  reference.String(),
	})
	return p, nil
}

// ReserveFunds posts the reservation pair (customer debit, clearing credit).
// Valid only while Pending. Returns the events it emitted.
func (p *Payment) ReserveFunds() ([]Event, error) {
	if p.Status != PaymentStatusPending {
		return nil, apperror.ErrInvalidState(fmt.Sprintf("cannot reserve funds for %s payment", p.Status))
	}

	now := time.Now().UTC()
	if err := p.post(AccountCustomer, p.Amount.Amount, 0, now); err != nil {
		return nil, err
	}
	if err := p.post(AccountClearing, 0, p.Amount.Amount, now); err != nil {
		return nil, err
	}

	ev := FundsReserved{
		EventMeta: newEventMeta(p.ID, now),
		PaymentID: p.ID,
		Amount:    p.Amount.Amount,
	}
	p.raise(ev)
	return []Event{ev}, nil
}

// MarkCompleted transitions Pending->Completed and posts the settlement pair
// (clearing debit, merchant credit). Returns the events it emitted.
func (p *Payment) MarkCompleted() ([]Event, error) {
	if p.Status != PaymentStatusPending {
		return nil, apperror.ErrInvalidState(fmt.Sprintf("cannot complete payment in %s state", p.Status))
	}

	now := time.Now().UTC()
	if err := p.post(AccountClearing, p.Amount.Amount, 0, now); err != nil {
		return nil, err
	}
	if err := p.post(AccountMerchant, 0, p.Amount.Amount, now); err != nil {
		return nil, err
	}

	p.Status = PaymentStatusCompleted
	p.CompletedAt = &now

	completed := PaymentCompleted{
		EventMeta:   newEventMeta(p.ID, now),
		PaymentID:   p.ID,
		CompletedAt: now,
	}
	settled := FundsSettled{
		EventMeta: newEventMeta(p.ID, now),
		PaymentID: p.ID,
		Amount:    p.Amount.Amount,
	}
	p.raise(completed)
	p.raise(settled)
	return []Event{completed, settled}, nil
}

// MarkFailed transitions to Failed. Completed and Failed are terminal.
func (p *Payment) MarkFailed(reason string) ([]Event, error) {
	if p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed {
		return nil, apperror.ErrInvalidState("cannot fail a settled or already failed payment")
	}
	if reason == "" {
		return nil, apperror.Validation("failure reason required")
	}

	now := time.Now().UTC()
	p.Status = PaymentStatusFailed
	p.FailureReason = &reason

	ev := PaymentFailed{
		EventMeta: newEventMeta(p.ID, now),
		PaymentID: p.ID,
		Reason:    reason,
	}
	p.raise(ev)
	return []Event{ev}, nil
}

// GetAccountBalance sums credit - debit over the account's entries.
func (p *Payment) GetAccountBalance(account LedgerAccount) int64 {
	var balance int64
	for _, e := range p.LedgerEntries {
		if e.Account == account {
			balance += e.Balance()
		}
	}
	return balance
}

// IsLedgerBalanced verifies the double-entry invariant for this payment alone:
// every posting pair nets to zero, so the three account balances must sum to zero.
func (p *Payment) IsLedgerBalanced() bool {
	sum := p.GetAccountBalance(AccountCustomer) +
		p.GetAccountBalance(AccountClearing) +
		p.GetAccountBalance(AccountMerchant)
	return sum == 0
}

// IncrementRetry bumps the retry counter, capped at 5.
func (p *Payment) IncrementRetry() error {
	if p.RetryCount >= maxPaymentRetries {
		return apperror.ErrInvalidState("max retries exceeded")
	}
	p.RetryCount++
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}

// PendingEvents returns the not-yet-flushed events in emission order.
func (p *Payment) PendingEvents() []Event {
	return p.pendingEvents
}

// ClearPendingEvents is called by the persistence boundary after a successful flush.
func (p *Payment) ClearPendingEvents() {
	p.pendingEvents = nil
}

func (p *Payment) raise(ev Event) {
	p.pendingEvents = append(p.pendingEvents, ev)
}

func (p *Payment) post(account LedgerAccount, debit, credit int64, now time.Time) error {
	entry, err := NewLedgerEntry(p.ID, account, debit, credit, now)
	if err != nil {
		return err
	}
	p.LedgerEntries = append(p.LedgerEntries, entry)
	return nil
}
