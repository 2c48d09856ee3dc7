package ports

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

import (
	"context"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
)

// KeyProvider supplies the 32-byte AEAD key for webhook payloads. The key is
// derived from an externally supplied secret, never a literal constant.
type KeyProvider interface {
	PayloadKey() []byte
}

// ResponseCache is the Redis-layer replay cache for idempotent responses
// (fast path in front of the reference lookup).
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// PaymentService drives the reservation->settlement lifecycle.
type PaymentService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error)
	CompletePayment(ctx context.Context, reference string) (*PaymentResult, error)
	FailPayment(ctx context.Context, reference string, reason string) (*PaymentResult, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]domain.Event, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Reference  string
	WebhookURL *string
}

// PaymentResult is the use-case response shared by create/complete/fail.
type PaymentResult struct {
	PaymentID   uuid.UUID  `json:"payment_id"`
	Status      string     `json:"status"`
	Reference   string     `json:"reference"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ReconciliationService scans payments, verifies the global ledger invariant
// and persists a snapshot. An imbalance is reported, never an abort.
type ReconciliationService interface {
	Reconcile(ctx context.Context) (*domain.ReconciliationSnapshot, error)
	LatestSnapshot(ctx context.Context) (*domain.ReconciliationSnapshot, error)
	History(ctx context.Context, days int) ([]*domain.ReconciliationSnapshot, error)
}

// WebhookService exposes deliveries due for retry and records attempt
// outcomes. The HTTP dispatcher that actually sends notifications lives
// outside this module.
type WebhookService interface {
	PendingDeliveries(ctx context.Context) ([]domain.WebhookDelivery, error)
	RecordAttempt(ctx context.Context, paymentID uuid.UUID, successful bool) (*domain.WebhookDelivery, error)
	DecodeNotification(ctx context.Context, paymentID uuid.UUID) (string, error)
}
