package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

import (
	"context"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepository defines persistence operations for the Payment aggregate,
// including its owned ledger entries. Write methods take pgx.Tx so the
// aggregate save and the event append commit in the same transaction.
type PaymentRepository interface {
	Add(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByReference(ctx context.Context, reference domain.PaymentReference) (*domain.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	GetPending(ctx context.Context) ([]*domain.Payment, error)
}

// WebhookRepository defines persistence operations for webhook aggregates.
type WebhookRepository interface {
	Add(ctx context.Context, tx pgx.Tx, aggregate *domain.WebhookAggregate) error
	Update(ctx context.Context, aggregate *domain.WebhookAggregate) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.WebhookAggregate, error)
	// GetWithPendingDeliveries returns aggregates holding at least one delivery
	// that is due per ShouldRetry. This is the feed for the external dispatcher.
	GetWithPendingDeliveries(ctx context.Context) ([]*domain.WebhookAggregate, error)
}

// EventStore is the append-only, type-tagged log of domain events. Append
// participates in the caller's transaction; rows are never overwritten.
type EventStore interface {
	Append(ctx context.Context, tx pgx.Tx, aggregateID uuid.UUID, event domain.Event) error
	GetEvents(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error)
	GetEventsByType(ctx context.Context, eventType string) ([]domain.Event, error)
}

// ReconciliationRepository persists reconciliation snapshots.
type ReconciliationRepository interface {
	AddSnapshot(ctx context.Context, snapshot *domain.ReconciliationSnapshot) error
	GetLatest(ctx context.Context) (*domain.ReconciliationSnapshot, error)
	GetHistory(ctx context.Context, days int) ([]*domain.ReconciliationSnapshot, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
