package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[uuid.UUID]*domain.Payment)}
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	c.LedgerEntries = append([]domain.LedgerEntry(nil), p.LedgerEntries...)
	// The real repo persists only columns; the in-memory domain event buffer
	// must not survive a round-trip through storage.
	c.ClearPendingEvents()
	return &c
}

func (r *inMemoryPaymentRepo) Add(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.Reference == p.Reference {
			return fmt.Errorf("reference already exists")
		}
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *inMemoryPaymentRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return fmt.Errorf("payment not found")
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *inMemoryPaymentRepo) GetByReference(ctx context.Context, reference domain.PaymentReference) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.Reference == reference {
			return clonePayment(p), nil
		}
	}
	return nil, nil
}

func (r *inMemoryPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	return clonePayment(p), nil
}

func (r *inMemoryPaymentRepo) GetByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.Status == status {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *inMemoryPaymentRepo) GetPending(ctx context.Context) ([]*domain.Payment, error) {
	return r.GetByStatus(ctx, domain.PaymentStatusPending)
}

// --- In-Memory Webhook Repo ---

type inMemoryWebhookRepo struct {
	mu         sync.RWMutex
	aggregates map[uuid.UUID]*domain.WebhookAggregate // keyed by payment ID
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{aggregates: make(map[uuid.UUID]*domain.WebhookAggregate)}
}

func cloneAggregate(a *domain.WebhookAggregate) *domain.WebhookAggregate {
	c := *a
	c.Deliveries = append([]domain.WebhookDelivery(nil), a.Deliveries...)
	return &c
}

func (r *inMemoryWebhookRepo) Add(ctx context.Context, tx pgx.Tx, a *domain.WebhookAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[a.PaymentID] = cloneAggregate(a)
	return nil
}

func (r *inMemoryWebhookRepo) Update(ctx context.Context, a *domain.WebhookAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aggregates[a.PaymentID]; !ok {
		return fmt.Errorf("webhook aggregate not found")
	}
	r.aggregates[a.PaymentID] = cloneAggregate(a)
	return nil
}

func (r *inMemoryWebhookRepo) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.WebhookAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aggregates[paymentID]
	if !ok {
		return nil, nil
	}
	return cloneAggregate(a), nil
}

func (r *inMemoryWebhookRepo) GetWithPendingDeliveries(ctx context.Context) ([]*domain.WebhookAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now().UTC()
	var out []*domain.WebhookAggregate
	for _, a := range r.aggregates {
		if len(a.PendingDeliveries(now)) > 0 {
			out = append(out, cloneAggregate(a))
		}
	}
	return out, nil
}

// --- In-Memory Event Store ---

type storedEvent struct {
	aggregateID uuid.UUID
	event       domain.Event
}

type inMemoryEventStore struct {
	mu     sync.RWMutex
	events []storedEvent // append order preserved
}

func newInMemoryEventStore() *inMemoryEventStore {
	return &inMemoryEventStore{}
}

func (s *inMemoryEventStore) Append(ctx context.Context, tx pgx.Tx, aggregateID uuid.UUID, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, storedEvent{aggregateID: aggregateID, event: event})
	return nil
}

func (s *inMemoryEventStore) GetEvents(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Event
	for _, e := range s.events {
		if e.aggregateID == aggregateID {
			out = append(out, e.event)
		}
	}
	return out, nil
}

func (s *inMemoryEventStore) GetEventsByType(ctx context.Context, eventType string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Event
	for _, e := range s.events {
		if e.event.EventType() == eventType {
			out = append(out, e.event)
		}
	}
	return out, nil
}

// --- In-Memory Reconciliation Repo ---

type inMemoryReconciliationRepo struct {
	mu        sync.RWMutex
	snapshots []*domain.ReconciliationSnapshot
}

func newInMemoryReconciliationRepo() *inMemoryReconciliationRepo {
	return &inMemoryReconciliationRepo{}
}

func (r *inMemoryReconciliationRepo) AddSnapshot(ctx context.Context, s *domain.ReconciliationSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *inMemoryReconciliationRepo) GetLatest(ctx context.Context) (*domain.ReconciliationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.snapshots) == 0 {
		return nil, nil
	}
	return r.snapshots[len(r.snapshots)-1], nil
}

func (r *inMemoryReconciliationRepo) GetHistory(ctx context.Context, days int) ([]*domain.ReconciliationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var out []*domain.ReconciliationSnapshot
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if r.snapshots[i].CreatedAt.After(cutoff) {
			out = append(out, r.snapshots[i])
		}
	}
	return out, nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
