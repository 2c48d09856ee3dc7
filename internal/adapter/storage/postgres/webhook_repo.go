package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookRepo implements ports.WebhookRepository over the webhooks and
// webhook_deliveries tables. Delivery rows are upserted by id so Update can
// persist both newly added deliveries and attempt outcomes.
type WebhookRepo struct {
	pool Pool
}

// NewWebhookRepo creates a new WebhookRepo.
func NewWebhookRepo(pool Pool) *WebhookRepo {
	return &WebhookRepo{pool: pool}
}

const deliveryColumns = `id, webhook_id, payment_id, url, ciphertext, nonce, tag,
	retry_count, last_attempt_at, is_successful, created_at, next_retry_at`

const upsertDeliveryQuery = `INSERT INTO webhook_deliveries (` + deliveryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		retry_count = EXCLUDED.retry_count,
		last_attempt_at = EXCLUDED.last_attempt_at,
		is_successful = EXCLUDED.is_successful,
		next_retry_at = EXCLUDED.next_retry_at`

// Add inserts a new aggregate and its deliveries within a database transaction.
func (r *WebhookRepo) Add(ctx context.Context, tx pgx.Tx, agg *domain.WebhookAggregate) error {
	query := `INSERT INTO webhooks (id, payment_id, created_at) VALUES ($1, $2, $3)`

	if _, err := tx.Exec(ctx, query, agg.ID, agg.PaymentID, agg.CreatedAt); err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}

	for _, d := range agg.Deliveries {
		if _, err := tx.Exec(ctx, upsertDeliveryQuery, deliveryArgs(agg.ID, d)...); err != nil {
			return fmt.Errorf("insert webhook delivery: %w", err)
		}
	}
	return nil
}

// Update persists the aggregate's delivery state.
func (r *WebhookRepo) Update(ctx context.Context, agg *domain.WebhookAggregate) error {
	for _, d := range agg.Deliveries {
		if _, err := r.pool.Exec(ctx, upsertDeliveryQuery, deliveryArgs(agg.ID, d)...); err != nil {
			return fmt.Errorf("upsert webhook delivery: %w", err)
		}
	}
	return nil
}

// GetByPaymentID fetches the payment's aggregate with its deliveries, or nil.
func (r *WebhookRepo) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.WebhookAggregate, error) {
	query := `SELECT id, payment_id, created_at FROM webhooks WHERE payment_id = $1`

	agg := &domain.WebhookAggregate{}
	err := r.pool.QueryRow(ctx, query, paymentID).Scan(&agg.ID, &agg.PaymentID, &agg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan webhook: %w", err)
	}

	if err := r.loadDeliveries(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// GetWithPendingDeliveries fetches every aggregate holding at least one
// delivery that is unattempted or due for retry. The SQL predicate mirrors
// the domain's ShouldRetry; the service re-filters through the domain anyway.
func (r *WebhookRepo) GetWithPendingDeliveries(ctx context.Context) ([]*domain.WebhookAggregate, error) {
	query := `SELECT w.id, w.payment_id, w.created_at FROM webhooks w
		WHERE EXISTS (
			SELECT 1 FROM webhook_deliveries d
			WHERE d.webhook_id = w.id
			AND NOT d.is_successful
			AND (d.last_attempt_at IS NULL OR d.next_retry_at <= NOW())
		)
		ORDER BY w.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending webhooks: %w", err)
	}
	defer rows.Close()

	var aggs []*domain.WebhookAggregate
	for rows.Next() {
		agg := &domain.WebhookAggregate{}
		if err := rows.Scan(&agg.ID, &agg.PaymentID, &agg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook row: %w", err)
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook rows: %w", err)
	}

	for _, agg := range aggs {
		if err := r.loadDeliveries(ctx, agg); err != nil {
			return nil, err
		}
	}
	return aggs, nil
}

func (r *WebhookRepo) loadDeliveries(ctx context.Context, agg *domain.WebhookAggregate) error {
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries
		WHERE webhook_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, agg.ID)
	if err != nil {
		return fmt.Errorf("query webhook deliveries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d         domain.WebhookDelivery
			webhookID uuid.UUID
		)
		err := rows.Scan(
			&d.ID, &webhookID, &d.PaymentID, &d.URL,
			&d.Payload.Ciphertext, &d.Payload.Nonce, &d.Payload.Tag,
			&d.RetryCount, &d.LastAttemptAt, &d.IsSuccessful, &d.CreatedAt, &d.NextRetryAt,
		)
		if err != nil {
			return fmt.Errorf("scan webhook delivery: %w", err)
		}
		agg.Deliveries = append(agg.Deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate webhook delivery rows: %w", err)
	}
	return nil
}

func deliveryArgs(webhookID uuid.UUID, d domain.WebhookDelivery) []any {
	return []any{
		d.ID, webhookID, d.PaymentID, d.URL,
		d.Payload.Ciphertext, d.Payload.Nonce, d.Payload.Tag,
		d.RetryCount, d.LastAttemptAt, d.IsSuccessful, d.CreatedAt, d.NextRetryAt,
	}
}
