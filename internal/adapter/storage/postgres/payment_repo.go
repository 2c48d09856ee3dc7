package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo implements ports.PaymentRepository. A payment row and its
// ledger entry rows are always written together; entries are append-only and
// inserted idempotently so replays of Update never duplicate postings.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, merchant_id, amount, currency, reference, status,
	created_at, completed_at, webhook_url, retry_count, failure_reason`

// Add inserts a new payment and its ledger entries within a database transaction.
func (r *PaymentRepo) Add(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.MerchantID, p.Amount.Amount, p.Amount.Currency, p.Reference.String(),
		p.Status, p.CreatedAt, p.CompletedAt, p.WebhookURL, p.RetryCount, p.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return r.insertLedgerEntries(ctx, tx, p.LedgerEntries)
}

// Update rewrites the payment's mutable columns and appends any ledger entries
// not yet persisted.
func (r *PaymentRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `UPDATE payments SET status = $1, completed_at = $2, retry_count = $3, failure_reason = $4
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query, p.Status, p.CompletedAt, p.RetryCount, p.FailureReason, p.ID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found: %s", p.ID)
	}

	return r.insertLedgerEntries(ctx, tx, p.LedgerEntries)
}

func (r *PaymentRepo) insertLedgerEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, payment_id, account, debit, credit, created_at, transaction_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	for _, e := range entries {
		_, err := tx.Exec(ctx, query,
			e.ID, e.PaymentID, e.Account, e.Debit, e.Credit, e.CreatedAt, e.TransactionHash,
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return nil
}

// GetByReference fetches a payment by its idempotency reference.
func (r *PaymentRepo) GetByReference(ctx context.Context, reference domain.PaymentReference) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	p, err := r.scanPayment(r.pool.QueryRow(ctx, query, reference.String()))
	if err != nil || p == nil {
		return nil, err
	}
	if err := r.loadLedgerEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID fetches a payment by UUID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := r.scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil || p == nil {
		return nil, err
	}
	if err := r.loadLedgerEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByStatus fetches all payments in the given status, ledger entries included.
func (r *PaymentRepo) GetByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("query payments by status: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	byID := map[uuid.UUID]*domain.Payment{}
	for rows.Next() {
		p, err := r.scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	if len(payments) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}

	entryRows, err := r.pool.Query(ctx,
		`SELECT id, payment_id, account, debit, credit, created_at, transaction_hash
		FROM ledger_entries WHERE payment_id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var e domain.LedgerEntry
		if err := entryRows.Scan(&e.ID, &e.PaymentID, &e.Account, &e.Debit, &e.Credit, &e.CreatedAt, &e.TransactionHash); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if p, ok := byID[e.PaymentID]; ok {
			p.LedgerEntries = append(p.LedgerEntries, e)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entry rows: %w", err)
	}

	return payments, nil
}

// GetPending fetches all payments still awaiting settlement or failure.
func (r *PaymentRepo) GetPending(ctx context.Context) ([]*domain.Payment, error) {
	return r.GetByStatus(ctx, domain.PaymentStatusPending)
}

func (r *PaymentRepo) loadLedgerEntries(ctx context.Context, p *domain.Payment) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, payment_id, account, debit, credit, created_at, transaction_hash
		FROM ledger_entries WHERE payment_id = $1 ORDER BY created_at, id`, p.ID)
	if err != nil {
		return fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Account, &e.Debit, &e.Credit, &e.CreatedAt, &e.TransactionHash); err != nil {
			return fmt.Errorf("scan ledger entry: %w", err)
		}
		p.LedgerEntries = append(p.LedgerEntries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ledger entry rows: %w", err)
	}
	return nil
}

func (r *PaymentRepo) scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	var reference string
	err := row.Scan(
		&p.ID, &p.MerchantID, &p.Amount.Amount, &p.Amount.Currency, &reference,
		&p.Status, &p.CreatedAt, &p.CompletedAt, &p.WebhookURL, &p.RetryCount, &p.FailureReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.Reference = domain.PaymentReference(reference)
	return p, nil
}

func (r *PaymentRepo) scanPaymentRow(rows pgx.Rows) (*domain.Payment, error) {
	p := &domain.Payment{}
	var reference string
	err := rows.Scan(
		&p.ID, &p.MerchantID, &p.Amount.Amount, &p.Amount.Currency, &reference,
		&p.Status, &p.CreatedAt, &p.CompletedAt, &p.WebhookURL, &p.RetryCount, &p.FailureReason,
	)
	if err != nil {
		return nil, fmt.Errorf("scan payment row: %w", err)
	}
	p.Reference = domain.PaymentReference(reference)
	return p, nil
}
