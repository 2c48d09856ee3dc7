package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ReconciliationRepo implements ports.ReconciliationRepository. Snapshot rows
// are insert-only.
type ReconciliationRepo struct {
	pool Pool
}

// NewReconciliationRepo creates a new ReconciliationRepo.
func NewReconciliationRepo(pool Pool) *ReconciliationRepo {
	return &ReconciliationRepo{pool: pool}
}

const snapshotColumns = `id, total_payments, pending_payments, completed_payments, failed_payments,
	customer_balance, clearing_balance, merchant_balance, is_balanced, notes, created_at`

// AddSnapshot inserts a snapshot.
func (r *ReconciliationRepo) AddSnapshot(ctx context.Context, s *domain.ReconciliationSnapshot) error {
	query := `INSERT INTO reconciliation_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.TotalPayments, s.PendingPayments, s.CompletedPayments, s.FailedPayments,
		s.CustomerBalance, s.ClearingBalance, s.MerchantBalance, s.IsBalanced, s.Notes, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetLatest fetches the most recent snapshot, or nil.
func (r *ReconciliationRepo) GetLatest(ctx context.Context) (*domain.ReconciliationSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM reconciliation_snapshots
		ORDER BY created_at DESC LIMIT 1`

	s := &domain.ReconciliationSnapshot{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.ID, &s.TotalPayments, &s.PendingPayments, &s.CompletedPayments, &s.FailedPayments,
		&s.CustomerBalance, &s.ClearingBalance, &s.MerchantBalance, &s.IsBalanced, &s.Notes, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return s, nil
}

// GetHistory fetches snapshots recorded over the last N days, newest first.
func (r *ReconciliationRepo) GetHistory(ctx context.Context, days int) ([]*domain.ReconciliationSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM reconciliation_snapshots
		WHERE created_at >= NOW() - make_interval(days => $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.ReconciliationSnapshot
	for rows.Next() {
		s := &domain.ReconciliationSnapshot{}
		err := rows.Scan(
			&s.ID, &s.TotalPayments, &s.PendingPayments, &s.CompletedPayments, &s.FailedPayments,
			&s.CustomerBalance, &s.ClearingBalance, &s.MerchantBalance, &s.IsBalanced, &s.Notes, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}
