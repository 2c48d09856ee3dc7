package service

import (
	"context"
	"fmt"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/rs/zerolog"
)

// ReconciliationServiceImpl implements ports.ReconciliationService.
type ReconciliationServiceImpl struct {
	paymentRepo ports.PaymentRepository
	reconRepo   ports.ReconciliationRepository
	log         zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	paymentRepo ports.PaymentRepository,
	reconRepo ports.ReconciliationRepository,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		paymentRepo: paymentRepo,
		reconRepo:   reconRepo,
		log:         log,
	}
}

// Reconcile scans every payment, sums the global account balances and
// persists a snapshot. An imbalance is recorded and reported, never an abort:
// the snapshot is the alarm, not the fix.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context) (*domain.ReconciliationSnapshot, error) {
	var (
		counts                       = map[domain.PaymentStatus]int{}
		customer, clearing, merchant int64
	)

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusCompleted,
		domain.PaymentStatusFailed,
	} {
		payments, err := s.paymentRepo.GetByStatus(ctx, status)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("scan %s payments: %w", status, err))
		}
		counts[status] = len(payments)
		for _, p := range payments {
			customer += p.GetAccountBalance(domain.AccountCustomer)
			clearing += p.GetAccountBalance(domain.AccountClearing)
			merchant += p.GetAccountBalance(domain.AccountMerchant)
		}
	}

	snapshot := domain.NewReconciliationSnapshot(
		counts[domain.PaymentStatusPending],
		counts[domain.PaymentStatusCompleted],
		counts[domain.PaymentStatusFailed],
		customer, clearing, merchant,
	)

	if err := s.reconRepo.AddSnapshot(ctx, snapshot); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save snapshot: %w", err))
	}

	if snapshot.IsBalanced {
		s.log.Info().
			Int("total_payments", snapshot.TotalPayments).
			Msg("reconciliation complete, ledger balanced")
	} else {
		s.log.Warn().
			Int("total_payments", snapshot.TotalPayments).
			Int64("customer_balance", snapshot.CustomerBalance).
			Int64("clearing_balance", snapshot.ClearingBalance).
			Int64("merchant_balance", snapshot.MerchantBalance).
			Msg("reconciliation detected ledger imbalance")
	}

	return snapshot, nil
}

// LatestSnapshot returns the most recent snapshot.
func (s *ReconciliationServiceImpl) LatestSnapshot(ctx context.Context) (*domain.ReconciliationSnapshot, error) {
	snapshot, err := s.reconRepo.GetLatest(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load latest snapshot: %w", err))
	}
	if snapshot == nil {
		return nil, apperror.ErrNotFound("reconciliation snapshot")
	}
	return snapshot, nil
}

// History returns the snapshots recorded over the last N days, newest first.
func (s *ReconciliationServiceImpl) History(ctx context.Context, days int) ([]*domain.ReconciliationSnapshot, error) {
	if days <= 0 {
		return nil, apperror.Validation("days must be positive")
	}
	snapshots, err := s.reconRepo.GetHistory(ctx, days)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load snapshot history: %w", err))
	}
	return snapshots, nil
}
