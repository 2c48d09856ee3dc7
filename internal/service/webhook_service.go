package service

import (
	"context"
	"fmt"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService.
type WebhookServiceImpl struct {
	webhookRepo ports.WebhookRepository
	keys        ports.KeyProvider
	maxRetries  int
	log         zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl. maxRetries <= 0 falls
// back to the domain default.
func NewWebhookService(
	webhookRepo ports.WebhookRepository,
	keys ports.KeyProvider,
	maxRetries int,
	log zerolog.Logger,
) *WebhookServiceImpl {
	if maxRetries <= 0 {
		maxRetries = domain.MaxDeliveryRetries
	}
	return &WebhookServiceImpl{
		webhookRepo: webhookRepo,
		keys:        keys,
		maxRetries:  maxRetries,
		log:         log,
	}
}

// PendingDeliveries returns every delivery due now, across all aggregates.
// This is the feed for the external dispatcher.
func (s *WebhookServiceImpl) PendingDeliveries(ctx context.Context) ([]domain.WebhookDelivery, error) {
	aggregates, err := s.webhookRepo.GetWithPendingDeliveries(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("scan pending deliveries: %w", err))
	}

	now := time.Now().UTC()
	var due []domain.WebhookDelivery
	for _, agg := range aggregates {
		due = append(due, agg.PendingDeliveries(now)...)
	}
	return due, nil
}

// RecordAttempt registers the outcome of a dispatch attempt on the payment's
// latest delivery and persists the updated backoff schedule.
func (s *WebhookServiceImpl) RecordAttempt(ctx context.Context, paymentID uuid.UUID, successful bool) (*domain.WebhookDelivery, error) {
	agg, err := s.webhookRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup webhook: %w", err))
	}
	if agg == nil {
		return nil, apperror.ErrNotFound("webhook")
	}

	delivery := agg.GetLatestDelivery()
	if delivery == nil {
		return nil, apperror.ErrNotFound("webhook delivery")
	}
	if delivery.IsSuccessful {
		return nil, apperror.ErrInvalidState("delivery already succeeded")
	}

	delivery.RecordAttempt(successful, s.maxRetries)

	if err := s.webhookRepo.Update(ctx, agg); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update webhook: %w", err))
	}

	evt := s.log.Info()
	if !successful {
		evt = s.log.Warn()
	}
	evt.
		Str("payment_id", paymentID.String()).
		Str("delivery_id", delivery.ID.String()).
		Bool("successful", successful).
		Int("retry_count", delivery.RetryCount).
		Msg("webhook attempt recorded")

	return delivery, nil
}

// DecodeNotification opens the latest delivery's sealed payload. Used by
// operators to inspect what a merchant was (or will be) sent; an
// authentication failure means the stored payload was tampered with.
func (s *WebhookServiceImpl) DecodeNotification(ctx context.Context, paymentID uuid.UUID) (string, error) {
	agg, err := s.webhookRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("lookup webhook: %w", err))
	}
	if agg == nil {
		return "", apperror.ErrNotFound("webhook")
	}

	delivery := agg.GetLatestDelivery()
	if delivery == nil {
		return "", apperror.ErrNotFound("webhook delivery")
	}

	return delivery.Payload.Decrypt(s.keys.PayloadKey())
}
