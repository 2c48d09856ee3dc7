package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const resultCacheTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	paymentRepo ports.PaymentRepository
	webhookRepo ports.WebhookRepository
	eventStore  ports.EventStore
	cache       ports.ResponseCache
	keys        ports.KeyProvider
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	paymentRepo ports.PaymentRepository,
	webhookRepo ports.WebhookRepository,
	eventStore ports.EventStore,
	cache ports.ResponseCache,
	keys ports.KeyProvider,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		webhookRepo: webhookRepo,
		eventStore:  eventStore,
		cache:       cache,
		keys:        keys,
		transactor:  transactor,
		log:         log,
	}
}

// paymentNotification is the plaintext webhook body, sealed before it ever
// leaves this service.
type paymentNotification struct {
	PaymentID   uuid.UUID  `json:"paymentId"`
	Status      string     `json:"status"`
	Reference   string     `json:"reference"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreatePayment creates a Pending payment with its funds reservation posted.
// The reference is the idempotency key: a replay returns the stored payment
// untouched, whatever its current status.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req ports.CreatePaymentRequest) (*ports.PaymentResult, error) {
	amount, err := domain.NewPositiveMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	reference, err := domain.NewPaymentReference(req.Reference)
	if err != nil {
		return nil, err
	}

	cacheKey := resultCacheKey(reference)

	// Layer 1: Redis replay check
	cached, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("redis replay check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedResult(cached)
	}

	// Layer 2: DB replay check
	existing, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup reference: %w", err))
	}
	if existing != nil {
		return toResult(existing), nil
	}

	payment, err := domain.NewPayment(req.MerchantID, amount, reference, req.WebhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := payment.ReserveFunds(); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.paymentRepo.Add(ctx, dbTx, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save payment: %w", err))
	}
	for _, ev := range payment.PendingEvents() {
		if err := s.eventStore.Append(ctx, dbTx, payment.ID, ev); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append event %s: %w", ev.EventType(), err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	payment.ClearPendingEvents()

	result := toResult(payment)

	// Post-process: cache in Redis (best-effort)
	s.refreshResultCache(ctx, reference, result)

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Str("reference", reference.String()).
		Int64("amount", amount.Amount).
		Msg("payment created, funds reserved")

	return result, nil
}

// CompletePayment settles a pending payment and, when a webhook URL is
// registered, schedules the encrypted completion notification in the same
// database transaction. Completing an already completed payment replays the
// stored result.
func (s *PaymentServiceImpl) CompletePayment(ctx context.Context, reference string) (*ports.PaymentResult, error) {
	ref, err := domain.NewPaymentReference(reference)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByReference(ctx, ref)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup reference: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return toResult(payment), nil
	}

	if _, err := payment.MarkCompleted(); err != nil {
		return nil, err
	}

	// Webhook scheduling happens before the transaction so an encryption
	// failure aborts the whole completion instead of settling silently.
	var webhookAgg *domain.WebhookAggregate
	if payment.WebhookURL != nil {
		webhookAgg, err = s.buildCompletionWebhook(payment)
		if err != nil {
			return nil, err
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.paymentRepo.Update(ctx, dbTx, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update payment: %w", err))
	}
	for _, ev := range payment.PendingEvents() {
		if err := s.eventStore.Append(ctx, dbTx, payment.ID, ev); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append event %s: %w", ev.EventType(), err))
		}
	}
	if webhookAgg != nil {
		if err := s.webhookRepo.Add(ctx, dbTx, webhookAgg); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save webhook: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	payment.ClearPendingEvents()

	result := toResult(payment)
	s.refreshResultCache(ctx, ref, result)

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("reference", ref.String()).
		Bool("webhook_scheduled", webhookAgg != nil).
		Msg("payment completed, funds settled")

	return result, nil
}

// FailPayment marks a pending payment failed with the given reason. Failing an
// already failed payment replays the stored result.
func (s *PaymentServiceImpl) FailPayment(ctx context.Context, reference string, reason string) (*ports.PaymentResult, error) {
	ref, err := domain.NewPaymentReference(reference)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByReference(ctx, ref)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup reference: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	if payment.Status == domain.PaymentStatusFailed {
		return toResult(payment), nil
	}

	if _, err := payment.MarkFailed(reason); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.paymentRepo.Update(ctx, dbTx, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update payment: %w", err))
	}
	for _, ev := range payment.PendingEvents() {
		if err := s.eventStore.Append(ctx, dbTx, payment.ID, ev); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append event %s: %w", ev.EventType(), err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	payment.ClearPendingEvents()

	result := toResult(payment)
	s.refreshResultCache(ctx, ref, result)

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("reference", ref.String()).
		Str("reason", reason).
		Msg("payment failed")

	return result, nil
}

// GetPayment fetches a payment with its ledger entries.
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	return payment, nil
}

// GetPaymentEvents returns the payment's event history in append order.
func (s *PaymentServiceImpl) GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	events, err := s.eventStore.GetEvents(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load events: %w", err))
	}
	return events, nil
}

// buildCompletionWebhook seals the completion notification and wraps it in a
// fresh aggregate holding one unattempted delivery.
func (s *PaymentServiceImpl) buildCompletionWebhook(payment *domain.Payment) (*domain.WebhookAggregate, error) {
	notification := paymentNotification{
		PaymentID:   payment.ID,
		Status:      string(payment.Status),
		Reference:   payment.Reference.String(),
		Amount:      payment.Amount.Amount,
		Currency:    payment.Amount.Currency,
		CompletedAt: payment.CompletedAt,
	}
	plaintext, err := json.Marshal(notification)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal notification: %w", err))
	}

	payload, err := domain.EncryptPayload(string(plaintext), s.keys.PayloadKey())
	if err != nil {
		return nil, err
	}

	agg, err := domain.NewWebhookAggregate(payment.ID)
	if err != nil {
		return nil, err
	}
	if _, err := agg.AddDelivery(*payment.WebhookURL, payload); err != nil {
		return nil, err
	}
	return agg, nil
}

// refreshResultCache stores the latest lifecycle result under the reference
// key so replayed creates observe terminal status, not the stale pending one.
func (s *PaymentServiceImpl) refreshResultCache(ctx context.Context, ref domain.PaymentReference, result *ports.PaymentResult) {
	respJSON, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := resultCacheKey(ref)
	if err := s.cache.Set(ctx, key, respJSON, resultCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache payment result in redis")
	}
}

func toResult(p *domain.Payment) *ports.PaymentResult {
	return &ports.PaymentResult{
		PaymentID:   p.ID,
		Status:      string(p.Status),
		Reference:   p.Reference.String(),
		Amount:      p.Amount.Amount,
		Currency:    p.Amount.Currency,
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}
}

func resultCacheKey(ref domain.PaymentReference) string {
	return "payment:result:" + ref.String()
}

func unmarshalCachedResult(data []byte) (*ports.PaymentResult, error) {
	var result ports.PaymentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return &result, nil
}
