package service

import (
	"context"
	"testing"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"
	"github.com/CS-Programmer254/FinLedger/internal/core/ports/mocks"
	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type webhookTestDeps struct {
	svc         *WebhookServiceImpl
	webhookRepo *mocks.MockWebhookRepository
	keys        *mocks.MockKeyProvider
	ctrl        *gomock.Controller
}

func setupWebhookService(t *testing.T) *webhookTestDeps {
	ctrl := gomock.NewController(t)
	d := &webhookTestDeps{
		webhookRepo: mocks.NewMockWebhookRepository(ctrl),
		keys:        mocks.NewMockKeyProvider(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewWebhookService(d.webhookRepo, d.keys, domain.MaxDeliveryRetries, zerolog.Nop())
	return d
}

func aggregateWithDelivery(t *testing.T, key []byte, plaintext string) *domain.WebhookAggregate {
	t.Helper()
	payload, err := domain.EncryptPayload(plaintext, key)
	require.NoError(t, err)
	agg, err := domain.NewWebhookAggregate(uuid.New())
	require.NoError(t, err)
	_, err = agg.AddDelivery("https://merchant.example.com/hooks", payload)
	require.NoError(t, err)
	return agg
}

func TestWebhookService_PendingDeliveries(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := testPayloadKey()
	fresh := aggregateWithDelivery(t, key, `{"status":"COMPLETED"}`)
	done := aggregateWithDelivery(t, key, `{"status":"COMPLETED"}`)
	done.Deliveries[0].RecordAttempt(true, domain.MaxDeliveryRetries)

	d.webhookRepo.EXPECT().GetWithPendingDeliveries(ctx).
		Return([]*domain.WebhookAggregate{fresh, done}, nil)

	due, err := d.svc.PendingDeliveries(ctx)

	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, fresh.PaymentID, due[0].PaymentID)
}

func TestWebhookService_RecordAttempt_FailureSchedulesBackoff(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agg := aggregateWithDelivery(t, testPayloadKey(), `{"status":"COMPLETED"}`)

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)
	d.webhookRepo.EXPECT().Update(ctx, agg).Return(nil)

	before := time.Now().UTC()
	delivery, err := d.svc.RecordAttempt(ctx, agg.PaymentID, false)

	require.NoError(t, err)
	assert.Equal(t, 1, delivery.RetryCount)
	assert.False(t, delivery.IsSuccessful)
	require.NotNil(t, delivery.LastAttemptAt)
	require.NotNil(t, delivery.NextRetryAt)
	// First failure backs off 2^1 seconds
	assert.WithinDuration(t, before.Add(2*time.Second), *delivery.NextRetryAt, time.Second)
}

func TestWebhookService_RecordAttempt_SuccessClearsSchedule(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agg := aggregateWithDelivery(t, testPayloadKey(), `{"status":"COMPLETED"}`)
	agg.Deliveries[0].RecordAttempt(false, domain.MaxDeliveryRetries)

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)
	d.webhookRepo.EXPECT().Update(ctx, agg).Return(nil)

	delivery, err := d.svc.RecordAttempt(ctx, agg.PaymentID, true)

	require.NoError(t, err)
	assert.True(t, delivery.IsSuccessful)
	assert.Nil(t, delivery.NextRetryAt)
	assert.Equal(t, 2, delivery.RetryCount)
	assert.True(t, agg.HasSuccessfulDelivery())
}

func TestWebhookService_RecordAttempt_ExhaustionStopsRetries(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agg := aggregateWithDelivery(t, testPayloadKey(), `{"status":"COMPLETED"}`)
	for i := 0; i < domain.MaxDeliveryRetries-1; i++ {
		agg.Deliveries[0].RecordAttempt(false, domain.MaxDeliveryRetries)
	}

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)
	d.webhookRepo.EXPECT().Update(ctx, agg).Return(nil)

	delivery, err := d.svc.RecordAttempt(ctx, agg.PaymentID, false)

	require.NoError(t, err)
	assert.Equal(t, domain.MaxDeliveryRetries, delivery.RetryCount)
	assert.Nil(t, delivery.NextRetryAt)
	assert.False(t, delivery.ShouldRetry(time.Now().UTC().Add(time.Hour)))
}

func TestWebhookService_RecordAttempt_NotFound(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	paymentID := uuid.New()
	d.webhookRepo.EXPECT().GetByPaymentID(ctx, paymentID).Return(nil, nil)

	_, err := d.svc.RecordAttempt(ctx, paymentID, true)

	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestWebhookService_RecordAttempt_AlreadySucceeded(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agg := aggregateWithDelivery(t, testPayloadKey(), `{"status":"COMPLETED"}`)
	agg.Deliveries[0].RecordAttempt(true, domain.MaxDeliveryRetries)

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)

	_, err := d.svc.RecordAttempt(ctx, agg.PaymentID, true)

	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestWebhookService_DecodeNotification_RoundTrip(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := testPayloadKey()
	plaintext := `{"paymentId":"abc","status":"COMPLETED"}`
	agg := aggregateWithDelivery(t, key, plaintext)

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)
	d.keys.EXPECT().PayloadKey().Return(key)

	got, err := d.svc.DecodeNotification(ctx, agg.PaymentID)

	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestWebhookService_DecodeNotification_WrongKeyFailsIntegrity(t *testing.T) {
	d := setupWebhookService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	agg := aggregateWithDelivery(t, testPayloadKey(), `{"status":"COMPLETED"}`)
	wrongKey := make([]byte, 32)

	d.webhookRepo.EXPECT().GetByPaymentID(ctx, agg.PaymentID).Return(agg, nil)
	d.keys.EXPECT().PayloadKey().Return(wrongKey)

	_, err := d.svc.DecodeNotification(ctx, agg.PaymentID)

	assert.True(t, apperror.IsCode(err, apperror.CodeIntegrity))
}
