package postgres

import (
	"bytes"
	"context"
	"testing"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregate(t *testing.T) *domain.WebhookAggregate {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	payload, err := domain.EncryptPayload(`{"status":"COMPLETED"}`, key)
	require.NoError(t, err)
	agg, err := domain.NewWebhookAggregate(uuid.New())
	require.NoError(t, err)
	_, err = agg.AddDelivery("https://merchant.example.com/hooks", payload)
	require.NoError(t, err)
	return agg
}

func deliveryColumnNames() []string {
	return []string{"id", "webhook_id", "payment_id", "url", "ciphertext", "nonce", "tag",
		"retry_count", "last_attempt_at", "is_successful", "created_at", "next_retry_at"}
}

func deliveryRows(agg *domain.WebhookAggregate) *pgxmock.Rows {
	rows := pgxmock.NewRows(deliveryColumnNames())
	for _, d := range agg.Deliveries {
		rows.AddRow(d.ID, agg.ID, d.PaymentID, d.URL,
			d.Payload.Ciphertext, d.Payload.Nonce, d.Payload.Tag,
			d.RetryCount, d.LastAttemptAt, d.IsSuccessful, d.CreatedAt, d.NextRetryAt)
	}
	return rows
}

func TestWebhookRepo_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	agg := newTestAggregate(t)
	d := agg.Deliveries[0]

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO webhooks").
		WithArgs(agg.ID, agg.PaymentID, agg.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs(d.ID, agg.ID, d.PaymentID, d.URL,
			d.Payload.Ciphertext, d.Payload.Nonce, d.Payload.Tag,
			d.RetryCount, d.LastAttemptAt, d.IsSuccessful, d.CreatedAt, d.NextRetryAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Add(context.Background(), tx, agg)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_Update_PersistsAttemptState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	agg := newTestAggregate(t)
	agg.Deliveries[0].RecordAttempt(false, domain.MaxDeliveryRetries)
	d := agg.Deliveries[0]

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs(d.ID, agg.ID, d.PaymentID, d.URL,
			d.Payload.Ciphertext, d.Payload.Nonce, d.Payload.Tag,
			d.RetryCount, d.LastAttemptAt, d.IsSuccessful, d.CreatedAt, d.NextRetryAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Update(context.Background(), agg)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_GetByPaymentID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	agg := newTestAggregate(t)

	mock.ExpectQuery("SELECT id, payment_id, created_at FROM webhooks WHERE payment_id").
		WithArgs(agg.PaymentID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "payment_id", "created_at"}).
			AddRow(agg.ID, agg.PaymentID, agg.CreatedAt))
	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries").
		WithArgs(agg.ID).
		WillReturnRows(deliveryRows(agg))

	result, err := repo.GetByPaymentID(context.Background(), agg.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, agg.ID, result.ID)
	require.Len(t, result.Deliveries, 1)
	assert.Equal(t, agg.Deliveries[0].Payload, result.Deliveries[0].Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_GetByPaymentID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	paymentID := uuid.New()

	mock.ExpectQuery("SELECT id, payment_id, created_at FROM webhooks WHERE payment_id").
		WithArgs(paymentID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "payment_id", "created_at"}))

	result, err := repo.GetByPaymentID(context.Background(), paymentID)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWebhookRepo_GetWithPendingDeliveries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	agg := newTestAggregate(t)

	mock.ExpectQuery("SELECT w.id, w.payment_id, w.created_at FROM webhooks w").
		WillReturnRows(pgxmock.NewRows([]string{"id", "payment_id", "created_at"}).
			AddRow(agg.ID, agg.PaymentID, agg.CreatedAt))
	mock.ExpectQuery("SELECT .+ FROM webhook_deliveries").
		WithArgs(agg.ID).
		WillReturnRows(deliveryRows(agg))

	result, err := repo.GetWithPendingDeliveries(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Len(t, result[0].Deliveries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
