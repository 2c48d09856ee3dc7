package postgres

import (
	"context"
	"testing"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *domain.Payment {
	t.Helper()
	amount, err := domain.NewPositiveMoney(50000, "USD")
	require.NoError(t, err)
	ref, err := domain.NewPaymentReference("ORDER-001")
	require.NoError(t, err)
	p, err := domain.NewPayment(uuid.New(), amount, ref, nil)
	require.NoError(t, err)
	_, err = p.ReserveFunds()
	require.NoError(t, err)
	p.ClearPendingEvents()
	return p
}

func paymentColumnNames() []string {
	return []string{"id", "merchant_id", "amount", "currency", "reference", "status",
		"created_at", "completed_at", "webhook_url", "retry_count", "failure_reason"}
}

func ledgerColumnNames() []string {
	return []string{"id", "payment_id", "account", "debit", "credit", "created_at", "transaction_hash"}
}

func paymentRow(p *domain.Payment) *pgxmock.Rows {
	return pgxmock.NewRows(paymentColumnNames()).AddRow(
		p.ID, p.MerchantID, p.Amount.Amount, p.Amount.Currency, p.Reference.String(),
		p.Status, p.CreatedAt, p.CompletedAt, p.WebhookURL, p.RetryCount, p.FailureReason,
	)
}

func ledgerRows(p *domain.Payment) *pgxmock.Rows {
	rows := pgxmock.NewRows(ledgerColumnNames())
	for _, e := range p.LedgerEntries {
		rows.AddRow(e.ID, e.PaymentID, e.Account, e.Debit, e.Credit, e.CreatedAt, e.TransactionHash)
	}
	return rows
}

func TestPaymentRepo_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(t)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.MerchantID, p.Amount.Amount, p.Amount.Currency, p.Reference.String(),
			p.Status, p.CreatedAt, p.CompletedAt, p.WebhookURL, p.RetryCount, p.FailureReason).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, e := range p.LedgerEntries {
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(e.ID, e.PaymentID, e.Account, e.Debit, e.Credit, e.CreatedAt, e.TransactionHash).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	err = repo.Add(context.Background(), tx, p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Update_AppendsNewEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(t)
	_, err = p.MarkCompleted()
	require.NoError(t, err)
	p.ClearPendingEvents()

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("UPDATE payments SET").
		WithArgs(p.Status, p.CompletedAt, p.RetryCount, p.FailureReason, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// All four entries re-sent; ON CONFLICT drops the two already stored
	for _, e := range p.LedgerEntries {
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(e.ID, e.PaymentID, e.Account, e.Debit, e.Credit, e.CreatedAt, e.TransactionHash).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	err = repo.Update(context.Background(), tx, p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Update_MissingPayment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(t)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("UPDATE payments SET").
		WithArgs(p.Status, p.CompletedAt, p.RetryCount, p.FailureReason, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), tx, p)
	assert.Error(t, err)
}

func TestPaymentRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(t)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE reference").
		WithArgs(p.Reference.String()).
		WillReturnRows(paymentRow(p))
	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE payment_id").
		WithArgs(p.ID).
		WillReturnRows(ledgerRows(p))

	result, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.Amount, result.Amount)
	require.Len(t, result.LedgerEntries, 2)
	assert.True(t, result.IsLedgerBalanced())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByReference_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE reference").
		WithArgs("MISSING").
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	result, err := repo.GetByReference(context.Background(), domain.PaymentReference("MISSING"))
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestPaymentRepo_GetByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	p := newTestPayment(t)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE status").
		WithArgs(domain.PaymentStatusPending).
		WillReturnRows(paymentRow(p))
	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE payment_id = ANY").
		WithArgs([]uuid.UUID{p.ID}).
		WillReturnRows(ledgerRows(p))

	result, err := repo.GetByStatus(context.Background(), domain.PaymentStatusPending)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, p.ID, result[0].ID)
	assert.Len(t, result[0].LedgerEntries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByStatus_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE status").
		WithArgs(domain.PaymentStatusFailed).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()))

	result, err := repo.GetByStatus(context.Background(), domain.PaymentStatusFailed)
	assert.NoError(t, err)
	assert.Nil(t, result)
}
