package dto

// CreatePaymentRequest is the request body for payment creation.
type CreatePaymentRequest struct {
	MerchantID string  `json:"merchant_id" binding:"required,uuid"`
	Amount     int64   `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"required,len=3"`
	Reference  string  `json:"reference" binding:"required,max=50"`
	WebhookURL *string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// FailPaymentRequest is the request body for marking a payment failed.
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RecordAttemptRequest is the request body for recording a webhook dispatch outcome.
type RecordAttemptRequest struct {
	Successful *bool `json:"successful" binding:"required"`
}

// PaymentResponse is the response body for payment lifecycle operations.
type PaymentResponse struct {
	PaymentID   string  `json:"payment_id"`
	Status      string  `json:"status"`
	Reference   string  `json:"reference"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// LedgerEntryResponse is one double-entry posting.
type LedgerEntryResponse struct {
	ID              string `json:"id"`
	Account         string `json:"account"`
	Debit           int64  `json:"debit"`
	Credit          int64  `json:"credit"`
	CreatedAt       string `json:"created_at"`
	TransactionHash string `json:"transaction_hash"`
}

// PaymentDetailResponse is the response body for payment lookup, ledger included.
type PaymentDetailResponse struct {
	PaymentResponse
	MerchantID    string                `json:"merchant_id"`
	WebhookURL    *string               `json:"webhook_url,omitempty"`
	FailureReason *string               `json:"failure_reason,omitempty"`
	LedgerBalance bool                  `json:"ledger_balanced"`
	LedgerEntries []LedgerEntryResponse `json:"ledger_entries"`
}

// EventResponse is one entry of a payment's event history.
type EventResponse struct {
	EventType  string `json:"event_type"`
	OccurredAt string `json:"occurred_at"`
	Data       any    `json:"data"`
}

// SnapshotResponse is the response body for reconciliation snapshots.
type SnapshotResponse struct {
	ID                string `json:"id"`
	TotalPayments     int    `json:"total_payments"`
	PendingPayments   int    `json:"pending_payments"`
	CompletedPayments int    `json:"completed_payments"`
	FailedPayments    int    `json:"failed_payments"`
	CustomerBalance   int64  `json:"customer_balance"`
	ClearingBalance   int64  `json:"clearing_balance"`
	MerchantBalance   int64  `json:"merchant_balance"`
	IsBalanced        bool   `json:"is_balanced"`
	Notes             string `json:"notes"`
	CreatedAt         string `json:"created_at"`
}

// DeliveryResponse is one webhook delivery due for dispatch. The payload stays
// sealed; the dispatcher forwards ciphertext, nonce and tag as received.
type DeliveryResponse struct {
	ID            string  `json:"id"`
	PaymentID     string  `json:"payment_id"`
	URL           string  `json:"url"`
	Ciphertext    string  `json:"ciphertext"`
	Nonce         string  `json:"nonce"`
	Tag           string  `json:"tag"`
	RetryCount    int     `json:"retry_count"`
	LastAttemptAt *string `json:"last_attempt_at,omitempty"`
	IsSuccessful  bool    `json:"is_successful"`
	NextRetryAt   *string `json:"next_retry_at,omitempty"`
}

// NotificationResponse is a decoded webhook payload.
type NotificationResponse struct {
	PaymentID string `json:"payment_id"`
	Plaintext string `json:"plaintext"`
}
