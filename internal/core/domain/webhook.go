package domain

import (
	"math"
	"time"

	"github.com/CS-Programmer254/FinLedger/pkg/apperror"

	"github.com/google/uuid"
)

// MaxDeliveryRetries is the default attempt cap for a webhook delivery.
const MaxDeliveryRetries = 5

// WebhookAggregate owns the delivery history for one payment's notifications.
// At most one aggregate exists per payment.
type WebhookAggregate struct {
	ID         uuid.UUID         `json:"id"`
	PaymentID  uuid.UUID         `json:"payment_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Deliveries []WebhookDelivery `json:"deliveries"`
}

// NewWebhookAggregate creates an empty aggregate for a payment.
func NewWebhookAggregate(paymentID uuid.UUID) (*WebhookAggregate, error) {
	if paymentID == uuid.Nil {
		return nil, apperror.Validation("payment id required")
	}
	return &WebhookAggregate{
		ID:        uuid.New(),
		PaymentID: paymentID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AddDelivery appends a new, not-yet-attempted delivery record.
func (w *WebhookAggregate) AddDelivery(url string, payload EncryptedPayload) (*WebhookDelivery, error) {
	d, err := newWebhookDelivery(w.PaymentID, url, payload)
	if err != nil {
		return nil, err
	}
	w.Deliveries = append(w.Deliveries, *d)
	return &w.Deliveries[len(w.Deliveries)-1], nil
}

// GetLatestDelivery returns the most recently created delivery, or nil.
func (w *WebhookAggregate) GetLatestDelivery() *WebhookDelivery {
	var latest *WebhookDelivery
	for i := range w.Deliveries {
		if latest == nil || w.Deliveries[i].CreatedAt.After(latest.CreatedAt) {
			latest = &w.Deliveries[i]
		}
	}
	return latest
}

// HasSuccessfulDelivery reports whether any delivery succeeded.
func (w *WebhookAggregate) HasSuccessfulDelivery() bool {
	for _, d := range w.Deliveries {
		if d.IsSuccessful {
			return true
		}
	}
	return false
}

// PendingDeliveries returns the deliveries currently due per ShouldRetry.
func (w *WebhookAggregate) PendingDeliveries(now time.Time) []WebhookDelivery {
	var due []WebhookDelivery
	for _, d := range w.Deliveries {
		if d.ShouldRetry(now) {
			due = append(due, d)
		}
	}
	return due
}

// WebhookDelivery tracks one notification's attempts and backoff schedule.
// It is mutated only by RecordAttempt.
type WebhookDelivery struct {
	ID            uuid.UUID        `json:"id"`
	PaymentID     uuid.UUID        `json:"payment_id"`
	URL           string           `json:"url"`
	Payload       EncryptedPayload `json:"payload"`
	RetryCount    int              `json:"retry_count"`
	LastAttemptAt *time.Time       `json:"last_attempt_at,omitempty"`
	IsSuccessful  bool             `json:"is_successful"`
	CreatedAt     time.Time        `json:"created_at"`
	NextRetryAt   *time.Time       `json:"next_retry_at,omitempty"`
}

func newWebhookDelivery(paymentID uuid.UUID, url string, payload EncryptedPayload) (*WebhookDelivery, error) {
	if paymentID == uuid.Nil {
		return nil, apperror.Validation("payment id required")
	}
	if url == "" {
		return nil, apperror.Validation("url required")
	}
	if payload.Ciphertext == "" {
		return nil, apperror.Validation("payload required")
	}
	return &WebhookDelivery{
		ID:        uuid.New(),
		PaymentID: paymentID,
		URL:       url,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RecordAttempt registers the outcome of a delivery attempt. A failed attempt
// below maxRetries schedules the next one at now + 2^retry_count seconds;
// once the cap is reached the schedule is cleared so the delivery never
// becomes due again.
func (d *WebhookDelivery) RecordAttempt(successful bool, maxRetries int) {
	now := time.Now().UTC()
	d.RetryCount++
	d.LastAttemptAt = &now
	d.IsSuccessful = successful

	if !successful && d.RetryCount < maxRetries {
		backoff := time.Duration(math.Pow(2, float64(d.RetryCount))) * time.Second
		next := now.Add(backoff)
		d.NextRetryAt = &next
	} else {
		d.NextRetryAt = nil
	}
}

// ShouldRetry reports whether the delivery is due at now: never attempted, or
// failed with a retry scheduled at or before now. Successful or exhausted
// deliveries are never due.
func (d *WebhookDelivery) ShouldRetry(now time.Time) bool {
	if d.IsSuccessful {
		return false
	}
	if d.LastAttemptAt == nil {
		return true
	}
	return d.NextRetryAt != nil && !d.NextRetryAt.After(now)
}
