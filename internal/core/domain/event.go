package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventVersion tags every serialized event for future schema evolution.
const EventVersion = "1.0"

// Event type discriminators as stored in the event log.
const (
	EventTypePaymentCreated   = "PaymentCreated"
	EventTypeFundsReserved    = "FundsReserved"
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypeFundsSettled     = "FundsSettled"
	EventTypePaymentFailed    = "PaymentFailed"
)

// Event is an immutable fact describing a payment state change. The set of
// implementations is closed; each carries a stable string discriminator used
// by the event store for serialization.
type Event interface {
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// EventMeta holds the fields common to every domain event.
type EventMeta struct {
	Aggregate uuid.UUID `json:"aggregate_id"`
	At        time.Time `json:"occurred_at"`
	Version   string    `json:"event_version"`
}

func newEventMeta(aggregate uuid.UUID, at time.Time) EventMeta {
	return EventMeta{Aggregate: aggregate, At: at, Version: EventVersion}
}

func (m EventMeta) AggregateID() uuid.UUID { return m.Aggregate }
func (m EventMeta) OccurredAt() time.Time  { return m.At }

// PaymentCreated records the birth of a payment aggregate.
type PaymentCreated struct {
	EventMeta
	PaymentID  uuid.UUID `json:"payment_id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Reference  string    `json:"reference"`
}

func (PaymentCreated) EventType() string { return EventTypePaymentCreated }

// FundsReserved records the customer->clearing reservation postings.
type FundsReserved struct {
	EventMeta
	PaymentID uuid.UUID `json:"payment_id"`
	Amount    int64     `json:"amount"`
}

func (FundsReserved) EventType() string { return EventTypeFundsReserved }

// PaymentCompleted records the Pending->Completed transition.
type PaymentCompleted struct {
	EventMeta
	PaymentID   uuid.UUID `json:"payment_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (PaymentCompleted) EventType() string { return EventTypePaymentCompleted }

// FundsSettled records the clearing->merchant settlement postings.
type FundsSettled struct {
	EventMeta
	PaymentID uuid.UUID `json:"payment_id"`
	Amount    int64     `json:"amount"`
}

func (FundsSettled) EventType() string { return EventTypeFundsSettled }

// PaymentFailed records the transition to Failed with its reason.
type PaymentFailed struct {
	EventMeta
	PaymentID uuid.UUID `json:"payment_id"`
	Reason    string    `json:"reason"`
}

func (PaymentFailed) EventType() string { return EventTypePaymentFailed }

// UnmarshalEvent decodes a stored event by its discriminator. Unknown
// discriminators return (nil, nil) so readers can skip them instead of
// failing the whole stream.
func UnmarshalEvent(eventType string, data []byte) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch eventType {
	case EventTypePaymentCreated:
		var e PaymentCreated
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeFundsReserved:
		var e FundsReserved
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypePaymentCompleted:
		var e PaymentCompleted
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypeFundsSettled:
		var e FundsSettled
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTypePaymentFailed:
		var e PaymentFailed
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s event: %w", eventType, err)
	}
	return ev, nil
}
