package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CS-Programmer254/FinLedger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventStore implements ports.EventStore over the payment_events table.
// Rows are insert-only; seq preserves append order within and across
// aggregates. Unknown event types read back as nil from the domain decoder
// and are skipped, so old binaries can read streams written by newer ones.
type EventStore struct {
	pool Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append serializes the event and inserts it within the caller's transaction.
func (s *EventStore) Append(ctx context.Context, tx pgx.Tx, aggregateID uuid.UUID, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}

	query := `INSERT INTO payment_events (id, aggregate_id, event_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	occurredAt := event.OccurredAt()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err = tx.Exec(ctx, query, uuid.New(), aggregateID, event.EventType(), data, occurredAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvents returns the aggregate's events in append order.
func (s *EventStore) GetEvents(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error) {
	query := `SELECT event_type, data FROM payment_events WHERE aggregate_id = $1 ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return decodeEventRows(rows)
}

// GetEventsByType returns all events with the given discriminator, append order.
func (s *EventStore) GetEventsByType(ctx context.Context, eventType string) ([]domain.Event, error) {
	query := `SELECT event_type, data FROM payment_events WHERE event_type = $1 ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, eventType)
	if err != nil {
		return nil, fmt.Errorf("query events by type: %w", err)
	}
	defer rows.Close()

	return decodeEventRows(rows)
}

func decodeEventRows(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var (
			eventType string
			data      []byte
		)
		if err := rows.Scan(&eventType, &data); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		ev, err := domain.UnmarshalEvent(eventType, data)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue // unknown type, skip
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
