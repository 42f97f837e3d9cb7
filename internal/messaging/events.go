package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event.
type EventType string

const (
	EventOrderPaid        EventType = "order.paid"
	EventProductionLogged EventType = "production.logged"
)

// Event is published after a business transaction commits. Consumers load
// the aggregate by id, so the payload stays small.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent stamps a new event for an aggregate.
func NewEvent(t EventType, aggregateID string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, event Event) error

// Publisher hands events to whatever delivers them to handlers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
