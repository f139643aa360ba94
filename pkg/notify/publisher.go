package notify

import (
	"context"
	"log"
	"time"

	"corralx-backend/internal/models"

	"github.com/google/uuid"
)

// Lifecycle event names. One is published after every successful creation
// or transition; consumers (realtime, push, analytics) subscribe downstream.
const (
	EventCreated   = "created"
	EventAccepted  = "accepted"
	EventRejected  = "rejected"
	EventUpdated   = "updated"
	EventDelivered = "delivered"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

// Event is the envelope placed on the wire. The order snapshot reflects the
// persisted state at publish time; the database row, not the event, is the
// source of truth.
type Event struct {
	ID         string        `json:"id"`
	Name       string        `json:"event"`
	OccurredAt time.Time     `json:"occurred_at"`
	Order      *models.Order `json:"order"`
}

// NewEvent builds an envelope with a fresh event id.
func NewEvent(name string, order *models.Order) Event {
	return Event{
		ID:         uuid.New().String(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Order:      order,
	}
}

// Publisher is the fire-and-forget notification sink contract. A failed
// publish must never affect the order state that triggered it.
type Publisher interface {
	Publish(ctx context.Context, eventName string, order *models.Order) error
}

// LogPublisher writes events to the process log. It is the fallback sink
// for local development and tests when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, eventName string, order *models.Order) error {
	log.Printf("notify: order %d -> %s", order.ID, eventName)
	return nil
}

// Fanout publishes to every configured sink. Individual sink failures are
// logged and swallowed so one slow or broken channel cannot block another.
type Fanout struct {
	sinks []Publisher
}

// NewFanout builds a fan-out over the given sinks.
func NewFanout(sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, eventName string, order *models.Order) error {
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, eventName, order); err != nil {
			log.Printf("notify: sink %T failed for order %d event %s: %v", sink, order.ID, eventName, err)
		}
	}
	return nil
}
