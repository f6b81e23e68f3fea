package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Change notification types.
const (
	TypeEventCreated         = "event_created"
	TypeEventUpdated         = "event_updated"
	TypeEventDeleted         = "event_deleted"
	TypeEventsReplaced       = "events_replaced"
	TypeCredentialRegistered = "credential_registered"
)

// Notifier is told about every successful write.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload interface{}) error
}

// Envelope is the message published for each notification
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEnvelope wraps payload with a fresh ID and the current time.
func NewEnvelope(eventType string, payload interface{}) Envelope {
	return Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// messagePublisher is satisfied by *RedisClient.
type messagePublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Publisher publishes notifications on one Redis channel
type Publisher struct {
	client  messagePublisher
	channel string
}

// NewPublisher creates a new notification publisher
func NewPublisher(client *RedisClient, channel string) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
	}
}

// Notify publishes an envelope for eventType on the configured channel
func (p *Publisher) Notify(ctx context.Context, eventType string, payload interface{}) error {
	return p.client.Publish(ctx, p.channel, NewEnvelope(eventType, payload))
}

// NopNotifier discards notifications. It is used when Redis is not
// configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, interface{}) error { return nil }
