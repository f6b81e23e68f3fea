package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type recordingClient struct {
	channel string
	message interface{}
	err     error
}

func (c *recordingClient) Publish(_ context.Context, channel string, message interface{}) error {
	c.channel = channel
	c.message = message
	return c.err
}

func TestPublisherNotify(t *testing.T) {
	client := &recordingClient{}
	p := &Publisher{client: client, channel: "agenda_events"}

	payload := map[string]interface{}{"event_id": int64(7)}
	if err := p.Notify(context.Background(), TypeEventCreated, payload); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	if client.channel != "agenda_events" {
		t.Errorf("channel = %q, want agenda_events", client.channel)
	}
	env, ok := client.message.(Envelope)
	if !ok {
		t.Fatalf("message type = %T, want Envelope", client.message)
	}
	if env.Type != TypeEventCreated || env.ID == "" || env.Timestamp.IsZero() {
		t.Errorf("envelope = %+v", env)
	}
}

func TestPublisherNotifyError(t *testing.T) {
	want := errors.New("connection refused")
	p := &Publisher{client: &recordingClient{err: want}, channel: "c"}

	if err := p.Notify(context.Background(), TypeEventDeleted, nil); !errors.Is(err, want) {
		t.Errorf("Notify() error = %v, want %v", err, want)
	}
}

func TestNewEnvelopeUniqueIDs(t *testing.T) {
	a := NewEnvelope(TypeEventsReplaced, nil)
	b := NewEnvelope(TypeEventsReplaced, nil)
	if a.ID == b.ID {
		t.Error("envelopes share an ID")
	}
}

func TestNewRedisClientInvalidURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-redis-url", zerolog.Nop()); err == nil {
		t.Error("NewRedisClient() with invalid URL should fail")
	}
}
