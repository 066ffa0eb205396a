// Package events publishes chat lifecycle events for the notification
// service to fan out (push/email digests). Delivery is best-effort: a broker
// hiccup never fails the originating chat operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	MessageCreated  = "message.created"
	MessageUpdated  = "message.updated"
	MessageDeleted  = "message.deleted"
	PresenceChanged = "presence.changed"
)

type ChatEvent struct {
	Type        string    `json:"type"`
	MessageID   string    `json:"messageId,omitempty"`
	RoomID      string    `json:"roomId,omitempty"`
	RecipientID string    `json:"recipientId,omitempty"`
	SenderID    string    `json:"senderId,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Online      *bool     `json:"online,omitempty"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev ChatEvent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ChatEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := ev.MessageID
	if key == "" {
		key = ev.UserID
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  ev.At,
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher drops events; used when no broker is configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ChatEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }
