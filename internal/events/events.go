// Package events publishes conversation events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

type Type string

const (
	MessageInbound      Type = "message.inbound"
	MessageSent         Type = "message.sent"
	MessageFailed       Type = "message.failed"
	MessageStatusUpdate Type = "message.status"
	ScheduledSent       Type = "scheduled.sent"
	ScheduledFailed     Type = "scheduled.failed"
)

type Event struct {
	Type        Type                 `json:"type"`
	ContactID   string               `json:"contactId"`
	MessageID   string               `json:"messageId,omitempty"`
	ScheduledID string               `json:"scheduledId,omitempty"`
	Channel     domain.Channel       `json:"channel,omitempty"`
	Status      domain.MessageStatus `json:"status,omitempty"`
	Error       string               `json:"error,omitempty"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// Publisher delivers events. Callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publishTimeout bounds a single Publish so an unreachable broker cannot hold up
// webhook acks or dispatch ticks.
const publishTimeout = 3 * time.Second

// KafkaPublisher writes JSON events keyed by contact id, so one contact's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           publishTimeout,
		MaxAttempts:            2,
		AllowAutoTopicCreation: true,
	}

	logger.Infof("Publishing inbox events to Kafka topic %q (%d brokers)", topic, len(brokers))

	return &KafkaPublisher{writer: writer, topic: topic, timeout: publishTimeout}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ContactID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", evt.Type, p.topic, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// PublishOrLog publishes evt and logs instead of returning a failure.
func PublishOrLog(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warnf("Event %s for contact %s not published: %v", evt.Type, evt.ContactID, err)
	}
}
