package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventType string

const (
	ImportCompletedEvent EventType = "import.completed"
	StatusChangedEvent   EventType = "order.status_changed"
)

type Event struct {
	Type       EventType `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type ImportCompleted struct {
	Source  models.OrderSource   `json:"source"`
	Actor   string               `json:"actor,omitempty"`
	Outcome models.ImportOutcome `json:"outcome"`
}

func NewImportCompleted(source models.OrderSource, actor string, outcome models.ImportOutcome) Event {
	return Event{
		Type:       ImportCompletedEvent,
		Key:        outcome.BatchID.String(),
		OccurredAt: time.Now().UTC(),
		Payload:    ImportCompleted{Source: source, Actor: actor, Outcome: outcome},
	}
}

func NewStatusChanged(change models.StatusChange) Event {
	occurredAt := change.ChangedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return Event{
		Type:       StatusChangedEvent,
		Key:        change.OrderNo,
		OccurredAt: occurredAt,
		Payload:    change,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher используется, когда Kafka не настроена.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// messageWriter abstracts kafka.Writer for tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to one topic, keyed by Event.Key.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher accepts a comma-separated broker list.
func NewKafkaPublisher(brokers string, topic string) *KafkaPublisher {
	var addrs []string
	for _, addr := range strings.Split(brokers, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}}
}

func newKafkaPublisherWith(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// PublishQuietly logs publishing failures instead of returning them.
func PublishQuietly(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Log.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}
}
