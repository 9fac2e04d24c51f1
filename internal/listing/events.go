package listing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventType string

const eventTypeHeader = "event_type"

const (
	EventCreated EventType = "listing.created"
	EventDeleted EventType = "listing.deleted"
	EventSaved   EventType = "listing.saved"
	EventUnsaved EventType = "listing.unsaved"
)

type Event struct {
	Type       EventType `json:"type"`
	ProductID  string    `json:"product_id"`
	UserID     string    `json:"user_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers catalog change notifications. Delivery is best effort;
// a failed publish never rolls back the change.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// KafkaPublisher keys messages by product id so all events of a listing land
// on the same partition in order. Writes are async: Publish only enqueues, and
// delivery failures are logged from the writer's completion callback.
type KafkaPublisher struct {
	w   *kafka.Writer
	log *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &KafkaPublisher{log: log}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.log.Warn("deliver event failed",
			zap.Error(err),
			zap.String("topic", p.w.Topic),
			zap.ByteString("product_id", m.Key),
			zap.String("type", eventTypeOf(m)),
		)
	}
}

func eventTypeOf(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == eventTypeHeader {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ProductID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
