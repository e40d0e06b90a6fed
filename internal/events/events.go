// Package events carries store events between the api and the worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ecomsync/internal/logger"
)

// Event is one store change waiting to be synced. Overrides are platform
// field values applied to the mapped record before export.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    int                    `json:"source"`
	Overrides map[string]interface{} `json:"overrides,omitempty"`
	Payload   json.RawMessage        `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// New builds an event with a fresh id.
func New(eventType string, source int, payload []byte) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Payload:   json.RawMessage(payload),
		Timestamp: time.Now().UTC(),
	}
}

// Decode parses a message value.
func Decode(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("failed to parse event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("failed to parse event: missing type")
	}
	return e, nil
}

// Publisher writes events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers []string, topic string, logger *logger.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

// Publish writes e keyed by its id.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.ID), Value: value}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.logger.Debug("Published %s event %s", e.Type, e.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
