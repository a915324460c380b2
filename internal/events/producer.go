// Package events publishes the admin audit trail to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event records one confirmed lifecycle action.
type Event struct {
	Resource   string    `json:"resource"`
	RecordID   string    `json:"recordId"`
	Action     string    `json:"action"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no audit topic configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: writer, topic: cfg.Topic}, nil
}

// Publish writes e keyed by record id, so one record's history stays ordered.
func (p *Producer) Publish(ctx context.Context, e Event) error {
	msgBytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.RecordID),
		Value: msgBytes,
		Time:  e.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Nop drops every event. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
