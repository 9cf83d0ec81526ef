package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ExecutionLogEvent is the record published for every logged dispatch.
type ExecutionLogEvent struct {
	LogID     string    `json:"log_id"`
	TaskID    string    `json:"task_id,omitempty"`
	TaskName  string    `json:"task_name,omitempty"`
	Origin    string    `json:"origin"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	LoggedAt  time.Time `json:"logged_at"`
	EventType string    `json:"event_type,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits execution log events to Kafka.
type Publisher struct {
	writer    messageWriter
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewPublisher builds a synchronous publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger.With(zap.String("component", "kafka_publisher"), zap.String("topic", topic)),
	}
}

// Publish writes one event keyed by task ID so a task's history stays ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, event ExecutionLogEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("failed to publish execution log event",
			zap.String("log_id", event.LogID),
			zap.Error(err),
		)
		return fmt.Errorf("publish execution log event: %w", err)
	}

	p.logger.Debug("execution log event published", zap.String("log_id", event.LogID))
	return nil
}

// newMessage encodes event. Logs without a task (deleted before the write) are keyed by log ID.
func newMessage(event ExecutionLogEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal execution log event: %w", err)
	}

	key := event.TaskID
	if key == "" {
		key = event.LogID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.LoggedAt,
		Headers: []kafka.Header{
			{Key: "origin", Value: []byte(event.Origin)},
			{Key: "status", Value: []byte(event.Status)},
		},
	}, nil
}

// Close flushes pending writes. Safe to call more than once.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.writer.Close()
	})
	return p.closeErr
}
