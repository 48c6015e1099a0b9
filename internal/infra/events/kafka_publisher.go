package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events; messages sharing a key land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       zap.NewStdLog(logger.With(zap.String("kafka_component", "producer"))),
		ErrorLogger:  zap.NewStdLog(logger.With(zap.String("kafka_component", "producer_errors"))),
	}
	logger.Info("kafka producer initialized", zap.Strings("brokers", brokers))
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to produce message",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	p.logger.Debug("produced message", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	p.logger.Info("kafka producer closed")
	return nil
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (n NoopPublisher) Publish(_ context.Context, topic, key string, _ interface{}) error {
	if n.Logger != nil {
		n.Logger.Debug("event dropped, kafka disabled", zap.String("topic", topic), zap.String("key", key))
	}
	return nil
}

func (NoopPublisher) Close() error { return nil }
