package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Producer sends JSON messages to one Kafka topic
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for cfg.Topic
func NewProducer(cfg *KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Send writes value as JSON under key
func (p *Producer) Send(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	logger.Base().Debug("Sent message to Kafka", zap.String("topic", p.writer.Topic), zap.String("key", key))
	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
