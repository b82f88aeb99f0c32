package event

import (
	"context"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"go.uber.org/zap"
)

// CallEventChannel is the Redis channel call events are broadcast on
const CallEventChannel = "astra:fleet:call:events"

// LogSink writes every event to the service log
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Publish(ctx context.Context, event *CallEvent) error {
	logger.Info(ctx, "call event",
		zap.String("type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.String("call_id", event.CallID),
		zap.String("status", string(event.Status)),
		zap.Int("duration", event.Duration),
		zap.Float64("cost", event.Cost))
	return nil
}

func (LogSink) Close() error { return nil }

// RedisSink broadcasts events on a Redis pub/sub channel
type RedisSink struct {
	redisSvc redis.RedisServiceInterface
	channel  string
}

// NewRedisSink returns a sink publishing on CallEventChannel
func NewRedisSink(redisSvc redis.RedisServiceInterface) *RedisSink {
	return &RedisSink{redisSvc: redisSvc, channel: CallEventChannel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Publish(ctx context.Context, event *CallEvent) error {
	return s.redisSvc.Publish(ctx, s.channel, event)
}

func (s *RedisSink) Close() error { return nil }

// JSONPublisher is satisfied by the Pub/Sub client
type JSONPublisher interface {
	PublishJSON(ctx context.Context, eventType string, payload any) (string, error)
	Close() error
}

// PubSubSink forwards events to a Google Cloud Pub/Sub topic
type PubSubSink struct {
	client JSONPublisher
}

// NewPubSubSink wraps a Pub/Sub client
func NewPubSubSink(client JSONPublisher) *PubSubSink {
	return &PubSubSink{client: client}
}

func (s *PubSubSink) Name() string { return "pubsub" }

func (s *PubSubSink) Publish(ctx context.Context, event *CallEvent) error {
	_, err := s.client.PublishJSON(ctx, string(event.Type), event)
	return err
}

func (s *PubSubSink) Close() error { return s.client.Close() }

// KeyedSender is satisfied by the Kafka producer
type KeyedSender interface {
	Send(ctx context.Context, key string, value any) error
	Close() error
}

// KafkaSink forwards events to a Kafka topic keyed by call id
type KafkaSink struct {
	producer KeyedSender
}

// NewKafkaSink wraps a Kafka producer
func NewKafkaSink(producer KeyedSender) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, event *CallEvent) error {
	return s.producer.Send(ctx, event.Key(), event)
}

func (s *KafkaSink) Close() error { return s.producer.Close() }
