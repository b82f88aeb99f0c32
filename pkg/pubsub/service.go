package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

type PubSubConfig struct {
	ProjectID string `yaml:"project_id"`
	TopicName string `yaml:"topic_name"`
	// Source is attached to every message so subscribers can filter by environment
	Source string `yaml:"source"`
}

type PubSubService struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	config *PubSubConfig
}

func NewPubSubService(ctx context.Context, cfg *PubSubConfig) (*PubSubService, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PubSub project ID is required")
	}
	if cfg.TopicName == "" {
		return nil, fmt.Errorf("PubSub topic name is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create PubSub client: %w", err)
	}

	topic := client.Topic(cfg.TopicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check if topic exists: %w", err)
	}

	if !exists {
		logger.Base().Info("Topic does not exist, creating", zap.String("topic", cfg.TopicName))
		topic, err = client.CreateTopic(ctx, cfg.TopicName)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create topic %s: %w", cfg.TopicName, err)
		}
	}

	return &PubSubService{
		client: client,
		topic:  topic,
		config: cfg,
	}, nil
}

// PublishJSON publishes payload as a JSON message and waits for the server ack
func (p *PubSubService) PublishJSON(ctx context.Context, eventType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	attrs := map[string]string{"event_type": eventType}
	if p.config.Source != "" {
		attrs["source"] = p.config.Source
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client
func (p *PubSubService) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
