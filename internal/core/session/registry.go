package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"go.uber.org/zap"
)

// LiveCallTTL bounds how long a call stays registered if it is never ended
const LiveCallTTL = 1 * time.Hour

// LiveCallInfo is the monitoring record of a call in flight
type LiveCallInfo struct {
	CallID      string    `json:"callId"`
	SessionID   string    `json:"sessionId"`
	InstanceID  string    `json:"instanceId"`
	AssistantID string    `json:"assistantId"`
	StartTime   time.Time `json:"startTime"`
}

// CallRegistry advertises live calls to other instances
type CallRegistry interface {
	Register(ctx context.Context, info LiveCallInfo) error
	Unregister(ctx context.Context, callID string) error
}

// RedisRegistry stores live calls in Redis with a TTL
type RedisRegistry struct {
	redisSvc   redis.RedisServiceInterface
	instanceID string
}

// NewRedisRegistry returns a registry tagging entries with instanceID
func NewRedisRegistry(redisSvc redis.RedisServiceInterface, instanceID string) *RedisRegistry {
	return &RedisRegistry{redisSvc: redisSvc, instanceID: instanceID}
}

// Register stores info until the call ends or the TTL expires
func (r *RedisRegistry) Register(ctx context.Context, info LiveCallInfo) error {
	info.InstanceID = r.instanceID
	if info.StartTime.IsZero() {
		info.StartTime = time.Now()
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal live call: %w", err)
	}

	if err := r.redisSvc.SetValue(ctx, r.key(info.CallID), string(data), LiveCallTTL); err != nil {
		return fmt.Errorf("failed to register live call: %w", err)
	}
	logger.Base().Debug("Live call registered in Redis", zap.String("call_id", info.CallID), zap.String("instance_id", r.instanceID))
	return nil
}

// Unregister removes a finished call
func (r *RedisRegistry) Unregister(ctx context.Context, callID string) error {
	return r.redisSvc.DelValue(ctx, r.key(callID))
}

// Lookup returns the registered record of a live call
func (r *RedisRegistry) Lookup(ctx context.Context, callID string) (*LiveCallInfo, error) {
	raw, err := r.redisSvc.GetValue(ctx, r.key(callID))
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, callID)
		}
		return nil, fmt.Errorf("failed to read live call: %w", err)
	}

	var info LiveCallInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live call: %w", err)
	}
	return &info, nil
}

func (r *RedisRegistry) key(callID string) string {
	return r.redisSvc.GenerateKey(redis.LIVE_CALL, callID)
}
