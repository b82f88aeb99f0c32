package call

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/metrics"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallingAPI places and controls calls on behalf of one session
type CallingAPI interface {
	InitiateCall(ctx context.Context, store *session.Store, assistantID, phone, prompt string) (*domain.InitiateResult, error)
	GetCallStatus(ctx context.Context, store *session.Store, callID string) (*domain.CallRecord, error)
	EndCall(ctx context.Context, store *session.Store, callID string) (*domain.CallRecord, error)
}

// Service is the simulated calling API. Calls live in the session store and move
// through their lifecycle via EndCall and provider callbacks.
type Service struct {
	fleet     *cache.AssistantCache
	publisher event.Publisher
	registry  session.CallRegistry
	now       func() time.Time
}

var _ CallingAPI = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// WithRegistry advertises live calls through r
func WithRegistry(r session.CallRegistry) Option {
	return func(s *Service) { s.registry = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a calling service over the fleet registry
func NewService(fleet *cache.AssistantCache, publisher event.Publisher, opts ...Option) *Service {
	s := &Service{
		fleet:     fleet,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitiateCall places a call from assistantID to phone
func (s *Service) InitiateCall(ctx context.Context, store *session.Store, assistantID, phone, prompt string) (*domain.InitiateResult, error) {
	if !store.Credentials().HasAPIKey() {
		return nil, domain.ErrMissingAPIKey
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", domain.ErrInvalidInput)
	}

	profile, err := s.fleet.Get(assistantID)
	if err != nil {
		return nil, err
	}

	// an empty prompt falls back to the assistant's configured one
	if strings.TrimSpace(prompt) == "" {
		prompt = profile.CustomPrompt
	}

	rec := &domain.CallRecord{
		CallID:      uuid.New().String(),
		AssistantID: profile.ID,
		PhoneNumber: phone,
		Prompt:      prompt,
		StartTime:   s.now(),
		Status:      domain.CallStatusInitiated,
	}
	if prompt != "" {
		rec.CustomData = domain.CustomData{"custom_prompt": prompt}
	}
	if err := store.AddCall(rec); err != nil {
		return nil, fmt.Errorf("failed to record call: %w", err)
	}

	if s.registry != nil {
		info := session.LiveCallInfo{
			CallID:      rec.CallID,
			SessionID:   store.ID(),
			AssistantID: rec.AssistantID,
			StartTime:   rec.StartTime,
		}
		if err := s.registry.Register(ctx, info); err != nil {
			logger.Warn(ctx, "Failed to register live call", zap.String("call_id", rec.CallID), zap.Error(err))
		}
	}

	metrics.RecordCallInitiated(rec.AssistantID)
	s.publish(ctx, event.NewCallEvent(event.CallInitiated, store.ID(), rec))

	logger.Info(ctx, "Call initiated",
		zap.String("call_id", rec.CallID),
		zap.String("assistant_id", rec.AssistantID),
		zap.String("session_id", store.ID()))

	return &domain.InitiateResult{
		CallID:        rec.CallID,
		Status:        domain.CallStatusInitiated,
		EstimatedCost: domain.EstimatedCallCost,
	}, nil
}

// GetCallStatus returns the current record of a live or finished call
func (s *Service) GetCallStatus(_ context.Context, store *session.Store, callID string) (*domain.CallRecord, error) {
	return store.Call(callID)
}

// EndCall hangs up an active call, marking it completed
func (s *Service) EndCall(ctx context.Context, store *session.Store, callID string) (*domain.CallRecord, error) {
	rec, err := store.End(callID, s.now())
	if err != nil {
		return nil, err
	}
	s.finished(ctx, store, rec)
	return rec, nil
}

// ApplyCallback applies a provider status callback to an active call
func (s *Service) ApplyCallback(ctx context.Context, store *session.Store, callID string, status domain.CallStatus) (*domain.CallRecord, error) {
	rec, err := store.Transition(callID, status, s.now())
	if err != nil {
		return nil, err
	}

	if rec.Status.IsTerminal() {
		s.finished(ctx, store, rec)
		return rec, nil
	}

	s.publish(ctx, event.NewCallEvent(event.CallStatusChanged, store.ID(), rec))
	return rec, nil
}

func (s *Service) finished(ctx context.Context, store *session.Store, rec *domain.CallRecord) {
	if s.registry != nil {
		if err := s.registry.Unregister(ctx, rec.CallID); err != nil {
			logger.Warn(ctx, "Failed to unregister live call", zap.String("call_id", rec.CallID), zap.Error(err))
		}
	}

	metrics.RecordCallEnded(string(rec.Status), rec.Duration, rec.Cost)
	s.publish(ctx, event.NewCallEvent(event.CallEnded, store.ID(), rec))

	logger.Info(ctx, "Call ended",
		zap.String("call_id", rec.CallID),
		zap.String("status", string(rec.Status)),
		zap.Int("duration", rec.Duration),
		zap.Float64("cost", rec.Cost))
}

func (s *Service) publish(ctx context.Context, ev *event.CallEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn(ctx, "Failed to publish call event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	metrics.RecordEvent(string(ev.Type))
}
