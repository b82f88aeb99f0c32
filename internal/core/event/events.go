package event

import (
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/google/uuid"
)

// EventType represents the type of call lifecycle event
type EventType string

const (
	CallInitiated     EventType = "call.initiated"
	CallStatusChanged EventType = "call.status_changed"
	CallEnded         EventType = "call.ended"
	BatchCompleted    EventType = "batch.completed"
)

// CallEvent is published whenever a live call or batch job changes
type CallEvent struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	SessionID   string            `json:"session_id"`
	CallID      string            `json:"call_id,omitempty"`
	AssistantID string            `json:"assistant_id,omitempty"`
	Status      domain.CallStatus `json:"status,omitempty"`
	Duration    int               `json:"duration,omitempty"`
	Cost        float64           `json:"cost,omitempty"`
	Data        map[string]any    `json:"data,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewCallEvent builds an event from a call record snapshot
func NewCallEvent(eventType EventType, sessionID string, rec *domain.CallRecord) *CallEvent {
	ev := &CallEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
	if rec != nil {
		ev.CallID = rec.CallID
		ev.AssistantID = rec.AssistantID
		ev.Status = rec.Status
		ev.Duration = rec.Duration
		ev.Cost = rec.Cost
	}
	return ev
}

// WithData attaches extra payload fields
func (e *CallEvent) WithData(data map[string]any) *CallEvent {
	e.Data = data
	return e
}

// Key is the partition key used by external sinks
func (e *CallEvent) Key() string {
	if e.CallID != "" {
		return e.CallID
	}
	return e.SessionID
}
