package domain

import (
	"fmt"
	"time"
)

// CallStatus is the lifecycle state of a live call
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusConnected CallStatus = "connected"
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
	CallStatusBusy      CallStatus = "busy"
	CallStatusNoAnswer  CallStatus = "no_answer"
)

// CostPerSecond is the flat billing rate applied when a call ends
const CostPerSecond = 0.02

// EstimatedCallCost is quoted to the caller when a call is initiated
const EstimatedCallCost = 0.15

// Valid reports whether s is a known call status
func (s CallStatus) Valid() bool {
	switch s {
	case CallStatusInitiated, CallStatusRinging, CallStatusConnected,
		CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer:
		return true
	case CallStatusInitiated, CallStatusRinging, CallStatusConnected:
		return false
	}
	return false
}

// CanTransition reports whether a callback may move a call from s to next
func (s CallStatus) CanTransition(next CallStatus) bool {
	switch s {
	case CallStatusInitiated:
		return next == CallStatusRinging || next == CallStatusFailed ||
			next == CallStatusBusy || next == CallStatusNoAnswer
	case CallStatusRinging:
		return next == CallStatusConnected || next == CallStatusFailed ||
			next == CallStatusBusy || next == CallStatusNoAnswer
	case CallStatusConnected:
		return next == CallStatusCompleted || next == CallStatusFailed
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer:
		return false
	}
	return false
}

// CustomData is free-form metadata attached to a live call
type CustomData map[string]interface{}

// CallRecord is a live call held in session state
type CallRecord struct {
	CallID         string     `json:"call_id"`
	AssistantID    string     `json:"assistant_id"`
	PhoneNumber    string     `json:"phone_number"`
	Prompt         string     `json:"prompt,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Duration       int        `json:"duration"`
	Status         CallStatus `json:"status"`
	Transcript     string     `json:"transcript,omitempty"`
	SentimentScore float64    `json:"sentiment_score"`
	LeadScore      float64    `json:"lead_score"`
	Cost           float64    `json:"cost"`
	RecordingURL   string     `json:"recording_url,omitempty"`
	CustomData     CustomData `json:"custom_data,omitempty"`
}

// Finish moves the record into a terminal state at the given time.
// Duration is truncated to whole seconds and billed at CostPerSecond.
func (c *CallRecord) Finish(status CallStatus, at time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %s is not a terminal status", ErrInvalidTransition, status)
	}
	if c.Status.IsTerminal() {
		return fmt.Errorf("%w: call %s already %s", ErrInvalidTransition, c.CallID, c.Status)
	}

	end := at
	c.EndTime = &end
	c.Duration = int(end.Sub(c.StartTime) / time.Second)
	if c.Duration < 0 {
		c.Duration = 0
	}
	c.Cost = float64(c.Duration) * CostPerSecond
	c.Status = status
	return nil
}

// InitiateResult is returned by the calling collaborator when a call is placed
type InitiateResult struct {
	CallID        string     `json:"call_id"`
	Status        CallStatus `json:"status"`
	EstimatedCost float64    `json:"estimated_cost"`
}
