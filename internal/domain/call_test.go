package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to CallStatus
		ok       bool
	}{
		{CallStatusInitiated, CallStatusRinging, true},
		{CallStatusInitiated, CallStatusConnected, false},
		{CallStatusInitiated, CallStatusNoAnswer, true},
		{CallStatusRinging, CallStatusConnected, true},
		{CallStatusRinging, CallStatusBusy, true},
		{CallStatusConnected, CallStatusCompleted, true},
		{CallStatusConnected, CallStatusRinging, false},
		{CallStatusCompleted, CallStatusFailed, false},
		{CallStatusFailed, CallStatusRinging, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCallRecordFinish(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &CallRecord{CallID: "c1", StartTime: start, Status: CallStatusConnected}

	require.NoError(t, rec.Finish(CallStatusCompleted, start.Add(95*time.Second+700*time.Millisecond)))
	assert.Equal(t, CallStatusCompleted, rec.Status)
	assert.Equal(t, 95, rec.Duration)
	assert.InDelta(t, 1.90, rec.Cost, 1e-9)
	require.NotNil(t, rec.EndTime)

	err := rec.Finish(CallStatusFailed, start.Add(time.Minute))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	other := &CallRecord{CallID: "c2", StartTime: start, Status: CallStatusRinging}
	assert.ErrorIs(t, other.Finish(CallStatusConnected, start), ErrInvalidTransition)
}
