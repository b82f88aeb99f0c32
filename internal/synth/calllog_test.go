package synth

import (
	"testing"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidLog(t *testing.T, records []domain.SyntheticCallRecord, now time.Time) {
	t.Helper()
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		assert.False(t, seen[r.CallID], "duplicate call id %s", r.CallID)
		seen[r.CallID] = true
		assert.False(t, r.Timestamp.After(now), "record %d is in the future", i)
		assert.True(t, r.Status.Valid())
		assert.GreaterOrEqual(t, r.Duration, 60)
		assert.Less(t, r.Duration, 360)
		assert.GreaterOrEqual(t, r.LeadScore, 1.0)
		assert.LessOrEqual(t, r.LeadScore, 9.9)
		if i > 0 {
			assert.False(t, r.Timestamp.After(records[i-1].Timestamp), "record %d out of order", i)
		}
	}
}

func TestCallLog(t *testing.T) {
	s := New(nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := domain.NewAssistantProfile(0)

	for _, n := range []int{1, 50, 500} {
		records := s.CallLog(p.SheetID, p, n, now)
		require.Len(t, records, n)
		assertValidLog(t, records, now)
	}

	assert.Empty(t, s.CallLog(p.SheetID, p, 0, now))
	assert.Empty(t, s.CallLog(p.SheetID, p, -3, now))
}

func TestCallLogReproducible(t *testing.T) {
	s := New(nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := domain.NewAssistantProfile(4)

	first := s.CallLog("sheet_x", p, 10, now)
	second := s.CallLog("sheet_x", p, 20, now)
	assert.Equal(t, first, second[:10])
}

func TestCallLogFieldsFromStub(t *testing.T) {
	// h = 1234: 34 minutes back, duration 60+34, status 1234%5=4, sentiment 1234%3=1
	s := New(fixedSeeder(1234))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := domain.NewAssistantProfile(1)

	r := s.CallLog("sheet", p, 1, now)[0]
	assert.Equal(t, "call_001", r.CallID)
	assert.Equal(t, now.Add(-34*time.Minute), r.Timestamp)
	assert.Equal(t, 94, r.Duration)
	assert.Equal(t, domain.LogStatusFailed, r.Status)
	assert.Equal(t, domain.SentimentNeutral, r.Sentiment)
	assert.Equal(t, "+1-555-3234", r.PhoneNumber)
	assert.InDelta(t, 7.4, r.LeadScore, 1e-9)
	assert.InDelta(t, 1.88, r.Cost, 1e-9)
	assert.Equal(t, "Campaign 5", r.Campaign)
	assert.Equal(t, p.Name, r.Agent)
	assert.Equal(t, "Call notes for Customer Support", r.Notes)
}

func TestFleetCallLog(t *testing.T) {
	s := New(nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fleet := domain.GenerateFleet()

	records := s.FleetCallLog(fleet, 500, now)
	require.Len(t, records, 500)
	assertValidLog(t, records, now)

	agents := make(map[string]bool)
	for _, r := range records {
		assert.True(t, now.Sub(r.Timestamp) < FleetLogWindow)
		agents[r.Agent] = true
	}
	assert.Greater(t, len(agents), 10)

	assert.Empty(t, s.FleetCallLog(nil, 10, now))
}
