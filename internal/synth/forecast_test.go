package synth

import (
	"testing"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	points := Forecast(start, 30)
	require.Len(t, points, 30)

	for i, p := range points {
		assert.LessOrEqual(t, p.ConfidenceLower, p.PredictedCalls, "day %d", i)
		assert.LessOrEqual(t, p.PredictedCalls, p.ConfidenceUpper, "day %d", i)
		assert.Equal(t, start.AddDate(0, 0, i), p.Date)
	}

	// day 0 has no seasonal or trend adjustment
	assert.Equal(t, 500, points[0].PredictedCalls)
	assert.Equal(t, 400, points[0].ConfidenceLower)
	assert.Equal(t, 600, points[0].ConfidenceUpper)
	assert.InDelta(t, 1250.0, points[0].ExpectedRevenue, 1e-9)
	assert.Equal(t, 10, points[0].ResourceRequirement)

	assert.Empty(t, Forecast(start, 0))
	assert.Empty(t, Forecast(start, -1))
}

func TestTrendSeries(t *testing.T) {
	s := New(nil)
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

	volume := s.CallVolumeTrend(now, 30)
	require.Len(t, volume, 30)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), volume[29].Date)
	assert.Equal(t, time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC), volume[0].Date)
	for i, p := range volume {
		assert.GreaterOrEqual(t, p.Value, float64(350+5*i))
		assert.Less(t, p.Value, float64(450+5*i))
	}

	success := s.SuccessRateTrend(now, 30)
	require.Len(t, success, 30)
	for _, p := range success {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 100.0)
	}

	sentiment := s.SentimentTrend(now, 7)
	require.Len(t, sentiment, 7)
	for _, p := range sentiment {
		assert.Equal(t, 100, p.Total())
	}

	assert.Equal(t, volume, s.CallVolumeTrend(now.Add(5*time.Hour), 30))
	assert.Empty(t, s.CallVolumeTrend(now, 0))
}

func TestActivityHeatmap(t *testing.T) {
	cells := New(nil).ActivityHeatmap()
	require.Len(t, cells, 7*24)
	for _, c := range cells {
		assert.GreaterOrEqual(t, c.Calls, 10)
		assert.Less(t, c.Calls, 100)
	}
}

func TestMonthlyFinancials(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	months := New(nil).MonthlyFinancials(now, 12)
	require.Len(t, months, 12)
	assert.Equal(t, "Jul 2024", months[0].Month)
	assert.Equal(t, "Jun 2025", months[11].Month)
	for _, m := range months {
		assert.InDelta(t, m.Revenue-m.Costs, m.Profit, 1e-9)
		assert.Greater(t, m.Profit, 0.0)
	}
}

func TestMonitorSnapshotStableWithinMinute(t *testing.T) {
	s := New(nil)
	fleet := domain.GenerateFleet()
	now := time.Date(2025, 6, 15, 10, 20, 5, 0, time.UTC)

	activity := s.LiveActivity(fleet, now)
	require.Len(t, activity, len(fleet))
	assert.Equal(t, activity, s.LiveActivity(fleet, now.Add(40*time.Second)))

	assert.Equal(t, s.Resources(now), s.Resources(now.Add(30*time.Second)))
	r := s.Resources(now)
	assert.GreaterOrEqual(t, r.CPU, 20)
	assert.Less(t, r.CPU, 80)
}
