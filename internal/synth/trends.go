package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

const dateKey = "2006-01-02"

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// trailingDays returns the midnight of each of the last days days, oldest first
func trailingDays(now time.Time, days int) []time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// CallVolumeTrend is the fleet's daily call volume over the trailing days
func (s *Synthesizer) CallVolumeTrend(now time.Time, days int) []domain.TrendPoint {
	points := make([]domain.TrendPoint, 0, max(days, 0))
	for i, day := range trailingDays(now, days) {
		jitter := mod(s.seed("volume_"+day.Format(dateKey)), 100) - 50
		points = append(points, domain.TrendPoint{
			Date:  day,
			Value: float64(400 + 5*i + jitter),
		})
	}
	return points
}

// SuccessRateTrend is the fleet's daily success rate over the trailing days
func (s *Synthesizer) SuccessRateTrend(now time.Time, days int) []domain.TrendPoint {
	points := make([]domain.TrendPoint, 0, max(days, 0))
	for i, day := range trailingDays(now, days) {
		jitter := float64(mod(s.seed("success_"+day.Format(dateKey)), 7) - 3)
		points = append(points, domain.TrendPoint{
			Date:  day,
			Value: round1(clamp(75+10*math.Sin(float64(i)/5)+jitter, 0, 100)),
		})
	}
	return points
}

// SentimentTrend is the fleet's daily sentiment mix over the trailing days
func (s *Synthesizer) SentimentTrend(now time.Time, days int) []domain.SentimentTrendPoint {
	points := make([]domain.SentimentTrendPoint, 0, max(days, 0))
	for _, day := range trailingDays(now, days) {
		h := s.seed("sentiment_" + day.Format(dateKey))
		points = append(points, domain.SentimentTrendPoint{
			Date: day,
			SentimentBreakdown: normalizeSentiment(
				float64(65+mod(h, 11)),
				float64(17+mod(h/11, 7)),
				float64(7+mod(h/77, 7)),
			),
		})
	}
	return points
}

// ActivityHeatmap is call activity per weekday and hour
func (s *Synthesizer) ActivityHeatmap() []domain.HeatmapCell {
	cells := make([]domain.HeatmapCell, 0, len(weekdays)*24)
	for _, day := range weekdays {
		for hour := 0; hour < 24; hour++ {
			cells = append(cells, domain.HeatmapCell{
				Day:   day,
				Hour:  hour,
				Calls: 10 + mod(s.seed(fmt.Sprintf("heatmap_%s_%d", day, hour)), 90),
			})
		}
	}
	return cells
}

// MonthlyFinancials is revenue and cost for the trailing months, oldest first
func (s *Synthesizer) MonthlyFinancials(now time.Time, months int) []domain.MonthlyFinancials {
	out := make([]domain.MonthlyFinancials, 0, max(months, 0))
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i-(months-1), 0)
		h := s.seed("finance_" + month.Format("2006-01"))
		revenue := float64(50000 + 5000*i + mod(h, 5000) - 2500)
		costs := float64(30000 + 2000*i + mod(h/5000, 3000) - 1500)
		out = append(out, domain.MonthlyFinancials{
			Month:   month.Format("Jan 2006"),
			Revenue: revenue,
			Costs:   costs,
			Profit:  revenue - costs,
		})
	}
	return out
}
