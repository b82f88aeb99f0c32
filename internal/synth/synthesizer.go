package synth

import (
	"math"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// Baseline carries the profile fields the synthesizer mixes into its output
type Baseline struct {
	SuccessRate   float64
	CostPerMinute float64
	TotalRevenue  float64
}

// BaselineOf extracts the baseline fields of an assistant profile
func BaselineOf(p *domain.AssistantProfile) Baseline {
	if p == nil {
		return Baseline{}
	}
	return Baseline{
		SuccessRate:   p.SuccessRate,
		CostPerMinute: p.CostPerMinute,
		TotalRevenue:  p.TotalRevenue,
	}
}

// Synthesizer generates metrics, call logs and chart series from seed values
type Synthesizer struct {
	seeder Seeder
}

// New returns a synthesizer using seeder, or DefaultSeeder when nil
func New(seeder Seeder) *Synthesizer {
	if seeder == nil {
		seeder = DefaultSeeder
	}
	return &Synthesizer{seeder: seeder}
}

func (s *Synthesizer) seed(key string) uint64 {
	return s.seeder.Seed(key)
}

// Metrics derives the metrics bundle of entityID at now.
//
// Ranges: success rate [0,100], satisfaction [4.2,4.9], conversion [15,39],
// average duration [180,299] seconds, sentiment percentages summing to 100.
// Calls today grow with the hour of now to model intra-day accumulation.
func (s *Synthesizer) Metrics(entityID string, baseline Baseline, now time.Time) domain.MetricsBundle {
	h := s.seed(entityID)
	base := float64(50 + mod(h, 100))
	timeFactor := float64(now.Hour()) / 24
	dayFraction := 0.5 + timeFactor

	totalRevenue := baseline.TotalRevenue + float64(mod(h, 1000))

	return domain.MetricsBundle{
		EntityID:             entityID,
		GeneratedAt:          now,
		CallsToday:           int(base * dayFraction),
		CallsThisWeek:        int(base * 7 * 0.8),
		CallsThisMonth:       int(base * 30 * 0.6),
		SuccessRate:          clamp(baseline.SuccessRate+float64(mod(h, 20)-10), 0, 100),
		AvgDuration:          180 + mod(h, 120),
		LeadsGenerated:       int(base*0.3 + float64(mod(h, 15))),
		ConversionRate:       float64(15 + mod(h, 25)),
		CustomerSatisfaction: math.Min(5, round1(4.2+float64(mod(h, 8))/10)),
		RevenueToday:         round2(totalRevenue / 30 * dayFraction),
		TotalRevenue:         totalRevenue,
		CostPerLead:          12.5 + float64(mod(h, 20)),
		AvgCallCost:          round2(baseline.CostPerMinute * 3),
		PeakHours:            append([]int(nil), domain.PeakHours...),
		Sentiment: normalizeSentiment(
			float64(70+mod(h, 20)),
			float64(20+mod(h, 10)),
			float64(10+mod(h, 10)),
		),
	}
}

// normalizeSentiment scales three non-negative weights to whole percentages
// summing to exactly 100. Negative absorbs the rounding remainder.
func normalizeSentiment(positive, neutral, negative float64) domain.SentimentBreakdown {
	positive = math.Max(0, positive)
	neutral = math.Max(0, neutral)
	negative = math.Max(0, negative)

	total := positive + neutral + negative
	if total == 0 {
		return domain.SentimentBreakdown{Neutral: 100}
	}

	pos := int(math.Round(positive * 100 / total))
	neu := int(math.Round(neutral * 100 / total))
	if pos+neu > 100 {
		neu = 100 - pos
	}
	return domain.SentimentBreakdown{
		Positive: pos,
		Neutral:  neu,
		Negative: 100 - pos - neu,
	}
}
