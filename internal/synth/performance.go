package synth

import (
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// Performance builds the performance table row of one assistant.
// Call volume, success, duration, conversion, satisfaction and revenue come
// from the assistant's metrics bundle so every panel shows the same numbers.
func (s *Synthesizer) Performance(p *domain.AssistantProfile, now time.Time) domain.PerformanceRow {
	m := s.Metrics(p.SheetID, BaselineOf(p), now)
	h := s.seed(p.ID)

	return domain.PerformanceRow{
		AssistantID:          p.ID,
		Name:                 p.Name,
		Specialization:       p.Specialization,
		Status:               p.Status,
		DailyCalls:           m.CallsToday,
		WeeklyCalls:          m.CallsThisWeek,
		MonthlyCalls:         m.CallsThisMonth,
		SuccessRate:          m.SuccessRate,
		AvgDuration:          m.AvgDuration,
		CostPerCall:          round2(p.CostPerMinute * 3),
		Revenue:              m.TotalRevenue,
		LeadConversion:       m.ConversionRate,
		CustomerSatisfaction: m.CustomerSatisfaction,
		ResponseTime:         2 + mod(h, 8),
		Uptime:               95 + mod(h, 5),
		ErrorRate:            mod(h, 5),
		PeakHour:             9 + mod(h, 8),
		LastActive:           now.Add(-time.Duration(mod(h, 120)) * time.Minute),
	}
}

// FleetPerformance builds the performance table for every profile, in fleet order
func (s *Synthesizer) FleetPerformance(profiles []*domain.AssistantProfile, now time.Time) []domain.PerformanceRow {
	rows := make([]domain.PerformanceRow, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, s.Performance(p, now))
	}
	return rows
}
