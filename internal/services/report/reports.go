package report

import (
	"math"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// Recommendations close every executive summary
var Recommendations = []string{
	"Optimize underperformers: focus training on assistants below 70% success rate",
	"Scale top performers: increase call volume for high-performing specializations",
	"Cost optimization: review cost per call for assistants above $0.20 per call",
	"Technical improvements: improve conversation flow handling",
	"Data integration: tighten CRM integration for lead tracking",
	"Training program: build specialized training modules for each use case",
}

// SpecializationSummary aggregates the assistants sharing one specialization
type SpecializationSummary struct {
	Specialization string  `json:"specialization"`
	Assistants     int     `json:"assistants"`
	DailyCalls     int     `json:"daily_calls"`
	SuccessRate    float64 `json:"success_rate"`
	Revenue        float64 `json:"revenue"`
	Satisfaction   float64 `json:"satisfaction"`
}

// ExecutiveSummary is the fleet-level report for management
type ExecutiveSummary struct {
	GeneratedAt      time.Time               `json:"generated_at"`
	TotalDailyCalls  int                     `json:"total_daily_calls"`
	AvgSuccessRate   float64                 `json:"avg_success_rate"`
	TotalRevenue     float64                 `json:"total_revenue"`
	TopPerformer     string                  `json:"top_performer"`
	TopSuccessRate   float64                 `json:"top_success_rate"`
	BySpecialization []SpecializationSummary `json:"by_specialization"`
	Recommendations  []string                `json:"recommendations"`
}

// ExecutiveSummary builds the executive report from the performance table
func (s *Service) ExecutiveSummary() ExecutiveSummary {
	rows := s.Performance()
	out := ExecutiveSummary{
		GeneratedAt:     s.now(),
		Recommendations: append([]string(nil), Recommendations...),
	}
	if len(rows) == 0 {
		return out
	}

	var successSum float64
	for _, r := range rows {
		out.TotalDailyCalls += r.DailyCalls
		out.TotalRevenue += r.Revenue
		successSum += r.SuccessRate
	}
	out.AvgSuccessRate = round1(successSum / float64(len(rows)))
	out.TotalRevenue = round2(out.TotalRevenue)

	top := topBy(rows, 1, func(r domain.PerformanceRow) float64 { return r.SuccessRate })[0]
	out.TopPerformer = top.Name
	out.TopSuccessRate = top.SuccessRate

	for _, g := range groupBySpecialization(rows) {
		sum := SpecializationSummary{Specialization: g.name, Assistants: len(g.rows)}
		var success, satisfaction float64
		for _, r := range g.rows {
			sum.DailyCalls += r.DailyCalls
			sum.Revenue += r.Revenue
			success += r.SuccessRate
			satisfaction += r.CustomerSatisfaction
		}
		n := float64(len(g.rows))
		sum.SuccessRate = round2(success / n)
		sum.Satisfaction = round2(satisfaction / n)
		sum.Revenue = round2(sum.Revenue)
		out.BySpecialization = append(out.BySpecialization, sum)
	}
	return out
}

// FinancialReport summarises revenue against calling cost
type FinancialReport struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	TotalRevenue float64                    `json:"total_revenue"`
	TotalCost    float64                    `json:"total_cost"`
	Profit       float64                    `json:"profit"`
	ProfitMargin float64                    `json:"profit_margin"`
	ROI          float64                    `json:"roi"`
	TopRevenue   []domain.PerformanceRow    `json:"top_revenue"`
	Monthly      []domain.MonthlyFinancials `json:"monthly"`
}

// FinancialReport builds the financial report. Cost is each assistant's cost
// per call times its daily calls; margin and ROI are 0 when undefined.
func (s *Service) FinancialReport() FinancialReport {
	now := s.now()
	rows := s.Performance()

	var revenue, cost float64
	for _, r := range rows {
		revenue += r.Revenue
		cost += r.CostPerCall * float64(r.DailyCalls)
	}

	out := FinancialReport{
		GeneratedAt:  now,
		TotalRevenue: round2(revenue),
		TotalCost:    round2(cost),
		Profit:       round2(revenue - cost),
		TopRevenue:   topBy(rows, TopRevenueRows, func(r domain.PerformanceRow) float64 { return r.Revenue }),
		Monthly:      s.synth.MonthlyFinancials(now, FinancialMonths),
	}
	if revenue > 0 {
		out.ProfitMargin = round1((revenue - cost) / revenue * 100)
	}
	if cost > 0 {
		out.ROI = round1((revenue - cost) / cost * 100)
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
