package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/adapters/sheets"
	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/synth"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

const (
	TrendDays        = 30
	FinancialMonths  = 12
	TopPerformers    = 5
	TopRevenueRows   = 10
	MaxForecastDays  = 365
	MaxAssistantLogs = 200
)

// Backend names reported by the monitor snapshot
const (
	SpreadsheetBackend = "spreadsheet"
	EventsBackend      = "events"
)

// HealthCheck reports whether a backend is reachable
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Service builds the dashboard views, reports and call-log queries
type Service struct {
	fleet  *cache.AssistantCache
	synth  *synth.Synthesizer
	source sheets.Source
	checks []namedCheck
	now    func() time.Time
}

// NewService creates a report service. now defaults to time.Now. The
// spreadsheet source is always part of the monitor's health checks.
func NewService(fleet *cache.AssistantCache, s *synth.Synthesizer, source sheets.Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	svc := &Service{fleet: fleet, synth: s, source: source, now: now}
	svc.AddHealthCheck(SpreadsheetBackend, source.Ping)
	return svc
}

// AddHealthCheck registers a backend reported by the monitor snapshot
func (s *Service) AddHealthCheck(name string, check HealthCheck) {
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

// SpecializationRate is the mean success rate of one specialization
type SpecializationRate struct {
	Specialization string  `json:"specialization"`
	SuccessRate    float64 `json:"success_rate"`
}

// Dashboard holds the fleet KPIs shown on the landing page
type Dashboard struct {
	GeneratedAt             time.Time               `json:"generated_at"`
	TotalCalls              int                     `json:"total_calls"`
	CallsToday              int                     `json:"calls_today"`
	AvgSuccessRate          float64                 `json:"avg_success_rate"`
	TotalRevenue            float64                 `json:"total_revenue"`
	ActiveAssistants        int                     `json:"active_assistants"`
	FleetSize               int                     `json:"fleet_size"`
	AvgCostPerCall          float64                 `json:"avg_cost_per_call"`
	TopPerformers           []domain.PerformanceRow `json:"top_performers"`
	SuccessBySpecialization []SpecializationRate    `json:"success_by_specialization"`
}

// Dashboard aggregates the metrics bundle of every assistant
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	profiles := s.fleet.List()

	d := &Dashboard{
		GeneratedAt:      now,
		ActiveAssistants: s.fleet.ActiveCount(),
		FleetSize:        len(profiles),
	}
	if len(profiles) == 0 {
		return d, nil
	}

	var successSum, costSum float64
	for _, p := range profiles {
		bundle, _, err := s.source.GetSheetData(ctx, p.SheetID, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet of %s: %w", p.ID, err)
		}
		d.TotalCalls += p.TotalCalls
		d.CallsToday += bundle.CallsToday
		d.TotalRevenue += bundle.TotalRevenue
		successSum += bundle.SuccessRate
		costSum += bundle.AvgCallCost
	}
	n := float64(len(profiles))
	d.AvgSuccessRate = round1(successSum / n)
	d.AvgCostPerCall = round2(costSum / n)
	d.TotalRevenue = round2(d.TotalRevenue)

	rows := s.synth.FleetPerformance(profiles, now)
	d.TopPerformers = topBy(rows, TopPerformers, func(r domain.PerformanceRow) float64 { return r.SuccessRate })
	d.SuccessBySpecialization = successBySpecialization(rows)
	return d, nil
}

// AssistantMetrics returns the metrics bundle of one assistant
func (s *Service) AssistantMetrics(ctx context.Context, idOrKey string) (*domain.MetricsBundle, error) {
	p, err := s.fleet.Get(idOrKey)
	if err != nil {
		return nil, err
	}
	bundle, _, err := s.source.GetSheetData(ctx, p.SheetID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet of %s: %w", p.ID, err)
	}
	return &bundle, nil
}

// AssistantCalls returns up to limit call-log rows of one assistant, newest first
func (s *Service) AssistantCalls(ctx context.Context, idOrKey string, limit int) ([]domain.SyntheticCallRecord, error) {
	p, err := s.fleet.Get(idOrKey)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = sheets.DefaultLogRows
	}
	if limit > MaxAssistantLogs {
		limit = MaxAssistantLogs
	}

	_, records, err := s.source.GetSheetData(ctx, p.SheetID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet of %s: %w", p.ID, err)
	}
	if len(records) < limit {
		// the sheet holds fewer rows than asked for, extend from the same seed
		records = s.synth.CallLog(p.SheetID, p, limit, s.now())
	}
	return records[:limit], nil
}

// Performance returns the performance table of the fleet
func (s *Service) Performance() []domain.PerformanceRow {
	return s.synth.FleetPerformance(s.fleet.List(), s.now())
}

// Trends holds the dashboard chart series
type Trends struct {
	CallVolume  []domain.TrendPoint          `json:"call_volume"`
	SuccessRate []domain.TrendPoint          `json:"success_rate"`
	Sentiment   []domain.SentimentTrendPoint `json:"sentiment"`
	Heatmap     []domain.HeatmapCell         `json:"heatmap"`
}

// Trends returns the trailing 30-day chart series
func (s *Service) Trends() Trends {
	now := s.now()
	return Trends{
		CallVolume:  s.synth.CallVolumeTrend(now, TrendDays),
		SuccessRate: s.synth.SuccessRateTrend(now, TrendDays),
		Sentiment:   s.synth.SentimentTrend(now, TrendDays),
		Heatmap:     s.synth.ActivityHeatmap(),
	}
}

// Forecast projects days days starting today. days is capped at MaxForecastDays.
func (s *Service) Forecast(days int) []domain.ForecastPoint {
	if days > MaxForecastDays {
		days = MaxForecastDays
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return synth.Forecast(start, days)
}

// MonitorSnapshot is the realtime monitor view
type MonitorSnapshot struct {
	Timestamp      time.Time                 `json:"timestamp"`
	Health         map[string]string         `json:"health"`
	ActiveCalls    int                       `json:"active_calls"`
	Activity       []synth.AssistantActivity `json:"activity"`
	Resources      synth.ResourceUsage       `json:"resources"`
	Alerts         []Alert                   `json:"alerts"`
	RecentActivity []Alert                   `json:"recent_activity"`
}

// Monitor builds the realtime snapshot for one session
func (s *Service) Monitor(ctx context.Context, store *session.Store) MonitorSnapshot {
	now := s.now()
	health := map[string]string{"api": "healthy"}
	if store.Credentials().HasAPIKey() {
		health["calling"] = "healthy"
	} else {
		health["calling"] = "unconfigured"
	}
	for _, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.check(checkCtx)
		cancel()
		if err != nil {
			health[c.name] = "degraded"
			logger.Warn(ctx, "Health check failed", zap.String("backend", c.name), zap.Error(err))
			continue
		}
		health[c.name] = "healthy"
	}

	notifications := store.Notifications()
	recent := callActivity(store, notifyChannels(notifications))
	alerts := performanceAlerts(s.Performance(), notifications, now)
	for _, a := range recent {
		if isAlert(a) {
			alerts = append(alerts, a)
		}
	}

	return MonitorSnapshot{
		Timestamp:      now,
		Health:         health,
		ActiveCalls:    store.ActiveCount(),
		Activity:       s.synth.LiveActivity(s.fleet.List(), now),
		Resources:      s.synth.Resources(now),
		Alerts:         alerts,
		RecentActivity: recent,
	}
}

// topBy returns the n rows with the highest key, ties broken by fleet order
func topBy(rows []domain.PerformanceRow, n int, key func(domain.PerformanceRow) float64) []domain.PerformanceRow {
	sorted := append([]domain.PerformanceRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) > key(sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func successBySpecialization(rows []domain.PerformanceRow) []SpecializationRate {
	groups := groupBySpecialization(rows)
	out := make([]SpecializationRate, 0, len(groups))
	for _, g := range groups {
		var sum float64
		for _, r := range g.rows {
			sum += r.SuccessRate
		}
		out = append(out, SpecializationRate{
			Specialization: g.name,
			SuccessRate:    round1(sum / float64(len(g.rows))),
		})
	}
	return out
}

type specGroup struct {
	name string
	rows []domain.PerformanceRow
}

// groupBySpecialization groups rows in order of first appearance
func groupBySpecialization(rows []domain.PerformanceRow) []specGroup {
	index := make(map[string]int)
	var groups []specGroup
	for _, r := range rows {
		i, ok := index[r.Specialization]
		if !ok {
			i = len(groups)
			index[r.Specialization] = i
			groups = append(groups, specGroup{name: r.Specialization})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}
