package domain

import "time"

// LogStatus is the outcome label of a synthetic call-log row
type LogStatus string

const (
	LogStatusCompleted LogStatus = "Completed"
	LogStatusMissed    LogStatus = "Missed"
	LogStatusBusy      LogStatus = "Busy"
	LogStatusNoAnswer  LogStatus = "No Answer"
	LogStatusFailed    LogStatus = "Failed"
)

// LogStatuses is the selection order used by the call-log synthesizer
var LogStatuses = []LogStatus{LogStatusCompleted, LogStatusMissed, LogStatusBusy, LogStatusNoAnswer, LogStatusFailed}

// Valid reports whether s is a known call-log status
func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusCompleted, LogStatusMissed, LogStatusBusy, LogStatusNoAnswer, LogStatusFailed:
		return true
	}
	return false
}

// Sentiment is the sentiment label of a synthetic call-log row
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Sentiments is the selection order used by the call-log synthesizer
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// PeakHours are the fixed busiest hours reported for every assistant
var PeakHours = []int{9, 10, 11, 14, 15, 16}

// SentimentBreakdown holds whole percentages that sum to 100
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the sum of the three percentages
func (s SentimentBreakdown) Total() int {
	return s.Positive + s.Neutral + s.Negative
}

// MetricsBundle is the synthetic operational snapshot of one entity
type MetricsBundle struct {
	EntityID             string             `json:"entity_id"`
	GeneratedAt          time.Time          `json:"generated_at"`
	CallsToday           int                `json:"calls_today"`
	CallsThisWeek        int                `json:"calls_this_week"`
	CallsThisMonth       int                `json:"calls_this_month"`
	SuccessRate          float64            `json:"success_rate"`
	AvgDuration          int                `json:"avg_duration"`
	LeadsGenerated       int                `json:"leads_generated"`
	ConversionRate       float64            `json:"conversion_rate"`
	CustomerSatisfaction float64            `json:"customer_satisfaction"`
	RevenueToday         float64            `json:"revenue_today"`
	TotalRevenue         float64            `json:"total_revenue"`
	CostPerLead          float64            `json:"cost_per_lead"`
	AvgCallCost          float64            `json:"avg_call_cost"`
	PeakHours            []int              `json:"peak_hours"`
	Sentiment            SentimentBreakdown `json:"sentiment"`
}

// SyntheticCallRecord is one generated row of a call log
type SyntheticCallRecord struct {
	CallID      string    `json:"call_id"`
	Timestamp   time.Time `json:"timestamp"`
	PhoneNumber string    `json:"phone_number"`
	Duration    int       `json:"duration"`
	Status      LogStatus `json:"status"`
	LeadScore   float64   `json:"lead_score"`
	Sentiment   Sentiment `json:"sentiment"`
	Cost        float64   `json:"cost"`
	Campaign    string    `json:"campaign"`
	Agent       string    `json:"agent"`
	Notes       string    `json:"notes"`
}

// ForecastPoint is one day of the toy trend+seasonality forecast
type ForecastPoint struct {
	Date                time.Time `json:"date"`
	PredictedCalls      int       `json:"predicted_calls"`
	ConfidenceLower     int       `json:"confidence_lower"`
	ConfidenceUpper     int       `json:"confidence_upper"`
	ExpectedRevenue     float64   `json:"expected_revenue"`
	ResourceRequirement int       `json:"resource_requirement"`
}

// PerformanceRow is one assistant's line in the performance table
type PerformanceRow struct {
	AssistantID          string          `json:"assistant_id"`
	Name                 string          `json:"name"`
	Specialization       string          `json:"specialization"`
	Status               AssistantStatus `json:"status"`
	DailyCalls           int             `json:"daily_calls"`
	WeeklyCalls          int             `json:"weekly_calls"`
	MonthlyCalls         int             `json:"monthly_calls"`
	SuccessRate          float64         `json:"success_rate"`
	AvgDuration          int             `json:"avg_duration"`
	CostPerCall          float64         `json:"cost_per_call"`
	Revenue              float64         `json:"revenue"`
	LeadConversion       float64         `json:"lead_conversion"`
	CustomerSatisfaction float64         `json:"customer_satisfaction"`
	ResponseTime         int             `json:"response_time"`
	Uptime               int             `json:"uptime"`
	ErrorRate            int             `json:"error_rate"`
	PeakHour             int             `json:"peak_hour"`
	LastActive           time.Time       `json:"last_active"`
}

// TrendPoint is one day of a dashboard chart series
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SentimentTrendPoint is one day of the sentiment chart series
type SentimentTrendPoint struct {
	Date time.Time `json:"date"`
	SentimentBreakdown
}

// HeatmapCell is call activity for one (day, hour) slot
type HeatmapCell struct {
	Day   string `json:"day"`
	Hour  int    `json:"hour"`
	Calls int    `json:"calls"`
}

// MonthlyFinancials is one month of the financial trend
type MonthlyFinancials struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`
}
