package report

import (
	"strings"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// FleetLogSize is the number of rows on the call log page
const FleetLogSize = 500

// DefaultPageSize applies when a query asks for an unsupported page size
const DefaultPageSize = 50

// MaxPage bounds the page number accepted from clients
const MaxPage = 100000

// PageSizes are the page sizes the call log supports
var PageSizes = []int{25, 50, 100, 200}

// CallLogQuery filters and pages the fleet call log. Zero values disable a filter.
type CallLogQuery struct {
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	Assistants  []string           `json:"assistants,omitempty"`
	Statuses    []domain.LogStatus `json:"statuses,omitempty"`
	MinDuration int                `json:"min_duration"`
	Search      string             `json:"search,omitempty"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
}

// CallLogSummary aggregates a filtered call log
type CallLogSummary struct {
	TotalCalls   int     `json:"total_calls"`
	AvgDuration  float64 `json:"avg_duration"`
	SuccessRate  float64 `json:"success_rate"`
	TotalCost    float64 `json:"total_cost"`
	AvgLeadScore float64 `json:"avg_lead_score"`
}

// CallLogPage is one page of a call log query
type CallLogPage struct {
	Records      []domain.SyntheticCallRecord `json:"records"`
	Page         int                          `json:"page"`
	PageSize     int                          `json:"page_size"`
	TotalPages   int                          `json:"total_pages"`
	TotalRecords int                          `json:"total_records"`
	Summary      CallLogSummary               `json:"summary"`
}

// FleetCallLog returns the full fleet call log, newest first
func (s *Service) FleetCallLog() []domain.SyntheticCallRecord {
	return s.synth.FleetCallLog(s.fleet.List(), FleetLogSize, s.now())
}

// QueryCallLogs filters the fleet call log and returns the requested page.
// The summary covers every matching row, not just the page.
func (s *Service) QueryCallLogs(q CallLogQuery) CallLogPage {
	return Paginate(FilterCallLogs(s.FleetCallLog(), q), q.Page, q.PageSize)
}

// FilterCallLogs keeps the records matching every filter of q
func FilterCallLogs(records []domain.SyntheticCallRecord, q CallLogQuery) []domain.SyntheticCallRecord {
	assistants := toSet(q.Assistants)
	statuses := make(map[domain.LogStatus]struct{}, len(q.Statuses))
	for _, st := range q.Statuses {
		statuses[st] = struct{}{}
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.SyntheticCallRecord, 0, len(records))
	for _, r := range records {
		if !q.From.IsZero() && r.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && r.Timestamp.After(q.To) {
			continue
		}
		if len(assistants) > 0 {
			if _, ok := assistants[r.Agent]; !ok {
				continue
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[r.Status]; !ok {
				continue
			}
		}
		if r.Duration < q.MinDuration {
			continue
		}
		if search != "" && !matches(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r domain.SyntheticCallRecord, needle string) bool {
	return strings.Contains(strings.ToLower(r.PhoneNumber), needle) ||
		strings.Contains(strings.ToLower(r.Notes), needle) ||
		strings.Contains(strings.ToLower(r.Campaign), needle)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// NormalizePageSize returns size when supported, DefaultPageSize otherwise
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return DefaultPageSize
}

// Paginate slices records into the requested page. Pages are 1-based and
// clamped to the valid range.
func Paginate(records []domain.SyntheticCallRecord, page, pageSize int) CallLogPage {
	pageSize = NormalizePageSize(pageSize)
	totalPages := (len(records) + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = max(totalPages, 1)
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(records))
	pageRecords := []domain.SyntheticCallRecord{}
	if start < end {
		pageRecords = append(pageRecords, records[start:end]...)
	}

	return CallLogPage{
		Records:      pageRecords,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalRecords: len(records),
		Summary:      Summarize(records),
	}
}

// Summarize aggregates records. Success rate is the share of Completed rows.
func Summarize(records []domain.SyntheticCallRecord) CallLogSummary {
	if len(records) == 0 {
		return CallLogSummary{}
	}

	var duration, cost, lead float64
	completed := 0
	for _, r := range records {
		duration += float64(r.Duration)
		cost += r.Cost
		lead += r.LeadScore
		if r.Status == domain.LogStatusCompleted {
			completed++
		}
	}
	n := float64(len(records))
	return CallLogSummary{
		TotalCalls:   len(records),
		AvgDuration:  round1(duration / n),
		SuccessRate:  round1(float64(completed) / n * 100),
		TotalCost:    round2(cost),
		AvgLeadScore: round1(lead / n),
	}
}
