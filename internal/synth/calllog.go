package synth

import (
	"fmt"
	"sort"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// FleetLogWindow bounds how far back the fleet call log reaches
const FleetLogWindow = 30 * 24 * time.Hour

// CallLog generates n call records for one entity, most recent first.
// Record i is seeded by entityID + "_" + i and is placed 2i hours plus up to
// 59 minutes before now.
func (s *Synthesizer) CallLog(entityID string, profile *domain.AssistantProfile, n int, now time.Time) []domain.SyntheticCallRecord {
	if n <= 0 {
		return []domain.SyntheticCallRecord{}
	}

	records := make([]domain.SyntheticCallRecord, 0, n)
	for i := 0; i < n; i++ {
		h := s.seed(fmt.Sprintf("%s_%d", entityID, i))
		ts := now.Add(-time.Duration(i)*2*time.Hour - time.Duration(mod(h, 60))*time.Minute)
		records = append(records, s.callRecord(fmt.Sprintf("call_%03d", i+1), h, ts, profile))
	}
	return records
}

// FleetCallLog generates n call records spread across the last 30 days and
// across every profile, most recent first. Used by the call log page.
func (s *Synthesizer) FleetCallLog(profiles []*domain.AssistantProfile, n int, now time.Time) []domain.SyntheticCallRecord {
	if n <= 0 || len(profiles) == 0 {
		return []domain.SyntheticCallRecord{}
	}

	records := make([]domain.SyntheticCallRecord, 0, n)
	for i := 0; i < n; i++ {
		h := s.seed(fmt.Sprintf("fleet_log_%d", i))
		offset := time.Duration(mod(h, 30))*24*time.Hour +
			time.Duration(mod(h/30, 24))*time.Hour +
			time.Duration(mod(h/720, 60))*time.Minute
		profile := profiles[mod(h/43200, uint64(len(profiles)))]
		records = append(records, s.callRecord(fmt.Sprintf("call_%04d", i+1), h, now.Add(-offset), profile))
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Timestamp.After(records[b].Timestamp)
	})
	return records
}

func (s *Synthesizer) callRecord(id string, h uint64, ts time.Time, profile *domain.AssistantProfile) domain.SyntheticCallRecord {
	duration := 60 + mod(h, 300)

	agent, spec := "Unassigned", "General Purpose"
	if profile != nil {
		agent, spec = profile.Name, profile.Specialization
	}

	return domain.SyntheticCallRecord{
		CallID:      id,
		Timestamp:   ts,
		PhoneNumber: fmt.Sprintf("+1-555-%04d", 2000+mod(h, 9000)),
		Duration:    duration,
		Status:      domain.LogStatuses[mod(h, uint64(len(domain.LogStatuses)))],
		LeadScore:   round1(1 + float64(mod(h, 90))/10),
		Sentiment:   domain.Sentiments[mod(h, uint64(len(domain.Sentiments)))],
		Cost:        round2(float64(duration) * domain.CostPerSecond),
		Campaign:    fmt.Sprintf("Campaign %d", mod(h, 5)+1),
		Agent:       agent,
		Notes:       fmt.Sprintf("Call notes for %s", spec),
	}
}
