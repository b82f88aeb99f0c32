package synth

import (
	"fmt"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// AssistantActivity is the live workload of one assistant in the monitor view
type AssistantActivity struct {
	AssistantID  string `json:"assistant_id"`
	Name         string `json:"name"`
	CurrentCalls int    `json:"current_calls"`
	QueueLength  int    `json:"queue_length"`
	AvgWaitSecs  int    `json:"avg_wait_seconds"`
}

// ResourceUsage is synthetic host utilisation in percent
type ResourceUsage struct {
	CPU     int `json:"cpu"`
	Memory  int `json:"memory"`
	Network int `json:"network"`
	Storage int `json:"storage"`
}

// minuteKey buckets now so the monitor view is stable within a minute
func minuteKey(now time.Time) string {
	return now.UTC().Truncate(time.Minute).Format("200601021504")
}

// LiveActivity reports per-assistant workload for the minute containing now
func (s *Synthesizer) LiveActivity(profiles []*domain.AssistantProfile, now time.Time) []AssistantActivity {
	bucket := minuteKey(now)
	out := make([]AssistantActivity, 0, len(profiles))
	for _, p := range profiles {
		h := s.seed(fmt.Sprintf("activity_%s_%s", p.ID, bucket))
		out = append(out, AssistantActivity{
			AssistantID:  p.ID,
			Name:         p.Name,
			CurrentCalls: mod(h, 5),
			QueueLength:  mod(h/5, 10),
			AvgWaitSecs:  5 + mod(h/50, 55),
		})
	}
	return out
}

// Resources reports host utilisation for the minute containing now
func (s *Synthesizer) Resources(now time.Time) ResourceUsage {
	h := s.seed("resources_" + minuteKey(now))
	return ResourceUsage{
		CPU:     20 + mod(h, 60),
		Memory:  30 + mod(h/60, 50),
		Network: 10 + mod(h/3000, 70),
		Storage: 40 + mod(h/210000, 40),
	}
}
