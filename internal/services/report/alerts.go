package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// AlertLevel is the severity shown next to a monitor alert
type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

const (
	// MilestoneSuccessRate is the success rate that raises a success alert
	MilestoneSuccessRate = 95.0
	// MaxRecentActivity caps the call events in the activity feed
	MaxRecentActivity = 10
)

// Alert is one entry of the live alerts panel or the recent activity feed
type Alert struct {
	Time        time.Time  `json:"time"`
	Level       AlertLevel `json:"type"`
	AssistantID string     `json:"assistant_id,omitempty"`
	CallID      string     `json:"call_id,omitempty"`
	Message     string     `json:"message"`
	Notify      []string   `json:"notify,omitempty"`
}

// notifyChannels lists the channels a warning or error alert would go out on
func notifyChannels(n session.NotificationSettings) []string {
	var out []string
	if n.EmailAlerts {
		out = append(out, "email")
	}
	if n.SMSAlerts {
		out = append(out, "sms")
	}
	if n.WebhookAlerts {
		out = append(out, "webhook")
	}
	return out
}

// performanceAlerts flags rows below the session threshold, rows with errors
// and rows at the success milestone
func performanceAlerts(rows []domain.PerformanceRow, n session.NotificationSettings, now time.Time) []Alert {
	channels := notifyChannels(n)
	var out []Alert
	for _, row := range rows {
		if row.SuccessRate < float64(n.AlertThreshold) {
			out = append(out, Alert{
				Time:        now,
				Level:       AlertWarning,
				AssistantID: row.AssistantID,
				Message:     fmt.Sprintf("%s success rate %.1f%% is below the %d%% alert threshold", row.Name, row.SuccessRate, n.AlertThreshold),
				Notify:      channels,
			})
		}
		if row.ErrorRate > 0 {
			out = append(out, Alert{
				Time:        now,
				Level:       AlertError,
				AssistantID: row.AssistantID,
				Message:     fmt.Sprintf("%s error rate at %d%%", row.Name, row.ErrorRate),
				Notify:      channels,
			})
		}
		if row.SuccessRate >= MilestoneSuccessRate {
			out = append(out, Alert{
				Time:        now,
				Level:       AlertSuccess,
				AssistantID: row.AssistantID,
				Message:     fmt.Sprintf("%s achieved %.0f%% success rate", row.Name, MilestoneSuccessRate),
			})
		}
	}
	return out
}

// callActivity turns the session's live and finished calls into feed entries,
// most recent first
func callActivity(store *session.Store, channels []string) []Alert {
	var out []Alert
	for _, rec := range store.ActiveCalls() {
		out = append(out, Alert{
			Time:        rec.StartTime,
			Level:       AlertInfo,
			AssistantID: rec.AssistantID,
			CallID:      rec.CallID,
			Message:     fmt.Sprintf("Call %s to %s is %s", rec.CallID, rec.PhoneNumber, rec.Status),
		})
	}
	for _, rec := range store.History() {
		at := rec.StartTime
		if rec.EndTime != nil {
			at = *rec.EndTime
		}
		a := Alert{Time: at, AssistantID: rec.AssistantID, CallID: rec.CallID}
		switch rec.Status {
		case domain.CallStatusCompleted:
			a.Level = AlertSuccess
			a.Message = fmt.Sprintf("Call %s to %s completed in %ds", rec.CallID, rec.PhoneNumber, rec.Duration)
		case domain.CallStatusFailed:
			a.Level = AlertError
			a.Message = fmt.Sprintf("Call %s to %s failed", rec.CallID, rec.PhoneNumber)
			a.Notify = channels
		default:
			a.Level = AlertWarning
			a.Message = fmt.Sprintf("Call %s to %s ended %s", rec.CallID, rec.PhoneNumber, rec.Status)
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if len(out) > MaxRecentActivity {
		out = out[:MaxRecentActivity]
	}
	return out
}

// isAlert reports whether a feed entry also belongs on the alerts panel
func isAlert(a Alert) bool {
	return a.Level == AlertWarning || a.Level == AlertError
}
