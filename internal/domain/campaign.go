package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus is the lifecycle state of an outbound campaign
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "Active"
	CampaignStatusCompleted CampaignStatus = "Completed"
	CampaignStatusPaused    CampaignStatus = "Paused"
	CampaignStatusFailed    CampaignStatus = "Failed"
)

// Valid reports whether s is a known campaign status
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusCompleted, CampaignStatusPaused, CampaignStatusFailed:
		return true
	}
	return false
}

// CampaignTypes lists the campaign kinds offered when creating a campaign
var CampaignTypes = []string{
	"Sales Outreach", "Lead Follow-up", "Customer Survey",
	"Appointment Reminder", "Event Promotion", "Win-back",
}

// Campaign is a named grouping of planned outbound calls
type Campaign struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Status         CampaignStatus `json:"status"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	TargetCalls    int            `json:"target_calls"`
	CompletedCalls int            `json:"completed_calls"`
	SuccessRate    float64        `json:"success_rate"`
	Budget         float64        `json:"budget"`
	Spent          float64        `json:"spent"`
	Assistants     []string       `json:"assistants"`
	Script         string         `json:"script,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Progress returns completed calls as a percentage of the target, capped at 100
func (c *Campaign) Progress() float64 {
	if c.TargetCalls <= 0 {
		return 0
	}
	p := float64(c.CompletedCalls) / float64(c.TargetCalls) * 100
	if p > 100 {
		return 100
	}
	return p
}

// BudgetUsed returns spent budget as a percentage, capped at 100
func (c *Campaign) BudgetUsed() float64 {
	if c.Budget <= 0 {
		return 0
	}
	p := c.Spent / c.Budget * 100
	if p > 100 {
		return 100
	}
	return p
}

// CreateCampaignRequest is the input for creating a campaign
type CreateCampaignRequest struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TargetCalls int       `json:"target_calls"`
	Budget      float64   `json:"budget"`
	Assistants  []string  `json:"assistants"`
	Script      string    `json:"script,omitempty"`
}

// Validate checks the request fields that do not need the fleet registry
func (r *CreateCampaignRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if r.TargetCalls <= 0 {
		return fmt.Errorf("%w: target_calls must be positive", ErrInvalidInput)
	}
	if r.Budget < 0 {
		return fmt.Errorf("%w: budget cannot be negative", ErrInvalidInput)
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	return nil
}
