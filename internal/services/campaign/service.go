package campaign

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Service manages outbound campaigns in memory
type Service struct {
	fleet     *cache.AssistantCache
	campaigns map[string]*domain.Campaign
	mutex     sync.RWMutex
	now       func() time.Time
}

// NewService returns a campaign manager preloaded with the seed campaigns
func NewService(fleet *cache.AssistantCache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	s := &Service{
		fleet:     fleet,
		campaigns: make(map[string]*domain.Campaign),
		now:       now,
	}
	for _, c := range seedCampaigns(now()) {
		s.campaigns[c.ID] = c
	}
	return s
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func seedCampaigns(created time.Time) []*domain.Campaign {
	return []*domain.Campaign{
		{
			ID: "campaign_holiday_2024", Name: "Holiday Promotion 2024", Type: "Sales Outreach",
			Status: domain.CampaignStatusActive, StartDate: day("2024-12-01"), EndDate: day("2024-12-31"),
			TargetCalls: 5000, CompletedCalls: 3750, SuccessRate: 78.5, Budget: 2500, Spent: 1875,
			Assistants: []string{"vapi_assistant_01", "vapi_assistant_05", "vapi_assistant_12"},
			CreatedAt:  created,
		},
		{
			ID: "campaign_lead_followup_q4", Name: "Lead Follow-up Q4", Type: "Lead Follow-up",
			Status: domain.CampaignStatusActive, StartDate: day("2024-10-01"), EndDate: day("2024-12-31"),
			TargetCalls: 2000, CompletedCalls: 1200, SuccessRate: 82.3, Budget: 1000, Spent: 600,
			Assistants: []string{"vapi_assistant_03", "vapi_assistant_08"},
			CreatedAt:  created.Add(time.Second),
		},
		{
			ID: "campaign_customer_survey", Name: "Customer Survey", Type: "Customer Survey",
			Status: domain.CampaignStatusCompleted, StartDate: day("2024-11-01"), EndDate: day("2024-11-30"),
			TargetCalls: 1500, CompletedCalls: 1500, SuccessRate: 91.2, Budget: 750, Spent: 720,
			Assistants: []string{"vapi_assistant_15", "vapi_assistant_20"},
			CreatedAt:  created.Add(2 * time.Second),
		},
	}
}

// Create validates req and adds an Active campaign
func (s *Service) Create(ctx context.Context, req domain.CreateCampaignRequest) (*domain.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = domain.CampaignTypes[0]
	} else if !knownType(req.Type) {
		return nil, fmt.Errorf("%w: unknown campaign type %q", domain.ErrInvalidInput, req.Type)
	}
	if len(req.Assistants) == 0 {
		return nil, fmt.Errorf("%w: at least one assistant is required", domain.ErrInvalidInput)
	}

	assistants := make([]string, 0, len(req.Assistants))
	for _, id := range req.Assistants {
		p, err := s.fleet.Get(id)
		if err != nil {
			return nil, err
		}
		assistants = append(assistants, p.ID)
	}

	now := s.now()
	c := &domain.Campaign{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Type:        req.Type,
		Status:      domain.CampaignStatusActive,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TargetCalls: req.TargetCalls,
		Budget:      req.Budget,
		Assistants:  assistants,
		Script:      req.Script,
		CreatedAt:   now,
	}
	if c.StartDate.IsZero() {
		c.StartDate = now
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, existing := range s.campaigns {
		if strings.EqualFold(existing.Name, c.Name) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCampaignExists, c.Name)
		}
	}
	s.campaigns[c.ID] = c

	logger.Info(ctx, "Campaign created", zap.String("campaign_id", c.ID), zap.String("name", c.Name))
	return cloneCampaign(c), nil
}

func knownType(t string) bool {
	for _, known := range domain.CampaignTypes {
		if known == t {
			return true
		}
	}
	return false
}

// List returns campaigns, oldest first, optionally filtered by status
func (s *Service) List(statuses ...domain.CampaignStatus) []*domain.Campaign {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		if len(statuses) > 0 && !hasStatus(statuses, c.Status) {
			continue
		}
		out = append(out, cloneCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func hasStatus(statuses []domain.CampaignStatus, st domain.CampaignStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Get returns one campaign
func (s *Service) Get(id string) (*domain.Campaign, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, id)
	}
	return cloneCampaign(c), nil
}

// Pause moves an Active campaign to Paused
func (s *Service) Pause(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignStatusPaused, domain.CampaignStatusActive)
}

// Resume moves a Paused campaign back to Active
func (s *Service) Resume(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignStatusActive, domain.CampaignStatusPaused)
}

// Complete closes an Active or Paused campaign
func (s *Service) Complete(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignStatusCompleted, domain.CampaignStatusActive, domain.CampaignStatusPaused)
}

func (s *Service) transition(ctx context.Context, id string, to domain.CampaignStatus, from ...domain.CampaignStatus) (*domain.Campaign, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, id)
	}
	if !hasStatus(from, c.Status) {
		return nil, fmt.Errorf("%w: campaign %s is %s", domain.ErrInvalidTransition, c.Name, c.Status)
	}
	c.Status = to

	logger.Info(ctx, "Campaign status changed", zap.String("campaign_id", id), zap.String("status", string(to)))
	return cloneCampaign(c), nil
}

// RecordCalls adds dialed calls and their cost to an Active campaign.
// The campaign completes once its target is reached.
func (s *Service) RecordCalls(ctx context.Context, id string, calls int, cost float64) (*domain.Campaign, error) {
	if calls < 0 || cost < 0 {
		return nil, fmt.Errorf("%w: calls and cost cannot be negative", domain.ErrInvalidInput)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, id)
	}
	if c.Status != domain.CampaignStatusActive {
		return nil, fmt.Errorf("%w: campaign %s is %s", domain.ErrInvalidTransition, c.Name, c.Status)
	}

	c.CompletedCalls += calls
	c.Spent += cost
	if c.CompletedCalls >= c.TargetCalls {
		c.Status = domain.CampaignStatusCompleted
		logger.Info(ctx, "Campaign reached its target", zap.String("campaign_id", id), zap.Int("completed_calls", c.CompletedCalls))
	}
	return cloneCampaign(c), nil
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	var out domain.Campaign
	if err := copier.CopyWithOption(&out, c, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("Failed to copy campaign", zap.String("campaign_id", c.ID), zap.Error(err))
		out = *c
	}
	return &out
}
