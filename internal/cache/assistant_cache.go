package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// AssistantCache holds the fleet's assistant profiles in memory.
// Reads return deep copies so callers can never mutate the reference data.
type AssistantCache struct {
	assistants map[string]*domain.AssistantProfile // id -> profile
	keyIndex   map[string]string                   // key (assistant_N) -> id
	order      []string
	mutex      sync.RWMutex
}

// NewAssistantCache returns a cache seeded with profiles
func NewAssistantCache(profiles []*domain.AssistantProfile) *AssistantCache {
	c := &AssistantCache{
		assistants: make(map[string]*domain.AssistantProfile, len(profiles)),
		keyIndex:   make(map[string]string, len(profiles)),
		order:      make([]string, 0, len(profiles)),
	}

	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			logger.Base().Warn("Skipping invalid assistant profile", zap.Error(err))
			continue
		}
		if _, exists := c.assistants[p.ID]; exists {
			continue
		}
		c.assistants[p.ID] = copyProfile(p)
		if p.Key != "" {
			c.keyIndex[p.Key] = p.ID
		}
		c.order = append(c.order, p.ID)
	}

	logger.Base().Info("AssistantCache initialized", zap.Int("assistants", len(c.order)))
	return c
}

// NewFleetCache returns a cache holding the generated fleet
func NewFleetCache() *AssistantCache {
	return NewAssistantCache(domain.GenerateFleet())
}

// Get retrieves an assistant by ID or key (assistant_N)
func (c *AssistantCache) Get(idOrKey string) (*domain.AssistantProfile, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if p, ok := c.lookup(idOrKey); ok {
		return copyProfile(p), nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAssistantNotFound, idOrKey)
}

// List returns every assistant in fleet order
func (c *AssistantCache) List() []*domain.AssistantProfile {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]*domain.AssistantProfile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyProfile(c.assistants[id]))
	}
	return out
}

// ListByStatus returns assistants whose status is one of statuses
func (c *AssistantCache) ListByStatus(statuses ...domain.AssistantStatus) []*domain.AssistantProfile {
	want := make(map[domain.AssistantStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]*domain.AssistantProfile, 0)
	for _, id := range c.order {
		if p := c.assistants[id]; want[p.Status] {
			out = append(out, copyProfile(p))
		}
	}
	return out
}

// Specializations returns the distinct specialization tags, sorted
func (c *AssistantCache) Specializations() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range c.assistants {
		if !seen[p.Specialization] {
			seen[p.Specialization] = true
			out = append(out, p.Specialization)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of assistants
func (c *AssistantCache) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.assistants)
}

// ActiveCount returns the number of assistants in the active status
func (c *AssistantCache) ActiveCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	count := 0
	for _, p := range c.assistants {
		if p.Status == domain.AssistantStatusActive {
			count++
		}
	}
	return count
}

// UpdateSettings applies update to every listed assistant. The whole batch is
// rejected if any id is unknown or the update is invalid.
func (c *AssistantCache) UpdateSettings(ids []string, update domain.VoiceSettingsUpdate) ([]*domain.AssistantProfile, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no assistants selected", domain.ErrInvalidInput)
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	targets := make([]*domain.AssistantProfile, 0, len(ids))
	for _, id := range ids {
		p, ok := c.lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssistantNotFound, id)
		}
		targets = append(targets, p)
	}

	now := time.Now()
	updated := make([]*domain.AssistantProfile, 0, len(targets))
	for _, p := range targets {
		update.Apply(p)
		p.UpdatedAt = now
		updated = append(updated, copyProfile(p))
	}

	logger.Base().Info("Assistant settings updated", zap.Int("count", len(updated)))
	return updated, nil
}

func (c *AssistantCache) lookup(idOrKey string) (*domain.AssistantProfile, bool) {
	if p, ok := c.assistants[idOrKey]; ok {
		return p, true
	}
	if id, ok := c.keyIndex[idOrKey]; ok {
		p, ok := c.assistants[id]
		return p, ok
	}
	return nil, false
}

// copyProfile deep copies a profile with copier so new fields are picked up automatically
func copyProfile(original *domain.AssistantProfile) *domain.AssistantProfile {
	if original == nil {
		return nil
	}

	var copy domain.AssistantProfile
	if err := copier.CopyWithOption(&copy, original, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("Failed to copy assistant profile", zap.Error(err))
		copy = *original
	}
	return &copy
}

func validateProfile(p *domain.AssistantProfile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if p.ID == "" {
		return fmt.Errorf("profile has empty ID")
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s has empty Name", p.ID)
	}
	return nil
}
