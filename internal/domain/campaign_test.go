package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCampaignProgress(t *testing.T) {
	c := &Campaign{TargetCalls: 5000, CompletedCalls: 3750, Budget: 2500, Spent: 1875}
	assert.InDelta(t, 75.0, c.Progress(), 1e-9)
	assert.InDelta(t, 75.0, c.BudgetUsed(), 1e-9)

	c.CompletedCalls = 6000
	assert.InDelta(t, 100.0, c.Progress(), 1e-9)

	empty := &Campaign{}
	assert.Zero(t, empty.Progress())
	assert.Zero(t, empty.BudgetUsed())
}

func TestCreateCampaignRequestValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := CreateCampaignRequest{Name: "Spring", TargetCalls: 100, Budget: 50, StartDate: start, EndDate: start.AddDate(0, 1, 0)}
	assert.NoError(t, valid.Validate())

	cases := map[string]CreateCampaignRequest{
		"blank name":      {Name: "  ", TargetCalls: 1},
		"zero target":     {Name: "x"},
		"negative budget": {Name: "x", TargetCalls: 1, Budget: -1},
		"end before":      {Name: "x", TargetCalls: 1, StartDate: start, EndDate: start.AddDate(0, 0, -1)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, req.Validate(), ErrInvalidInput)
		})
	}
}
