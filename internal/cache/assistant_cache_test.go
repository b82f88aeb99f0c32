package cache

import (
	"testing"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantCacheLookup(t *testing.T) {
	c := NewFleetCache()
	require.Equal(t, domain.FleetSize, c.Count())

	byID, err := c.Get("vapi_assistant_02")
	require.NoError(t, err)
	byKey, err := c.Get("assistant_2")
	require.NoError(t, err)
	assert.Equal(t, byID, byKey)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, domain.ErrAssistantNotFound)

	list := c.List()
	require.Len(t, list, domain.FleetSize)
	assert.Equal(t, "vapi_assistant_01", list[0].ID)
	assert.Equal(t, "vapi_assistant_25", list[24].ID)
}

func TestAssistantCacheReturnsCopies(t *testing.T) {
	c := NewFleetCache()

	p, err := c.Get("vapi_assistant_01")
	require.NoError(t, err)
	p.Voice = "mutated"
	p.SuccessRate = 0

	again, err := c.Get("vapi_assistant_01")
	require.NoError(t, err)
	assert.Equal(t, "alloy", again.Voice)
	assert.InDelta(t, 65.0, again.SuccessRate, 1e-9)
}

func TestAssistantCacheCounts(t *testing.T) {
	c := NewFleetCache()

	// statuses rotate active, idle, busy over 25 profiles
	assert.Equal(t, 9, c.ActiveCount())
	assert.Len(t, c.ListByStatus(domain.AssistantStatusIdle), 8)
	assert.Len(t, c.ListByStatus(domain.AssistantStatusIdle, domain.AssistantStatusBusy), 16)
	assert.Len(t, c.Specializations(), domain.FleetSize)
}

func TestAssistantCacheUpdateSettings(t *testing.T) {
	c := NewFleetCache()
	voice := "shimmer"
	lang := "fr-FR"

	updated, err := c.UpdateSettings([]string{"vapi_assistant_01", "assistant_3"}, domain.VoiceSettingsUpdate{Voice: &voice, Language: &lang})
	require.NoError(t, err)
	require.Len(t, updated, 2)

	p, _ := c.Get("vapi_assistant_03")
	assert.Equal(t, "shimmer", p.Voice)
	assert.Equal(t, "fr-FR", p.Language)
	assert.False(t, p.UpdatedAt.IsZero())

	_, err = c.UpdateSettings([]string{"vapi_assistant_01", "ghost"}, domain.VoiceSettingsUpdate{Voice: &voice})
	assert.ErrorIs(t, err, domain.ErrAssistantNotFound)

	bad := "robot"
	_, err = c.UpdateSettings([]string{"vapi_assistant_01"}, domain.VoiceSettingsUpdate{Voice: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.UpdateSettings(nil, domain.VoiceSettingsUpdate{Voice: &voice})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
