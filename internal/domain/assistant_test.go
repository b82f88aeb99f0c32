package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFleet(t *testing.T) {
	fleet := GenerateFleet()
	require.Len(t, fleet, FleetSize)

	first := fleet[0]
	assert.Equal(t, "vapi_assistant_01", first.ID)
	assert.Equal(t, "assistant_1", first.Key)
	assert.Equal(t, "Sales & Lead Generation", first.Specialization)
	assert.Equal(t, "+1-555-1000", first.PhoneNumber)
	assert.Equal(t, "alloy", first.Voice)
	assert.Equal(t, "en-US", first.Language)
	assert.Equal(t, "none", first.BackgroundSound)
	assert.Equal(t, ResponseSpeedSlow, first.ResponseSpeed)
	assert.Equal(t, AssistantStatusActive, first.Status)
	assert.Equal(t, SheetIDPrefix+"1", first.SheetID)

	last := fleet[24]
	assert.Equal(t, "vapi_assistant_25", last.ID)
	assert.Equal(t, "Subscription Management", last.Specialization)
	assert.Equal(t, "+1-555-1024", last.PhoneNumber)
	assert.Equal(t, Voices[0], last.Voice)
	assert.Equal(t, Languages[0], last.Language)
	assert.Equal(t, BackgroundSounds[3], last.BackgroundSound)
	assert.Equal(t, 300+24*30, last.MaxDuration)
	assert.InDelta(t, 0.78, last.Temperature, 1e-9)
	assert.InDelta(t, 0.29, last.CostPerMinute, 1e-9)
	assert.InDelta(t, 93.8, last.SuccessRate, 1e-9)
	assert.Equal(t, 1300, last.TotalCalls)
	assert.InDelta(t, 6500, last.TotalRevenue, 1e-9)

	seen := make(map[string]bool)
	for _, p := range fleet {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.True(t, p.Status.Valid())
		assert.True(t, p.ResponseSpeed.Valid())
	}
}

func TestVoiceSettingsUpdate(t *testing.T) {
	voice := "nova"
	badLang := "xx-XX"
	speed := ResponseSpeedFast
	temp := 0.9

	update := VoiceSettingsUpdate{Voice: &voice, ResponseSpeed: &speed, Temperature: &temp}
	require.NoError(t, update.Validate())

	p := NewAssistantProfile(0)
	update.Apply(p)
	assert.Equal(t, "nova", p.Voice)
	assert.Equal(t, ResponseSpeedFast, p.ResponseSpeed)
	assert.InDelta(t, 0.9, p.Temperature, 1e-9)
	assert.Equal(t, "en-US", p.Language)

	err := VoiceSettingsUpdate{Language: &badLang}.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
}
