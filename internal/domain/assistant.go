package domain

import (
	"fmt"
	"time"
)

// AssistantStatus is the operational status of an assistant persona
type AssistantStatus string

const (
	AssistantStatusActive      AssistantStatus = "active"
	AssistantStatusIdle        AssistantStatus = "idle"
	AssistantStatusBusy        AssistantStatus = "busy"
	AssistantStatusMaintenance AssistantStatus = "maintenance"
	AssistantStatusError       AssistantStatus = "error"
)

// Valid reports whether s is a known assistant status
func (s AssistantStatus) Valid() bool {
	switch s {
	case AssistantStatusActive, AssistantStatusIdle, AssistantStatusBusy,
		AssistantStatusMaintenance, AssistantStatusError:
		return true
	}
	return false
}

// ResponseSpeed controls how quickly an assistant answers
type ResponseSpeed string

const (
	ResponseSpeedSlow   ResponseSpeed = "slow"
	ResponseSpeedNormal ResponseSpeed = "normal"
	ResponseSpeedFast   ResponseSpeed = "fast"
)

// Valid reports whether s is a known response speed
func (s ResponseSpeed) Valid() bool {
	switch s {
	case ResponseSpeedSlow, ResponseSpeedNormal, ResponseSpeedFast:
		return true
	}
	return false
}

// FleetSize is the number of assistant profiles generated at startup
const FleetSize = 25

// SheetIDPrefix is shared by every assistant's backing spreadsheet
const SheetIDPrefix = "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms_"

var (
	Specializations = []string{
		"Sales & Lead Generation", "Customer Support", "Appointment Scheduling",
		"Market Research & Surveys", "Debt Collection", "Insurance Claims",
		"Real Estate Inquiries", "Healthcare Appointments", "E-commerce Support",
		"Technical Support", "Event Registration", "Fundraising & Donations",
		"Product Demonstrations", "Quality Assurance", "Emergency Response",
		"Educational Outreach", "Political Campaigns", "Travel Booking",
		"Financial Services", "Legal Consultations", "HR Recruitment",
		"Property Management", "Automotive Services", "Food Delivery",
		"Subscription Management",
	}

	Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer", "custom_voice_1", "custom_voice_2"}

	Languages = []string{"en-US", "en-GB", "es-ES", "es-MX", "fr-FR", "de-DE", "it-IT", "pt-BR", "ja-JP", "ko-KR", "zh-CN", "hi-IN"}

	BackgroundSounds = []string{"none", "office", "cafe", "nature", "city", "white_noise", "classical_music"}

	rotatingStatuses = []AssistantStatus{AssistantStatusActive, AssistantStatusIdle, AssistantStatusBusy}
	rotatingSpeeds   = []ResponseSpeed{ResponseSpeedSlow, ResponseSpeedNormal, ResponseSpeedFast}
)

// AssistantProfile is the reference record of one AI voice-call persona.
// Baseline fields (cost, success rate, calls, revenue) never change after startup.
type AssistantProfile struct {
	ID              string          `json:"id"`
	Key             string          `json:"key"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Specialization  string          `json:"specialization"`
	PhoneNumber     string          `json:"phone_number"`
	Voice           string          `json:"voice"`
	Language        string          `json:"language"`
	BackgroundSound string          `json:"background_sound"`
	MaxDuration     int             `json:"max_duration"`
	Temperature     float64         `json:"temperature"`
	ResponseSpeed   ResponseSpeed   `json:"response_speed"`
	CustomPrompt    string          `json:"custom_prompt"`
	SheetID         string          `json:"sheet_id"`
	Status          AssistantStatus `json:"status"`
	CostPerMinute   float64         `json:"cost_per_minute"`
	SuccessRate     float64         `json:"success_rate"`
	TotalCalls      int             `json:"total_calls"`
	TotalRevenue    float64         `json:"total_revenue"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewAssistantProfile builds the profile at fleet index i (0-based)
func NewAssistantProfile(i int) *AssistantProfile {
	spec := "General Purpose"
	if i < len(Specializations) {
		spec = Specializations[i]
	}

	return &AssistantProfile{
		ID:              fmt.Sprintf("vapi_assistant_%02d", i+1),
		Key:             fmt.Sprintf("assistant_%d", i+1),
		Name:            fmt.Sprintf("AI Assistant %d - %s", i+1, spec),
		Description:     fmt.Sprintf("Specialized AI assistant for %s", spec),
		Specialization:  spec,
		PhoneNumber:     fmt.Sprintf("+1-555-%04d", 1000+i),
		Voice:           Voices[i%len(Voices)],
		Language:        Languages[i%len(Languages)],
		BackgroundSound: BackgroundSounds[i%len(BackgroundSounds)],
		MaxDuration:     300 + i*30,
		Temperature:     0.3 + float64(i)*0.02,
		ResponseSpeed:   rotatingSpeeds[i%len(rotatingSpeeds)],
		CustomPrompt:    fmt.Sprintf("You are a professional %s assistant.", spec),
		SheetID:         fmt.Sprintf("%s%d", SheetIDPrefix, i+1),
		Status:          rotatingStatuses[i%len(rotatingStatuses)],
		CostPerMinute:   0.05 + float64(i)*0.01,
		SuccessRate:     65 + float64(i)*1.2,
		TotalCalls:      100 + i*50,
		TotalRevenue:    500 + float64(i)*250,
	}
}

// GenerateFleet builds the full set of assistant profiles
func GenerateFleet() []*AssistantProfile {
	fleet := make([]*AssistantProfile, 0, FleetSize)
	for i := 0; i < FleetSize; i++ {
		fleet = append(fleet, NewAssistantProfile(i))
	}
	return fleet
}

// VoiceSettingsUpdate carries the mutable per-assistant settings. Nil fields are left unchanged.
type VoiceSettingsUpdate struct {
	Voice           *string        `json:"voice,omitempty"`
	Language        *string        `json:"language,omitempty"`
	BackgroundSound *string        `json:"background_sound,omitempty"`
	ResponseSpeed   *ResponseSpeed `json:"response_speed,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	CustomPrompt    *string        `json:"custom_prompt,omitempty"`
}

// Validate checks every set field against the known vocabularies
func (u VoiceSettingsUpdate) Validate() error {
	if u.Voice != nil && !contains(Voices, *u.Voice) {
		return fmt.Errorf("%w: unknown voice %q", ErrInvalidInput, *u.Voice)
	}
	if u.Language != nil && !contains(Languages, *u.Language) {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidInput, *u.Language)
	}
	if u.BackgroundSound != nil && !contains(BackgroundSounds, *u.BackgroundSound) {
		return fmt.Errorf("%w: unknown background sound %q", ErrInvalidInput, *u.BackgroundSound)
	}
	if u.ResponseSpeed != nil && !u.ResponseSpeed.Valid() {
		return fmt.Errorf("%w: unknown response speed %q", ErrInvalidInput, *u.ResponseSpeed)
	}
	if u.Temperature != nil && (*u.Temperature < 0 || *u.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be within [0, 2]", ErrInvalidInput)
	}
	return nil
}

// Apply copies the set fields onto p
func (u VoiceSettingsUpdate) Apply(p *AssistantProfile) {
	if u.Voice != nil {
		p.Voice = *u.Voice
	}
	if u.Language != nil {
		p.Language = *u.Language
	}
	if u.BackgroundSound != nil {
		p.BackgroundSound = *u.BackgroundSound
	}
	if u.ResponseSpeed != nil {
		p.ResponseSpeed = *u.ResponseSpeed
	}
	if u.Temperature != nil {
		p.Temperature = *u.Temperature
	}
	if u.CustomPrompt != nil {
		p.CustomPrompt = *u.CustomPrompt
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
