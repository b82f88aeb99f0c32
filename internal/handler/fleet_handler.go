package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/gorilla/mux"
)

// FleetHandler serves the assistant registry
type FleetHandler struct {
	fleet   *cache.AssistantCache
	reports *report.Service
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(fleet *cache.AssistantCache, reports *report.Service) *FleetHandler {
	return &FleetHandler{fleet: fleet, reports: reports}
}

// BulkConfigRequest applies one settings update to several assistants
type BulkConfigRequest struct {
	AssistantIDs []string                   `json:"assistant_ids"`
	Settings     domain.VoiceSettingsUpdate `json:"settings"`
}

// ListAssistants godoc
// @Summary List assistants
// @Description List the fleet, optionally filtered by status and specialization
// @Tags assistants
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param specialization query string false "Specialization"
// @Success 200 {array} domain.AssistantProfile
// @Failure 400 {object} ErrorResponse
// @Router /api/assistants [get]
func (h *FleetHandler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	profiles := h.fleet.List()
	if raw := r.URL.Query().Get("status"); raw != "" {
		var statuses []domain.AssistantStatus
		for _, s := range splitList(raw) {
			st := domain.AssistantStatus(strings.ToLower(s))
			if !st.Valid() {
				writeError(w, r, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s))
				return
			}
			statuses = append(statuses, st)
		}
		profiles = h.fleet.ListByStatus(statuses...)
	}

	if spec := r.URL.Query().Get("specialization"); spec != "" {
		filtered := profiles[:0]
		for _, p := range profiles {
			if strings.EqualFold(p.Specialization, spec) {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	writeJSON(w, http.StatusOK, profiles)
}

// GetAssistant godoc
// @Summary Get assistant
// @Tags assistants
// @Produce json
// @Param id path string true "Assistant ID or key"
// @Success 200 {object} domain.AssistantProfile
// @Failure 404 {object} ErrorResponse
// @Router /api/assistants/{id} [get]
func (h *FleetHandler) GetAssistant(w http.ResponseWriter, r *http.Request) {
	p, err := h.fleet.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetAssistantMetrics godoc
// @Summary Get assistant metrics
// @Description Synthetic operational metrics read through the assistant's sheet
// @Tags assistants
// @Produce json
// @Param id path string true "Assistant ID or key"
// @Success 200 {object} domain.MetricsBundle
// @Failure 404 {object} ErrorResponse
// @Router /api/assistants/{id}/metrics [get]
func (h *FleetHandler) GetAssistantMetrics(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.reports.AssistantMetrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// GetAssistantCalls godoc
// @Summary Get assistant call log
// @Tags assistants
// @Produce json
// @Param id path string true "Assistant ID or key"
// @Param limit query int false "Rows to return (default 50, max 200)"
// @Success 200 {array} domain.SyntheticCallRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/assistants/{id}/calls [get]
func (h *FleetHandler) GetAssistantCalls(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit < 0 {
		writeError(w, r, fmt.Errorf("%w: limit cannot be negative", domain.ErrInvalidInput))
		return
	}

	records, err := h.reports.AssistantCalls(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// UpdateAssistantConfig godoc
// @Summary Bulk update assistant settings
// @Description Apply voice, language, speed, temperature or prompt settings to several assistants at once
// @Tags assistants
// @Accept json
// @Produce json
// @Param request body BulkConfigRequest true "Assistants and settings"
// @Success 200 {array} domain.AssistantProfile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/assistants/config [put]
func (h *FleetHandler) UpdateAssistantConfig(w http.ResponseWriter, r *http.Request) {
	var req BulkConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.fleet.UpdateSettings(req.AssistantIDs, req.Settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SetupFleetRoutes sets up assistant routes
func (h *FleetHandler) SetupFleetRoutes(router *mux.Router) {
	router.HandleFunc("/assistants", h.ListAssistants).Methods("GET")
	router.HandleFunc("/assistants/config", h.UpdateAssistantConfig).Methods("PUT")
	router.HandleFunc("/assistants/{id}", h.GetAssistant).Methods("GET")
	router.HandleFunc("/assistants/{id}/metrics", h.GetAssistantMetrics).Methods("GET")
	router.HandleFunc("/assistants/{id}/calls", h.GetAssistantCalls).Methods("GET")
}

// splitList splits a comma separated query value, dropping blanks
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
