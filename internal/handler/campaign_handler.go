package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/campaign"
	"github.com/gorilla/mux"
)

// CampaignHandler serves outbound campaigns
type CampaignHandler struct {
	campaigns *campaign.Service
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaigns *campaign.Service) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// CampaignView is a campaign with its derived percentages
type CampaignView struct {
	*domain.Campaign
	Progress   float64 `json:"progress"`
	BudgetUsed float64 `json:"budget_used"`
}

func viewOf(c *domain.Campaign) CampaignView {
	return CampaignView{Campaign: c, Progress: c.Progress(), BudgetUsed: c.BudgetUsed()}
}

// ListCampaigns godoc
// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Param status query string false "Comma separated statuses (Active, Paused, Completed, Failed)"
// @Success 200 {array} CampaignView
// @Failure 400 {object} ErrorResponse
// @Router /api/campaigns [get]
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.CampaignStatus
	for _, s := range splitList(r.URL.Query().Get("status")) {
		st := domain.CampaignStatus(s)
		if !st.Valid() {
			writeError(w, r, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s))
			return
		}
		statuses = append(statuses, st)
	}

	campaigns := h.campaigns.List(statuses...)
	out := make([]CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, viewOf(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param request body domain.CreateCampaignRequest true "Campaign"
// @Success 201 {object} CampaignView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown assistant"
// @Failure 409 {object} ErrorResponse "Name already in use"
// @Router /api/campaigns [post]
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.campaigns.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(c))
}

// GetCampaign godoc
// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} CampaignView
// @Failure 404 {object} ErrorResponse
// @Router /api/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// PauseCampaign godoc
// @Summary Pause an active campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} CampaignView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/campaigns/{id}/pause [post]
func (h *CampaignHandler) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.campaigns.Pause)
}

// ResumeCampaign godoc
// @Summary Resume a paused campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} CampaignView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/campaigns/{id}/resume [post]
func (h *CampaignHandler) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.campaigns.Resume)
}

// CompleteCampaign godoc
// @Summary Complete a campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} CampaignView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/campaigns/{id}/complete [post]
func (h *CampaignHandler) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.campaigns.Complete)
}

func (h *CampaignHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*domain.Campaign, error)) {
	c, err := apply(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// SetupCampaignRoutes sets up campaign routes
func (h *CampaignHandler) SetupCampaignRoutes(router *mux.Router) {
	router.HandleFunc("/campaigns", h.ListCampaigns).Methods("GET")
	router.HandleFunc("/campaigns", h.CreateCampaign).Methods("POST")
	router.HandleFunc("/campaigns/{id}", h.GetCampaign).Methods("GET")
	router.HandleFunc("/campaigns/{id}/pause", h.PauseCampaign).Methods("POST")
	router.HandleFunc("/campaigns/{id}/resume", h.ResumeCampaign).Methods("POST")
	router.HandleFunc("/campaigns/{id}/complete", h.CompleteCampaign).Methods("POST")
}
