package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/config"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/importer"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/call"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/campaign"
	"github.com/gorilla/mux"
)

// maxUploadSize bounds the multipart body of a batch upload
const maxUploadSize = 10 << 20

// BatchHandler serves bulk dialing from uploaded contact files
type BatchHandler struct {
	sessions  *session.Manager
	fleet     *cache.AssistantCache
	batches   *call.BatchDialer
	campaigns *campaign.Service
	defaults  config.BatchConfig
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(sessions *session.Manager, fleet *cache.AssistantCache, batches *call.BatchDialer, campaigns *campaign.Service, defaults config.BatchConfig) *BatchHandler {
	return &BatchHandler{sessions: sessions, fleet: fleet, batches: batches, campaigns: campaigns, defaults: defaults}
}

// BatchResponse is returned when a batch job is started
type BatchResponse struct {
	Job      *call.BatchJob `json:"job"`
	Columns  []string       `json:"columns"`
	Phone    string         `json:"phone_column"`
	Contacts int            `json:"contacts"`
	Skipped  int            `json:"skipped"`
}

// BatchStatus is a job with its progress
type BatchStatus struct {
	call.BatchJob
	Progress float64 `json:"progress"`
}

// StartBatch godoc
// @Summary Start a batch dial
// @Description Upload a CSV or XLSX contact file and dial every number through one assistant
// @Tags batches
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Contact file (.csv or .xlsx)"
// @Param assistant_id formData string true "Assistant ID or key"
// @Param campaign_id formData string false "Active campaign credited with the calls"
// @Param prompt formData string false "Prompt override"
// @Param batch_size formData int false "Calls per batch (1-50)"
// @Param delay_seconds formData int false "Seconds between batches"
// @Success 202 {object} BatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Campaign is not active"
// @Failure 422 {object} ErrorResponse "Unreadable file or missing phone column"
// @Router /api/batches [post]
func (h *BatchHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, r, fmt.Errorf("%w: expected a multipart upload: %v", domain.ErrInvalidInput, err))
		return
	}

	opts, err := h.options(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: file is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	format, err := importer.FormatFromFilename(header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parsed, err := importer.Parse(file, format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	store := h.sessions.Get(SessionID(r.Context()))
	job, err := h.batches.Start(r.Context(), store, parsed.Phones(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, BatchResponse{
		Job:      job,
		Columns:  parsed.Columns,
		Phone:    parsed.PhoneColumn,
		Contacts: len(parsed.Contacts),
		Skipped:  parsed.Skipped,
	})
}

// options reads and validates the form fields of a batch upload
func (h *BatchHandler) options(r *http.Request) (call.BatchOptions, error) {
	opts := call.BatchOptions{
		AssistantID: strings.TrimSpace(r.FormValue("assistant_id")),
		CampaignID:  strings.TrimSpace(r.FormValue("campaign_id")),
		Prompt:      r.FormValue("prompt"),
		BatchSize:   h.defaults.Size,
		Delay:       h.defaults.Delay,
	}

	if opts.AssistantID == "" {
		return opts, fmt.Errorf("%w: assistant_id is required", domain.ErrInvalidInput)
	}
	profile, err := h.fleet.Get(opts.AssistantID)
	if err != nil {
		return opts, err
	}
	opts.AssistantID = profile.ID

	if raw := r.FormValue("batch_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > call.MaxBatchSize {
			return opts, fmt.Errorf("%w: batch_size must be within [1, %d]", domain.ErrInvalidInput, call.MaxBatchSize)
		}
		opts.BatchSize = size
	}
	if raw := r.FormValue("delay_seconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return opts, fmt.Errorf("%w: delay_seconds must be a non-negative integer", domain.ErrInvalidInput)
		}
		opts.Delay = time.Duration(secs) * time.Second
	}

	if opts.CampaignID != "" {
		c, err := h.campaigns.Get(opts.CampaignID)
		if err != nil {
			return opts, err
		}
		if c.Status != domain.CampaignStatusActive {
			return opts, fmt.Errorf("%w: campaign %s is %s", domain.ErrInvalidTransition, c.ID, c.Status)
		}
	}
	return opts, nil
}

// ListBatches godoc
// @Summary Batch jobs of the session
// @Tags batches
// @Produce json
// @Success 200 {array} BatchStatus
// @Router /api/batches [get]
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	jobs := h.batches.List(SessionID(r.Context()))
	out := make([]BatchStatus, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, BatchStatus{BatchJob: j, Progress: j.Progress()})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBatch godoc
// @Summary Batch job progress
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} BatchStatus
// @Failure 404 {object} ErrorResponse
// @Router /api/batches/{id} [get]
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	job, err := h.owned(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchStatus{BatchJob: *job, Progress: job.Progress()})
}

// CancelBatch godoc
// @Summary Cancel a batch job
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} BatchStatus
// @Failure 404 {object} ErrorResponse
// @Router /api/batches/{id} [delete]
func (h *BatchHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	if _, err := h.owned(r); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := h.batches.Cancel(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchStatus{BatchJob: *job, Progress: job.Progress()})
}

// owned returns the job named in the path if it belongs to the caller's session
func (h *BatchHandler) owned(r *http.Request) (*call.BatchJob, error) {
	id := mux.Vars(r)["id"]
	job, err := h.batches.Get(id)
	if err != nil {
		return nil, err
	}
	if job.SessionID != SessionID(r.Context()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	return job, nil
}

// SetupBatchRoutes sets up batch dialing routes
func (h *BatchHandler) SetupBatchRoutes(router *mux.Router) {
	router.HandleFunc("/batches", h.StartBatch).Methods("POST")
	router.HandleFunc("/batches", h.ListBatches).Methods("GET")
	router.HandleFunc("/batches/{id}", h.GetBatch).Methods("GET")
	router.HandleFunc("/batches/{id}", h.CancelBatch).Methods("DELETE")
}
