package handler

import (
	"fmt"
	"net/http"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/call"
	"github.com/gorilla/mux"
)

// CallHandler serves the live call center of one session
type CallHandler struct {
	sessions  *session.Manager
	calls     *call.Service
	liveCalls LiveCallLookup
}

// NewCallHandler creates a new call handler. liveCalls may be nil.
func NewCallHandler(sessions *session.Manager, calls *call.Service, liveCalls LiveCallLookup) *CallHandler {
	return &CallHandler{sessions: sessions, calls: calls, liveCalls: liveCalls}
}

// InitiateCallRequest places one outbound call
type InitiateCallRequest struct {
	AssistantID string `json:"assistant_id"`
	PhoneNumber string `json:"phone_number"`
	Prompt      string `json:"prompt,omitempty"`
}

// CallEventRequest is a status callback from the calling API
type CallEventRequest struct {
	Status domain.CallStatus `json:"status"`
}

// InitiateCall godoc
// @Summary Place a call
// @Tags calls
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Param request body InitiateCallRequest true "Call request"
// @Success 201 {object} domain.InitiateResult
// @Failure 400 {object} ErrorResponse "Invalid input or missing API key"
// @Failure 404 {object} ErrorResponse
// @Router /api/calls [post]
func (h *CallHandler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	var req InitiateCallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	store := h.sessions.Get(SessionID(r.Context()))
	res, err := h.calls.InitiateCall(r.Context(), store, req.AssistantID, req.PhoneNumber, req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListActiveCalls godoc
// @Summary Active calls of the session
// @Tags calls
// @Produce json
// @Success 200 {array} domain.CallRecord
// @Router /api/calls/active [get]
func (h *CallHandler) ListActiveCalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Get(SessionID(r.Context())).ActiveCalls())
}

// ListCallHistory godoc
// @Summary Finished calls of the session
// @Tags calls
// @Produce json
// @Success 200 {array} domain.CallRecord
// @Router /api/calls/history [get]
func (h *CallHandler) ListCallHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Get(SessionID(r.Context())).History())
}

// GetCall godoc
// @Summary Get call status
// @Tags calls
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} domain.CallRecord
// @Failure 404 {object} ErrorResponse
// @Router /api/calls/{id} [get]
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(SessionID(r.Context()))
	rec, err := h.calls.GetCallStatus(r.Context(), store, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// EndCall godoc
// @Summary End a call
// @Tags calls
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} domain.CallRecord
// @Failure 404 {object} ErrorResponse
// @Router /api/calls/{id}/end [post]
func (h *CallHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(SessionID(r.Context()))
	rec, err := h.calls.EndCall(r.Context(), store, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// PostCallEvent godoc
// @Summary Apply a call status callback
// @Tags calls
// @Accept json
// @Produce json
// @Param id path string true "Call ID"
// @Param request body CallEventRequest true "New status"
// @Success 200 {object} domain.CallRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Transition not allowed"
// @Router /api/calls/{id}/events [post]
func (h *CallHandler) PostCallEvent(w http.ResponseWriter, r *http.Request) {
	var req CallEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, req.Status))
		return
	}

	store := h.sessions.Get(SessionID(r.Context()))
	rec, err := h.calls.ApplyCallback(r.Context(), store, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// LocateCall godoc
// @Summary Locate a live call on any instance
// @Tags calls
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} session.LiveCallInfo
// @Failure 404 {object} ErrorResponse
// @Router /api/calls/live/{id} [get]
func (h *CallHandler) LocateCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.liveCalls == nil {
		writeError(w, r, fmt.Errorf("%w: %s", domain.ErrCallNotFound, id))
		return
	}
	info, err := h.liveCalls.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SetupCallRoutes sets up live call routes
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls", h.InitiateCall).Methods("POST")
	router.HandleFunc("/calls/active", h.ListActiveCalls).Methods("GET")
	router.HandleFunc("/calls/history", h.ListCallHistory).Methods("GET")
	router.HandleFunc("/calls/live/{id}", h.LocateCall).Methods("GET")
	router.HandleFunc("/calls/{id}", h.GetCall).Methods("GET")
	router.HandleFunc("/calls/{id}/end", h.EndCall).Methods("POST")
	router.HandleFunc("/calls/{id}/events", h.PostCallEvent).Methods("POST")
}
