package handler

import (
	"net/http"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/gorilla/mux"
)

// SessionHandler serves the per-session settings
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) store(r *http.Request) *session.Store {
	return h.sessions.Get(SessionID(r.Context()))
}

// GetCredentials godoc
// @Summary Session credentials
// @Description The calling API key is masked to its last four characters
// @Tags session
// @Produce json
// @Success 200 {object} session.Credentials
// @Router /api/session/credentials [get]
func (h *SessionHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store(r).Credentials().Masked())
}

// PutCredentials godoc
// @Summary Replace session credentials
// @Tags session
// @Accept json
// @Produce json
// @Param request body session.Credentials true "Credentials"
// @Success 200 {object} session.Credentials
// @Failure 400 {object} ErrorResponse
// @Router /api/session/credentials [put]
func (h *SessionHandler) PutCredentials(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, err)
		return
	}
	store := h.store(r)
	store.SetCredentials(creds)
	writeJSON(w, http.StatusOK, store.Credentials().Masked())
}

// GetPreferences godoc
// @Summary Session display preferences
// @Tags session
// @Produce json
// @Success 200 {object} session.Preferences
// @Router /api/session/preferences [get]
func (h *SessionHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store(r).Preferences())
}

// PutPreferences godoc
// @Summary Replace display preferences
// @Tags session
// @Accept json
// @Produce json
// @Param request body session.Preferences true "Preferences"
// @Success 200 {object} session.Preferences
// @Failure 400 {object} ErrorResponse
// @Router /api/session/preferences [put]
func (h *SessionHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs session.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		writeError(w, r, err)
		return
	}
	store := h.store(r)
	if err := store.SetPreferences(prefs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Preferences())
}

// GetNotifications godoc
// @Summary Session notification settings
// @Tags session
// @Produce json
// @Success 200 {object} session.NotificationSettings
// @Router /api/session/notifications [get]
func (h *SessionHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store(r).Notifications())
}

// PutNotifications godoc
// @Summary Replace notification settings
// @Tags session
// @Accept json
// @Produce json
// @Param request body session.NotificationSettings true "Notification settings"
// @Success 200 {object} session.NotificationSettings
// @Failure 400 {object} ErrorResponse
// @Router /api/session/notifications [put]
func (h *SessionHandler) PutNotifications(w http.ResponseWriter, r *http.Request) {
	var n session.NotificationSettings
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	store := h.store(r)
	if err := store.SetNotifications(n); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Notifications())
}

// SetupSessionRoutes sets up session settings routes
func (h *SessionHandler) SetupSessionRoutes(router *mux.Router) {
	router.HandleFunc("/session/credentials", h.GetCredentials).Methods("GET")
	router.HandleFunc("/session/credentials", h.PutCredentials).Methods("PUT")
	router.HandleFunc("/session/preferences", h.GetPreferences).Methods("GET")
	router.HandleFunc("/session/preferences", h.PutPreferences).Methods("PUT")
	router.HandleFunc("/session/notifications", h.GetNotifications).Methods("GET")
	router.HandleFunc("/session/notifications", h.PutNotifications).Methods("PUT")
}
