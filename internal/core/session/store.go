package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Views a user may pick as their landing page
var Views = []string{
	"Dashboard", "Call Center", "Analytics", "Reports", "Call Logs",
	"Campaigns", "Bulk Operations", "Monitor", "Settings",
}

// Credentials holds the per-session integration secrets
type Credentials struct {
	VapiAPIKey      string `json:"vapi_api_key,omitempty"`
	SheetsConnected bool   `json:"sheets_connected"`
}

// HasAPIKey reports whether a calling-API key is present
func (c Credentials) HasAPIKey() bool {
	return strings.TrimSpace(c.VapiAPIKey) != ""
}

// Masked returns a copy safe to send back to clients
func (c Credentials) Masked() Credentials {
	out := c
	if len(c.VapiAPIKey) > 4 {
		out.VapiAPIKey = strings.Repeat("*", len(c.VapiAPIKey)-4) + c.VapiAPIKey[len(c.VapiAPIKey)-4:]
	} else if c.VapiAPIKey != "" {
		out.VapiAPIKey = "****"
	}
	return out
}

// Preferences are the user's display settings
type Preferences struct {
	Theme           string `json:"theme"`
	AutoRefresh     bool   `json:"auto_refresh"`
	RefreshInterval int    `json:"refresh_interval"`
	DefaultView     string `json:"default_view"`
}

// DefaultPreferences returns the settings a new session starts with
func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", AutoRefresh: true, RefreshInterval: 30, DefaultView: "Dashboard"}
}

// Validate checks the preference values
func (p Preferences) Validate() error {
	if p.Theme != "light" && p.Theme != "dark" {
		return fmt.Errorf("%w: theme must be light or dark", domain.ErrInvalidInput)
	}
	if p.RefreshInterval < 5 || p.RefreshInterval > 300 {
		return fmt.Errorf("%w: refresh_interval must be within [5, 300]", domain.ErrInvalidInput)
	}
	for _, v := range Views {
		if v == p.DefaultView {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown view %q", domain.ErrInvalidInput, p.DefaultView)
}

// NotificationSettings controls which alerts the user receives
type NotificationSettings struct {
	EmailAlerts    bool   `json:"email_alerts"`
	SMSAlerts      bool   `json:"sms_alerts"`
	WebhookAlerts  bool   `json:"webhook_alerts"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	AlertThreshold int    `json:"alert_threshold"`
}

// DefaultNotifications returns the settings a new session starts with
func DefaultNotifications() NotificationSettings {
	return NotificationSettings{EmailAlerts: true, AlertThreshold: 80}
}

// Validate checks the notification values
func (n NotificationSettings) Validate() error {
	if n.AlertThreshold < 0 || n.AlertThreshold > 100 {
		return fmt.Errorf("%w: alert_threshold must be within [0, 100]", domain.ErrInvalidInput)
	}
	if n.WebhookAlerts && strings.TrimSpace(n.WebhookURL) == "" {
		return fmt.Errorf("%w: webhook_url is required when webhook alerts are on", domain.ErrInvalidInput)
	}
	return nil
}

// Store is the state of one user session: live calls, call history and settings.
// It is passed explicitly to the services that need it.
type Store struct {
	id            string
	mutex         sync.Mutex
	activeCalls   map[string]*domain.CallRecord
	history       []*domain.CallRecord
	credentials   Credentials
	preferences   Preferences
	notifications NotificationSettings
	createdAt     time.Time
	lastSeen      time.Time
}

// NewStore creates an empty session store
func NewStore(id string, creds Credentials) *Store {
	now := time.Now()
	return &Store{
		id:            id,
		activeCalls:   make(map[string]*domain.CallRecord),
		history:       make([]*domain.CallRecord, 0),
		credentials:   creds,
		preferences:   DefaultPreferences(),
		notifications: DefaultNotifications(),
		createdAt:     now,
		lastSeen:      now,
	}
}

// ID returns the session identifier
func (s *Store) ID() string {
	return s.id
}

func (s *Store) touch() {
	s.lastSeen = time.Now()
}

// LastSeen returns when the session was last used
func (s *Store) LastSeen() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastSeen
}

// AddCall records a newly initiated call in the active set
func (s *Store) AddCall(rec *domain.CallRecord) error {
	if rec == nil || rec.CallID == "" {
		return fmt.Errorf("%w: call record requires an id", domain.ErrInvalidInput)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()

	if _, exists := s.activeCalls[rec.CallID]; exists {
		return fmt.Errorf("%w: call %s already active", domain.ErrInvalidInput, rec.CallID)
	}
	s.activeCalls[rec.CallID] = cloneCall(rec)
	return nil
}

// Call returns a copy of a call from the active set or, failing that, from history
func (s *Store) Call(callID string) (*domain.CallRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()

	if rec, ok := s.activeCalls[callID]; ok {
		return cloneCall(rec), nil
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].CallID == callID {
			return cloneCall(s.history[i]), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, callID)
}

// Transition moves an active call to next. Terminal states move the call to history.
func (s *Store) Transition(callID string, next domain.CallStatus, at time.Time) (*domain.CallRecord, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()

	rec, ok := s.activeCalls[callID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, callID)
	}
	if !rec.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rec.Status, next)
	}

	if !next.IsTerminal() {
		rec.Status = next
		return cloneCall(rec), nil
	}
	return s.finishLocked(rec, next, at)
}

// End completes an active call from any non-terminal state
func (s *Store) End(callID string, at time.Time) (*domain.CallRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()

	rec, ok := s.activeCalls[callID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, callID)
	}
	return s.finishLocked(rec, domain.CallStatusCompleted, at)
}

func (s *Store) finishLocked(rec *domain.CallRecord, status domain.CallStatus, at time.Time) (*domain.CallRecord, error) {
	if err := rec.Finish(status, at); err != nil {
		return nil, err
	}
	delete(s.activeCalls, rec.CallID)
	s.history = append(s.history, rec)
	return cloneCall(rec), nil
}

// ActiveCalls returns copies of the active calls, oldest first
func (s *Store) ActiveCalls() []*domain.CallRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*domain.CallRecord, 0, len(s.activeCalls))
	for _, rec := range s.activeCalls {
		out = append(out, cloneCall(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].CallID < out[j].CallID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// ActiveCount returns the number of active calls
func (s *Store) ActiveCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.activeCalls)
}

// History returns copies of the finished calls, most recent first
func (s *Store) History() []*domain.CallRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*domain.CallRecord, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		out = append(out, cloneCall(s.history[i]))
	}
	return out
}

// Credentials returns the session credentials
func (s *Store) Credentials() Credentials {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.credentials
}

// SetCredentials replaces the session credentials
func (s *Store) SetCredentials(c Credentials) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()
	s.credentials = c
}

// Preferences returns the display settings
func (s *Store) Preferences() Preferences {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.preferences
}

// SetPreferences validates and stores display settings
func (s *Store) SetPreferences(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()
	s.preferences = p
	return nil
}

// Notifications returns the alert settings
func (s *Store) Notifications() NotificationSettings {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.notifications
}

// SetNotifications validates and stores alert settings
func (s *Store) SetNotifications(n NotificationSettings) error {
	if err := n.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.touch()
	s.notifications = n
	return nil
}

// cloneCall deep copies a record so EndTime and CustomData are never shared
func cloneCall(rec *domain.CallRecord) *domain.CallRecord {
	var out domain.CallRecord
	if err := copier.CopyWithOption(&out, rec, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("Failed to copy call record", zap.String("call_id", rec.CallID), zap.Error(err))
		out = *rec
	}
	return &out
}
