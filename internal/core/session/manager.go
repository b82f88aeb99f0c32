package session

import (
	"context"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// DefaultSessionID is used when a request carries no session header
const DefaultSessionID = "default"

// Manager owns the session stores of every connected user
type Manager struct {
	stores      map[string]*Store
	mutex       sync.RWMutex
	defaultCred Credentials
	onEvict     []func(sessionID string)
}

// NewManager returns a manager whose new sessions start with defaultCred
func NewManager(defaultCred Credentials) *Manager {
	return &Manager{
		stores:      make(map[string]*Store),
		defaultCred: defaultCred,
	}
}

// Get returns the store for sessionID, creating it on first use
func (m *Manager) Get(sessionID string) *Store {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	m.mutex.RLock()
	store, ok := m.stores[sessionID]
	m.mutex.RUnlock()
	if ok {
		return store
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if store, ok := m.stores[sessionID]; ok {
		return store
	}
	store = NewStore(sessionID, m.defaultCred)
	m.stores[sessionID] = store
	logger.Base().Info("Session created", zap.String("session_id", sessionID))
	return store
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.stores)
}

// TotalActiveCalls sums active calls over every session
func (m *Manager) TotalActiveCalls() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := 0
	for _, s := range m.stores {
		total += s.ActiveCount()
	}
	return total
}

// OnEvict registers fn to run for every session CleanupIdle drops.
// Hooks run after the manager lock is released.
func (m *Manager) OnEvict(fn func(sessionID string)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// CleanupIdle drops sessions unused for longer than maxIdle that have no active calls
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	m.mutex.Lock()
	now := time.Now()
	var evicted []string
	for id, s := range m.stores {
		if now.Sub(s.LastSeen()) > maxIdle && s.ActiveCount() == 0 {
			delete(m.stores, id)
			evicted = append(evicted, id)
		}
	}
	hooks := append(([]func(string))(nil), m.onEvict...)
	m.mutex.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	if len(evicted) > 0 {
		logger.Base().Info("Cleaned up idle sessions", zap.Int("cleaned_count", len(evicted)))
	}
	return len(evicted)
}

// StartCleanupRoutine periodically drops idle sessions until ctx is done
func (m *Manager) StartCleanupRoutine(ctx context.Context, checkInterval, maxIdle time.Duration) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	logger.Base().Info("Started session cleanup routine", zap.Duration("check_interval", checkInterval), zap.Duration("max_idle", maxIdle))
	for {
		select {
		case <-ctx.Done():
			logger.Base().Info("Session cleanup routine stopped")
			return
		case <-ticker.C:
			m.CleanupIdle(maxIdle)
		}
	}
}
