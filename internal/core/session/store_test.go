package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCall(id string, start time.Time) *domain.CallRecord {
	return &domain.CallRecord{
		CallID:      id,
		AssistantID: "vapi_assistant_01",
		PhoneNumber: "+15550100",
		StartTime:   start,
		Status:      domain.CallStatusInitiated,
	}
}

func TestStoreEndMovesCallToHistory(t *testing.T) {
	s := NewStore("s1", Credentials{})
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddCall(newCall("c1", start)))
	assert.Equal(t, 1, s.ActiveCount())
	assert.Empty(t, s.History())

	rec, err := s.End("c1", start.Add(42*time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, rec.Status)
	assert.Equal(t, 42, rec.Duration)
	assert.InDelta(t, 0.84, rec.Cost, 1e-9)

	assert.Zero(t, s.ActiveCount())
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "c1", history[0].CallID)

	found, err := s.Call("c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, found.Status)

	_, err = s.End("c1", start)
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestStoreTransitions(t *testing.T) {
	s := NewStore("s1", Credentials{})
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddCall(newCall("c1", start)))

	rec, err := s.Transition("c1", domain.CallStatusRinging, start)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusRinging, rec.Status)

	_, err = s.Transition("c1", domain.CallStatusCompleted, start)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.Transition("c1", domain.CallStatus("exploded"), start)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	rec, err = s.Transition("c1", domain.CallStatusBusy, start.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusBusy, rec.Status)
	assert.Equal(t, 3, rec.Duration)
	assert.Zero(t, s.ActiveCount())
	assert.Len(t, s.History(), 1)

	_, err = s.Transition("missing", domain.CallStatusRinging, start)
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore("s1", Credentials{})
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	call := newCall("c1", start)
	call.CustomData = domain.CustomData{"campaign": "spring"}
	require.NoError(t, s.AddCall(call))

	got, err := s.Call("c1")
	require.NoError(t, err)
	got.Status = domain.CallStatusFailed
	got.CustomData["campaign"] = "changed"

	again, _ := s.Call("c1")
	assert.Equal(t, domain.CallStatusInitiated, again.Status)
	assert.Equal(t, "spring", again.CustomData["campaign"])

	assert.ErrorIs(t, s.AddCall(newCall("c1", start)), domain.ErrInvalidInput)

	ended, err := s.End("c1", start.Add(30*time.Second))
	require.NoError(t, err)
	require.NotNil(t, ended.EndTime)
	*ended.EndTime = start.Add(time.Hour)
	ended.CustomData["campaign"] = "changed"

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, start, history[0].StartTime)
	assert.Equal(t, start.Add(30*time.Second), *history[0].EndTime)
	assert.Equal(t, "spring", history[0].CustomData["campaign"])
}

func TestStoreSettings(t *testing.T) {
	s := NewStore("s1", Credentials{VapiAPIKey: "sk-test-1234"})

	assert.True(t, s.Credentials().HasAPIKey())
	assert.Equal(t, "********1234", s.Credentials().Masked().VapiAPIKey)
	assert.Equal(t, DefaultPreferences(), s.Preferences())
	assert.Equal(t, 80, s.Notifications().AlertThreshold)

	p := DefaultPreferences()
	p.Theme = "dark"
	p.RefreshInterval = 60
	require.NoError(t, s.SetPreferences(p))
	assert.Equal(t, "dark", s.Preferences().Theme)

	p.DefaultView = "Nowhere"
	assert.ErrorIs(t, s.SetPreferences(p), domain.ErrInvalidInput)

	n := DefaultNotifications()
	n.WebhookAlerts = true
	assert.ErrorIs(t, s.SetNotifications(n), domain.ErrInvalidInput)
	n.WebhookURL = "https://hooks.example.com/alerts"
	require.NoError(t, s.SetNotifications(n))
}

func TestManager(t *testing.T) {
	m := NewManager(Credentials{VapiAPIKey: "default-key"})

	a := m.Get("")
	assert.Equal(t, DefaultSessionID, a.ID())
	assert.Same(t, a, m.Get(DefaultSessionID))
	assert.Equal(t, "default-key", a.Credentials().VapiAPIKey)

	b := m.Get("other")
	require.NoError(t, b.AddCall(newCall("c1", time.Now())))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 1, m.TotalActiveCalls())

	var evicted []string
	m.OnEvict(func(id string) { evicted = append(evicted, id) })

	// a has no calls and is idle, b keeps its live call
	assert.Equal(t, 1, m.CleanupIdle(-time.Second))
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []string{DefaultSessionID}, evicted)

	assert.Zero(t, m.CleanupIdle(time.Hour))
	assert.Len(t, evicted, 1)
}

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryRedis) GenerateKey(keyType redis.KeyType, identifier string) string {
	return string(keyType) + ":" + identifier
}

func (m *memoryRedis) GetValue(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.ErrKeyNotExist
	}
	return v, nil
}

func (m *memoryRedis) SetValue(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryRedis) DelValue(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryRedis) Publish(context.Context, string, interface{}) error { return nil }

func (m *memoryRedis) Subscribe(context.Context, string, func(string)) error { return nil }

func TestRedisRegistry(t *testing.T) {
	mem := &memoryRedis{data: make(map[string]string)}
	reg := NewRedisRegistry(mem, "pod-a")
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, LiveCallInfo{CallID: "c1", SessionID: "s1"}))
	raw, err := mem.GetValue(ctx, mem.GenerateKey(redis.LIVE_CALL, "c1"))
	require.NoError(t, err)
	assert.Contains(t, raw, `"instanceId":"pod-a"`)

	info, err := reg.Lookup(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "pod-a", info.InstanceID)
	assert.Equal(t, "s1", info.SessionID)
	assert.False(t, info.StartTime.IsZero())

	require.NoError(t, reg.Unregister(ctx, "c1"))
	_, err = reg.Lookup(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}
