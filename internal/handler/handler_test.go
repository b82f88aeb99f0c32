package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/adapters/sheets"
	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/config"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/export"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/call"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/campaign"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/ClareAI/astra-fleet-dashboard/internal/synth"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	names []string
}

func (u *fakeUploader) Upload(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	u.names = append(u.names, name)
	return "https://storage.example.com/exports/" + name, nil
}

type testServer struct {
	router   *mux.Router
	batches  *call.BatchDialer
	uploader *fakeUploader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	cfg := config.Default()
	cfg.InstanceID = "test-instance"
	cfg.Batch.Delay = 0
	cfg.Monitor.Interval = time.Hour

	fleet := cache.NewFleetCache()
	sessions := session.NewManager(session.Credentials{VapiAPIKey: "sk-test-key"})
	bus := event.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	calls := call.NewService(fleet, bus)
	batches := call.NewBatchDialer(calls, bus)
	t.Cleanup(batches.Shutdown)

	s := synth.New(synth.DefaultSeeder)
	reports := report.NewService(fleet, s, sheets.NewSyntheticSource(s, sheets.DefaultLogRows, now), now)
	reports.AddHealthCheck(report.EventsBackend, bus.Check)
	uploader := &fakeUploader{}

	hm, err := NewHandlerManager(Dependencies{
		Config:    cfg,
		Fleet:     fleet,
		Sessions:  sessions,
		Calls:     calls,
		Batches:   batches,
		Reports:   reports,
		Campaigns: campaign.NewService(fleet, now),
		Archiver:  export.NewArchiver(uploader),
		Events:    BusStream{Bus: bus},
		Now:       now,
	})
	require.NoError(t, err)

	router := mux.NewRouter()
	hm.SetupAllRoutes(router)
	return &testServer{router: router, batches: batches, uploader: uploader}
}

func (ts *testServer) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewHandlerManagerRequiresServices(t *testing.T) {
	_, err := NewHandlerManager(Dependencies{})
	assert.Error(t, err)
	_, err = NewHandlerManager(Dependencies{Config: config.Default()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test-instance", health.InstanceID)
	assert.Equal(t, domain.FleetSize, health.FleetSize)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/dashboard", "", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astra_fleet_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodOptions, "/api/assistants", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)
}

func TestAssistantRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/assistants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.AssistantProfile](t, rec), domain.FleetSize)

	rec = ts.do(t, http.MethodGet, "/api/assistants?status=active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.AssistantProfile](t, rec), 9)

	rec = ts.do(t, http.MethodGet, "/api/assistants?specialization=customer%20support", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	support := decode[[]domain.AssistantProfile](t, rec)
	require.Len(t, support, 1)
	assert.Equal(t, "vapi_assistant_02", support[0].ID)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/assistants?status=asleep", "", nil).Code)

	rec = ts.do(t, http.MethodGet, "/api/assistants/assistant_1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vapi_assistant_01", decode[domain.AssistantProfile](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/assistants/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "assistant not found")

	rec = ts.do(t, http.MethodGet, "/api/assistants/vapi_assistant_03/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bundle := decode[domain.MetricsBundle](t, rec)
	assert.Equal(t, 100, bundle.Sentiment.Total())

	rec = ts.do(t, http.MethodGet, "/api/assistants/vapi_assistant_03/calls?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.SyntheticCallRecord](t, rec), 10)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/assistants/vapi_assistant_03/calls?limit=ten", "", nil).Code)
}

func TestBulkAssistantConfig(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/assistants/config", "", map[string]any{
		"assistant_ids": []string{"vapi_assistant_01", "assistant_2"},
		"settings":      map[string]any{"voice": "nova", "temperature": 0.9},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[[]domain.AssistantProfile](t, rec)
	require.Len(t, updated, 2)
	for _, p := range updated {
		assert.Equal(t, "nova", p.Voice)
		assert.InDelta(t, 0.9, p.Temperature, 1e-9)
	}

	rec = ts.do(t, http.MethodPut, "/api/assistants/config", "", map[string]any{
		"assistant_ids": []string{"vapi_assistant_01"},
		"settings":      map[string]any{"temperature": 5},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/assistants/config", "", map[string]any{
		"assistant_ids": []string{"vapi_assistant_99"},
		"settings":      map[string]any{"voice": "nova"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardAndAnalytics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[report.Dashboard](t, rec)
	assert.Equal(t, 9, dash.ActiveAssistants)
	assert.Equal(t, domain.FleetSize, dash.FleetSize)

	rec = ts.do(t, http.MethodGet, "/api/analytics/performance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PerformanceRow](t, rec), domain.FleetSize)

	rec = ts.do(t, http.MethodGet, "/api/analytics/trends", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trends := decode[report.Trends](t, rec)
	assert.Len(t, trends.CallVolume, report.TrendDays)

	rec = ts.do(t, http.MethodGet, "/api/analytics/forecast?days=7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.ForecastPoint](t, rec), 7)

	rec = ts.do(t, http.MethodGet, "/api/analytics/forecast", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.ForecastPoint](t, rec), 30)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/analytics/forecast?days=0", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/analytics/forecast?days=400", "", nil).Code)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/reports/executive", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[report.ExecutiveSummary](t, rec)
	assert.NotEmpty(t, sum.Recommendations)

	rec = ts.do(t, http.MethodGet, "/api/reports/financial", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/reports/executive.pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "executive_summary_20250601_120000.pdf")
}

func TestCallLogQueryAndExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/call-logs?page_size=25&page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[report.CallLogPage](t, rec)
	assert.Len(t, page.Records, 25)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, report.FleetLogSize, page.TotalRecords)

	rec = ts.do(t, http.MethodGet, "/api/call-logs?status=Completed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, r := range decode[report.CallLogPage](t, rec).Records {
		assert.Equal(t, domain.LogStatusCompleted, r.Status)
	}

	rec = ts.do(t, http.MethodGet, "/api/call-logs?search=nothing-matches-this&page=4611686018427387905", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[report.CallLogPage](t, rec)
	assert.Empty(t, empty.Records)
	assert.Equal(t, 1, empty.Page)
	assert.Zero(t, empty.TotalRecords)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/call-logs?status=Lost", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/call-logs?from=yesterday", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/call-logs?from=2025-06-02&to=2025-06-01", "", nil).Code)

	rec = ts.do(t, http.MethodGet, "/api/call-logs/export?format=csv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "call_logs_20250601_120000.csv")
	assert.Equal(t, "https://storage.example.com/exports/call_logs_20250601_120000.csv", rec.Header().Get(ExportURLHeader))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, report.FleetLogSize+1)
	assert.Equal(t, []string{"call_logs_20250601_120000.csv"}, ts.uploader.names)

	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(t, http.MethodGet, "/api/call-logs/export?format=pdf", "", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(t, http.MethodGet, "/api/call-logs/export?format=doc", "", nil).Code)

	rec = ts.do(t, http.MethodGet, "/api/analytics/performance/export?format=xlsx", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestCallLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/calls", "s1", InitiateCallRequest{AssistantID: "assistant_2", PhoneNumber: "+15550100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[domain.InitiateResult](t, rec)
	assert.Equal(t, domain.CallStatusInitiated, res.Status)
	assert.InDelta(t, domain.EstimatedCallCost, res.EstimatedCost, 1e-9)

	rec = ts.do(t, http.MethodGet, "/api/calls/active", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.CallRecord](t, rec), 1)

	// other sessions do not see the call
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/calls/"+res.CallID, "s2", nil).Code)

	rec = ts.do(t, http.MethodPost, "/api/calls/"+res.CallID+"/events", "s1", CallEventRequest{Status: domain.CallStatusRinging})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CallStatusRinging, decode[domain.CallRecord](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/api/calls/"+res.CallID+"/events", "s1", CallEventRequest{Status: domain.CallStatusCompleted})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/calls/"+res.CallID+"/events", "s1", CallEventRequest{Status: "exploded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/calls/"+res.CallID+"/end", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CallStatusCompleted, decode[domain.CallRecord](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/calls/history", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.CallRecord](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/calls/"+res.CallID+"/end", "s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/calls/live/"+res.CallID, "s1", nil).Code)
}

func TestInitiateCallWithoutAPIKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/session/credentials", "nokey", session.Credentials{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/calls", "nokey", InitiateCallRequest{AssistantID: "assistant_1", PhoneNumber: "+15550100"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, missingKeyWarning, body.Warning)

	rec = ts.do(t, http.MethodPost, "/api/calls", "s1", InitiateCallRequest{AssistantID: "assistant_1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, decode[ErrorResponse](t, rec).Warning)
}

func TestValidationRejectsUnknownContentType(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/calls", strings.NewReader("assistant_id=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func multipartBatch(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, sessionID, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBatch(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/batches", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(SessionHeader, sessionID)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestBatchUpload(t *testing.T) {
	ts := newTestServer(t)
	csv := "Name,Phone Number\nAda,+15550001\nGrace,+15550002\nNoPhone,\n"

	rec := ts.upload(t, "s1", "contacts.csv", csv, map[string]string{
		"assistant_id": "assistant_4",
		"campaign_id":  "campaign_holiday_2024",
		"batch_size":   "5",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[BatchResponse](t, rec)
	assert.Equal(t, 2, resp.Contacts)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, "Phone Number", resp.Phone)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "vapi_assistant_04", resp.Job.AssistantID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := ts.batches.Wait(ctx, resp.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, call.BatchStateCompleted, job.State)

	rec = ts.do(t, http.MethodGet, "/api/batches/"+resp.Job.ID, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[BatchStatus](t, rec)
	assert.Equal(t, 2, status.Dialed)
	assert.InDelta(t, 100, status.Progress, 1e-9)

	rec = ts.do(t, http.MethodGet, "/api/batches", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]BatchStatus](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/batches/"+resp.Job.ID, "s2", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/batches/"+resp.Job.ID, "s2", nil).Code)

	rec = ts.do(t, http.MethodDelete, "/api/batches/"+resp.Job.ID, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, call.BatchStateCompleted, decode[BatchStatus](t, rec).State)
}

func TestBatchUploadRejections(t *testing.T) {
	ts := newTestServer(t)
	csv := "phone\n+15550001\n"

	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		want     int
	}{
		{"missing assistant", "c.csv", csv, map[string]string{}, http.StatusBadRequest},
		{"unknown assistant", "c.csv", csv, map[string]string{"assistant_id": "nobody"}, http.StatusNotFound},
		{"bad batch size", "c.csv", csv, map[string]string{"assistant_id": "assistant_1", "batch_size": "99"}, http.StatusBadRequest},
		{"negative delay", "c.csv", csv, map[string]string{"assistant_id": "assistant_1", "delay_seconds": "-1"}, http.StatusBadRequest},
		{"unknown campaign", "c.csv", csv, map[string]string{"assistant_id": "assistant_1", "campaign_id": "nope"}, http.StatusNotFound},
		{"completed campaign", "c.csv", csv, map[string]string{"assistant_id": "assistant_1", "campaign_id": "campaign_customer_survey"}, http.StatusConflict},
		{"unsupported file", "c.txt", csv, map[string]string{"assistant_id": "assistant_1"}, http.StatusUnprocessableEntity},
		{"no phone column", "c.csv", "name\nAda\n", map[string]string{"assistant_id": "assistant_1"}, http.StatusUnprocessableEntity},
		{"broken xlsx", "c.xlsx", "not a workbook", map[string]string{"assistant_id": "assistant_1"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.upload(t, "s1", tt.filename, tt.content, tt.fields)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCampaignRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/campaigns", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CampaignView](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/campaigns?status=Active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CampaignView](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/campaigns/campaign_holiday_2024", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[CampaignView](t, rec)
	assert.InDelta(t, 75, view.Progress, 1e-9)
	assert.InDelta(t, 75, view.BudgetUsed, 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/campaigns", "", map[string]any{
		"name":         "Spring Renewals",
		"type":         "Win-back",
		"target_calls": 100,
		"budget":       50,
		"assistants":   []string{"assistant_1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CampaignView](t, rec)
	assert.Equal(t, domain.CampaignStatusActive, created.Status)

	rec = ts.do(t, http.MethodPost, "/api/campaigns", "", map[string]any{
		"name": "spring renewals", "target_calls": 10, "assistants": []string{"assistant_1"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/campaigns/"+created.ID+"/pause", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CampaignStatusPaused, decode[CampaignView](t, rec).Status)

	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/campaigns/"+created.ID+"/pause", "", nil).Code)

	rec = ts.do(t, http.MethodPost, "/api/campaigns/"+created.ID+"/resume", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/campaigns/"+created.ID+"/complete", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CampaignStatusCompleted, decode[CampaignView](t, rec).Status)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/campaigns/missing/pause", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/campaigns?status=Sleeping", "", nil).Code)
}

func TestSessionSettings(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/session/credentials", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*******-key", decode[session.Credentials](t, rec).VapiAPIKey)

	rec = ts.do(t, http.MethodPut, "/api/session/preferences", "s1", session.Preferences{
		Theme: "dark", AutoRefresh: false, RefreshInterval: 60, DefaultView: "Analytics",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", decode[session.Preferences](t, rec).Theme)

	rec = ts.do(t, http.MethodGet, "/api/session/preferences", "s2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.DefaultPreferences(), decode[session.Preferences](t, rec))

	rec = ts.do(t, http.MethodPut, "/api/session/preferences", "s1", session.Preferences{Theme: "neon", RefreshInterval: 60, DefaultView: "Dashboard"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/session/notifications", "s1", session.NotificationSettings{WebhookAlerts: true, AlertThreshold: 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/session/notifications", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 80, decode[session.NotificationSettings](t, rec).AlertThreshold)
}

func TestMonitorSnapshot(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/monitor", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[report.MonitorSnapshot](t, rec)
	assert.Equal(t, "healthy", snap.Health["api"])
	assert.Equal(t, "healthy", snap.Health["calling"])
	assert.Equal(t, "healthy", snap.Health[report.SpreadsheetBackend])
	assert.Equal(t, "healthy", snap.Health[report.EventsBackend])
	assert.Len(t, snap.Activity, domain.FleetSize)

	warnings := func(s report.MonitorSnapshot) int {
		n := 0
		for _, a := range s.Alerts {
			if a.Level == report.AlertWarning {
				n++
			}
		}
		return n
	}
	rec = ts.do(t, http.MethodPut, "/api/session/notifications", "s1", session.NotificationSettings{AlertThreshold: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/monitor", "s1", nil)
	assert.Zero(t, warnings(decode[report.MonitorSnapshot](t, rec)))

	rec = ts.do(t, http.MethodPut, "/api/session/notifications", "s1", session.NotificationSettings{AlertThreshold: 100})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/monitor", "s1", nil)
	assert.Positive(t, warnings(decode[report.MonitorSnapshot](t, rec)))
}

func TestMonitorWebSocketStreamsSessionEvents(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/monitor?session=s1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first MonitorMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)

	// an event from another session must not reach this client
	ts.do(t, http.MethodPost, "/api/calls", "s2", InitiateCallRequest{AssistantID: "assistant_1", PhoneNumber: "+15550999"})
	rec := ts.do(t, http.MethodPost, "/api/calls", "s1", InitiateCallRequest{AssistantID: "assistant_1", PhoneNumber: "+15550100"})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[domain.InitiateResult](t, rec)

	for {
		var msg struct {
			Type string          `json:"type"`
			Data event.CallEvent `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "event" {
			continue
		}
		assert.Equal(t, "s1", msg.Data.SessionID)
		assert.Equal(t, res.CallID, msg.Data.CallID)
		assert.Equal(t, event.CallInitiated, msg.Data.Type)
		return
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		domain.ErrMissingAPIKey:     http.StatusBadRequest,
		domain.ErrInvalidInput:      http.StatusBadRequest,
		domain.ErrCallNotFound:      http.StatusNotFound,
		domain.ErrBatchNotFound:     http.StatusNotFound,
		domain.ErrInvalidTransition: http.StatusConflict,
		domain.ErrCampaignExists:    http.StatusConflict,
		domain.ErrMissingColumn:     http.StatusUnprocessableEntity,
		io.ErrUnexpectedEOF:         http.StatusInternalServerError,
	}
	for err, want := range tests {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
