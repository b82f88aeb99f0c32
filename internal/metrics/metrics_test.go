package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	Init()
	Init()
	require.True(t, IsEnabled())

	before := testutil.ToFloat64(CallsEnded.WithLabelValues("completed"))
	RecordCallInitiated("asst_001")
	RecordCallEnded("completed", 42, 0.84)
	assert.Equal(t, before+1, testutil.ToFloat64(CallsEnded.WithLabelValues("completed")))

	done := BatchJobStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(BatchJobsActive))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(BatchJobsActive))

	ObserveHTTPRequest(http.MethodGet, "/api/dashboard", 200, 15*time.Millisecond)
	RecordExport("call_logs", "csv")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astra_fleet_calls_initiated_total")
	assert.Contains(t, rec.Body.String(), "astra_fleet_exports_total")
}
