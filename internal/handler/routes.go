package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/config"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/export"
	"github.com/ClareAI/astra-fleet-dashboard/internal/metrics"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/call"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/campaign"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LiveCallLookup finds a live call on any instance
type LiveCallLookup interface {
	Lookup(ctx context.Context, callID string) (*session.LiveCallInfo, error)
}

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Config    *config.Config
	Fleet     *cache.AssistantCache
	Sessions  *session.Manager
	Calls     *call.Service
	Batches   *call.BatchDialer
	Reports   *report.Service
	Campaigns *campaign.Service
	Archiver  *export.Archiver
	// Events feeds the websocket monitor; nil disables live events
	Events EventStream
	// LiveCalls is set when calls are registered across instances
	LiveCalls LiveCallLookup
	Now       func() time.Time
}

// HandlerManager manages all handlers and their initialization
type HandlerManager struct {
	deps    Dependencies
	monitor *MonitorHandler
}

// NewHandlerManager checks the dependencies and returns a manager ready to
// register routes
func NewHandlerManager(deps Dependencies) (*HandlerManager, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config is required")
	case deps.Fleet == nil, deps.Sessions == nil, deps.Reports == nil:
		return nil, fmt.Errorf("fleet, sessions and reports are required")
	case deps.Calls == nil, deps.Batches == nil, deps.Campaigns == nil:
		return nil, fmt.Errorf("calls, batches and campaigns are required")
	}
	if deps.Archiver == nil {
		deps.Archiver = export.NewArchiver(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	monitor := NewMonitorHandler(deps.Reports, deps.Sessions, deps.Events, deps.Config.Monitor.Interval, deps.Config.Server.AllowedOrigins)
	return &HandlerManager{deps: deps, monitor: monitor}, nil
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware(hm.deps.Config.Server.AllowedOrigins))
	router.Use(GlobalLoggingMiddleware)
	router.Use(MetricsMiddleware)

	hm.SetupAPIRoutes(router)

	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/health", hm.Health).Methods("GET")

	logger.Base().Info("all application routes registered",
		zap.String("instance_id", hm.deps.Config.InstanceID),
		zap.Int("fleet_size", hm.deps.Fleet.Count()))
}

// SetupAPIRoutes sets up the JSON API under /api
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(SessionMiddleware)
	apiRouter.Use(LoggingMiddleware)
	apiRouter.Use(ValidationMiddleware)

	d := hm.deps
	NewFleetHandler(d.Fleet, d.Reports).SetupFleetRoutes(apiRouter)
	NewAnalyticsHandler(d.Reports, d.Archiver, d.Now).SetupAnalyticsRoutes(apiRouter)
	NewCallHandler(d.Sessions, d.Calls, d.LiveCalls).SetupCallRoutes(apiRouter)
	NewBatchHandler(d.Sessions, d.Fleet, d.Batches, d.Campaigns, d.Config.Batch).SetupBatchRoutes(apiRouter)
	NewCampaignHandler(d.Campaigns).SetupCampaignRoutes(apiRouter)
	NewSessionHandler(d.Sessions).SetupSessionRoutes(apiRouter)
	hm.monitor.SetupMonitorRoutes(apiRouter, router)

	router.PathPrefix("/api/").HandlerFunc(handleCORS).Methods("OPTIONS")

	logger.Base().Info("api routes registered", zap.String("prefix", "/api"))
}

// Monitor returns the monitor handler
func (hm *HandlerManager) Monitor() *MonitorHandler {
	return hm.monitor
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string    `json:"status"`
	InstanceID  string    `json:"instance_id"`
	Sessions    int       `json:"sessions"`
	ActiveCalls int       `json:"active_calls"`
	FleetSize   int       `json:"fleet_size"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (hm *HandlerManager) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		InstanceID:  hm.deps.Config.InstanceID,
		Sessions:    hm.deps.Sessions.Count(),
		ActiveCalls: hm.deps.Sessions.TotalActiveCalls(),
		FleetSize:   hm.deps.Fleet.Count(),
		Timestamp:   hm.deps.Now(),
	})
}

// handleCORS answers preflight requests; CORSMiddleware has already set the headers
func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
