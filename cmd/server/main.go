package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/adapters/sheets"
	"github.com/ClareAI/astra-fleet-dashboard/internal/cache"
	"github.com/ClareAI/astra-fleet-dashboard/internal/config"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/export"
	"github.com/ClareAI/astra-fleet-dashboard/internal/handler"
	"github.com/ClareAI/astra-fleet-dashboard/internal/metrics"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/call"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/campaign"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/ClareAI/astra-fleet-dashboard/internal/synth"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/gcs"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/kafka"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/pubsub"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Server is the fleet dashboard API server
type Server struct {
	config   *config.Config
	router   *mux.Router
	bus      *event.Bus
	sessions *session.Manager
	batches  *call.BatchDialer
	closers  []func() error
}

// NewServer wires every service from cfg. Optional backends are skipped when
// unconfigured or unreachable.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{config: cfg, router: mux.NewRouter()}

	var (
		sinks     = []event.Sink{event.LogSink{}}
		callOpts  []call.Option
		stream    handler.EventStream
		liveCalls handler.LiveCallLookup
		checks    = map[string]report.HealthCheck{}
	)

	if cfg.RedisEnabled() {
		redisSvc, err := redis.NewRedisService(&cfg.Redis)
		if err != nil {
			logger.Base().Warn("Redis unavailable, running single-instance", zap.Error(err))
		} else {
			registry := session.NewRedisRegistry(redisSvc, cfg.InstanceID)
			sinks = append(sinks, event.NewRedisSink(redisSvc))
			callOpts = append(callOpts, call.WithRegistry(registry))
			stream = handler.RedisStream{Redis: redisSvc}
			liveCalls = registry
			checks["redis"] = redisSvc.Ping
			s.closers = append(s.closers, redisSvc.Close)
			logger.Base().Info("Redis connected", zap.String("host", cfg.Redis.Host))
		}
	}

	if cfg.PubSubEnabled() {
		ps, err := pubsub.NewPubSubService(ctx, &cfg.PubSub)
		if err != nil {
			logger.Base().Warn("Pub/Sub unavailable, events will not be forwarded", zap.Error(err))
		} else {
			sinks = append(sinks, event.NewPubSubSink(ps))
		}
	}

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(&cfg.Kafka)
		if err != nil {
			logger.Base().Warn("Kafka unavailable, events will not be forwarded", zap.Error(err))
		} else {
			sinks = append(sinks, event.NewKafkaSink(producer))
		}
	}

	s.bus = event.NewBus(sinks...)
	s.bus.Use(event.LoggingMiddleware)
	if stream == nil {
		stream = handler.BusStream{Bus: s.bus}
	}

	var archiver *export.Archiver
	if cfg.ExportArchiveEnabled() {
		client, err := gcs.NewGCSClient(ctx, cfg.Export)
		if err != nil {
			logger.Base().Warn("Export archive unavailable, exports are download-only", zap.Error(err))
		} else {
			archiver = export.NewArchiver(client)
			checks["export_archive"] = client.Ping
			s.closers = append(s.closers, client.Close)
		}
	}

	fleet := cache.NewFleetCache()
	synthesizer := synth.New(synth.DefaultSeeder)
	source := sheets.NewSyntheticSource(synthesizer, cfg.Sheets.LogRows, time.Now)
	reports := report.NewService(fleet, synthesizer, source, time.Now)
	for name, check := range checks {
		reports.AddHealthCheck(name, check)
	}
	reports.AddHealthCheck(report.EventsBackend, s.bus.Check)

	calls := call.NewService(fleet, s.bus, callOpts...)
	s.batches = call.NewBatchDialer(calls, s.bus)

	campaigns := campaign.NewService(fleet, time.Now)
	if _, err := s.bus.Subscribe(event.BatchCompleted, campaigns.HandleBatchEvent); err != nil {
		return nil, fmt.Errorf("failed to subscribe campaign updates: %w", err)
	}

	s.sessions = session.NewManager(session.Credentials{
		VapiAPIKey:      cfg.Vapi.APIKey,
		SheetsConnected: cfg.Sheets.Connected,
	})
	s.sessions.OnEvict(func(sessionID string) { s.batches.PruneSession(sessionID) })

	hm, err := handler.NewHandlerManager(handler.Dependencies{
		Config:    cfg,
		Fleet:     fleet,
		Sessions:  s.sessions,
		Calls:     calls,
		Batches:   s.batches,
		Reports:   reports,
		Campaigns: campaigns,
		Archiver:  archiver,
		Events:    stream,
		LiveCalls: liveCalls,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handler manager: %w", err)
	}
	hm.SetupAllRoutes(s.router)

	return s, nil
}

// Run serves until ctx is cancelled, then drains in-flight work
func (s *Server) Run(ctx context.Context) error {
	go s.sessions.StartCleanupRoutine(ctx, s.config.Session.CleanupInterval, s.config.Session.MaxIdle)
	go s.batches.StartPruneRoutine(ctx, s.config.Session.CleanupInterval, s.config.Session.MaxIdle)

	addr := fmt.Sprintf(":%s", s.config.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Base().Info("Starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Base().Info("Shutting down server", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	err := server.Shutdown(shutdownCtx)

	s.batches.Shutdown()
	if closeErr := s.bus.Close(); closeErr != nil {
		logger.Base().Warn("Event bus close failed", zap.Error(closeErr))
	}
	for _, closeFn := range s.closers {
		if closeErr := closeFn(); closeErr != nil {
			logger.Base().Warn("Backend close failed", zap.Error(closeErr))
		}
	}
	return err
}

func main() {
	// .env is for local development; it never overrides variables set by the deployment
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped (expected in production): %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if _, err := logger.Init(cfg.Log.Env, cfg.Log.Level); err != nil {
		log.Printf("Failed to initialize zap logger, falling back to defaults: %v", err)
	}
	defer logger.Sync()
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Base().Fatal("Failed to create server", zap.Error(err))
	}
	logger.Base().Info("Server initialized",
		zap.String("port", cfg.Server.Port),
		zap.String("instance_id", cfg.InstanceID))

	if err := server.Run(ctx); err != nil {
		logger.Base().Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Base().Info("Server stopped")
}
