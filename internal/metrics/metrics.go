package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
	enabled      bool
	enabledMu    sync.RWMutex

	// Live call metrics
	CallsInitiated *prometheus.CounterVec
	CallsEnded     *prometheus.CounterVec
	CallDuration   prometheus.Histogram
	CallCost       prometheus.Counter
	ActiveCalls    prometheus.Gauge

	// Batch dialer metrics
	BatchDials      *prometheus.CounterVec
	BatchJobsActive prometheus.Gauge

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Export metrics
	ExportsTotal *prometheus.CounterVec
)

// Init creates the registry and registers every collector. Safe to call more than once.
func Init() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		CallsInitiated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_calls_initiated_total",
				Help: "Total number of calls initiated",
			},
			[]string{"assistant_id"},
		)

		CallsEnded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_calls_ended_total",
				Help: "Total number of calls that reached a terminal status",
			},
			[]string{"status"},
		)

		CallDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "astra_fleet_call_duration_seconds",
				Help:    "Duration of finished calls",
				Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~10min
			},
		)

		CallCost = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "astra_fleet_call_cost_dollars_total",
				Help: "Accumulated cost of finished calls",
			},
		)

		ActiveCalls = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "astra_fleet_active_calls",
				Help: "Number of calls currently in flight across sessions",
			},
		)

		BatchDials = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_batch_dials_total",
				Help: "Numbers dialed by batch jobs",
			},
			[]string{"result"},
		)

		BatchJobsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "astra_fleet_batch_jobs_active",
				Help: "Number of batch jobs currently dialing",
			},
		)

		EventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_events_published_total",
				Help: "Call lifecycle events published on the bus",
			},
			[]string{"type"},
		)

		HTTPRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		)

		HTTPRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astra_fleet_http_request_duration_seconds",
				Help:    "Latency of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		ExportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_fleet_exports_total",
				Help: "Files exported",
			},
			[]string{"dataset", "format"},
		)

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			CallsInitiated,
			CallsEnded,
			CallDuration,
			CallCost,
			ActiveCalls,
			BatchDials,
			BatchJobsActive,
			EventsPublished,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ExportsTotal,
		)

		setEnabled(true)
		logger.Base().Info("Prometheus metrics initialized")
	})
}

func setEnabled(v bool) {
	enabledMu.Lock()
	defer enabledMu.Unlock()
	enabled = v
}

// IsEnabled reports whether Init has run
func IsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return enabled
}

// GetRegistry returns the prometheus registry, nil before Init
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          registry,
	})
}

// RecordCallInitiated counts a placed call
func RecordCallInitiated(assistantID string) {
	if IsEnabled() {
		CallsInitiated.WithLabelValues(assistantID).Inc()
		ActiveCalls.Inc()
	}
}

// RecordCallEnded records the outcome of a finished call
func RecordCallEnded(status string, durationSeconds int, cost float64) {
	if IsEnabled() {
		CallsEnded.WithLabelValues(status).Inc()
		CallDuration.Observe(float64(durationSeconds))
		CallCost.Add(cost)
		ActiveCalls.Dec()
	}
}

// RecordBatchDial counts one batch dial attempt, result is "dialed" or "failed"
func RecordBatchDial(result string) {
	if IsEnabled() {
		BatchDials.WithLabelValues(result).Inc()
	}
}

// BatchJobStarted tracks a running batch job and returns the func marking it done
func BatchJobStarted() func() {
	if !IsEnabled() {
		return func() {}
	}
	BatchJobsActive.Inc()
	return func() { BatchJobsActive.Dec() }
}

// RecordEvent counts a published call event
func RecordEvent(eventType string) {
	if IsEnabled() {
		EventsPublished.WithLabelValues(eventType).Inc()
	}
}

// RecordExport counts an exported file
func RecordExport(dataset, format string) {
	if IsEnabled() {
		ExportsTotal.WithLabelValues(dataset, format).Inc()
	}
}

// ObserveHTTPRequest records one served request
func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	if IsEnabled() {
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}
