package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/export"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ExportURLHeader carries the archive URL of a downloaded export
const ExportURLHeader = "X-Export-URL"

const defaultForecastDays = 30

// AnalyticsHandler serves the dashboard, analytics, reports and call log
type AnalyticsHandler struct {
	reports  *report.Service
	archiver *export.Archiver
	now      func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(reports *report.Service, archiver *export.Archiver, now func() time.Time) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports, archiver: archiver, now: now}
}

// GetDashboard godoc
// @Summary Fleet dashboard
// @Description Fleet-wide KPIs, top performers and success by specialization
// @Tags dashboard
// @Produce json
// @Success 200 {object} report.Dashboard
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GetPerformance godoc
// @Summary Fleet performance table
// @Tags analytics
// @Produce json
// @Success 200 {array} domain.PerformanceRow
// @Router /api/analytics/performance [get]
func (h *AnalyticsHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reports.Performance())
}

// ExportPerformance godoc
// @Summary Export the performance table
// @Tags analytics
// @Produce octet-stream
// @Param format query string false "csv, xlsx or json (default csv)"
// @Success 200 {file} file
// @Failure 422 {object} ErrorResponse
// @Router /api/analytics/performance/export [get]
func (h *AnalyticsHandler) ExportPerformance(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows := h.reports.Performance()
	file, err := export.Render(export.DatasetPerformance, f, h.now(), func(out io.Writer) error {
		return export.WritePerformance(out, rows, f)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveFile(w, r, export.DatasetPerformance, file)
}

// GetTrends godoc
// @Summary Dashboard trend series
// @Description 30-day call volume, success rate and sentiment plus the weekly activity heatmap
// @Tags analytics
// @Produce json
// @Success 200 {object} report.Trends
// @Router /api/analytics/trends [get]
func (h *AnalyticsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reports.Trends())
}

// GetForecast godoc
// @Summary Call volume forecast
// @Tags analytics
// @Produce json
// @Param days query int false "Days to project, 1-365 (default 30)"
// @Success 200 {array} domain.ForecastPoint
// @Failure 400 {object} ErrorResponse
// @Router /api/analytics/forecast [get]
func (h *AnalyticsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultForecastDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if days < 1 || days > report.MaxForecastDays {
		writeError(w, r, fmt.Errorf("%w: days must be within [1, %d]", domain.ErrInvalidInput, report.MaxForecastDays))
		return
	}
	writeJSON(w, http.StatusOK, h.reports.Forecast(days))
}

// GetExecutiveSummary godoc
// @Summary Executive summary
// @Tags reports
// @Produce json
// @Success 200 {object} report.ExecutiveSummary
// @Router /api/reports/executive [get]
func (h *AnalyticsHandler) GetExecutiveSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reports.ExecutiveSummary())
}

// GetFinancialReport godoc
// @Summary Financial report
// @Tags reports
// @Produce json
// @Success 200 {object} report.FinancialReport
// @Router /api/reports/financial [get]
func (h *AnalyticsHandler) GetFinancialReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reports.FinancialReport())
}

// GetExecutiveSummaryPDF godoc
// @Summary Executive summary as PDF
// @Tags reports
// @Produce application/pdf
// @Success 200 {file} file
// @Failure 500 {object} ErrorResponse
// @Router /api/reports/executive.pdf [get]
func (h *AnalyticsHandler) GetExecutiveSummaryPDF(w http.ResponseWriter, r *http.Request) {
	sum := h.reports.ExecutiveSummary()
	fin := h.reports.FinancialReport()
	file, err := export.Render(export.DatasetExecutive, export.FormatPDF, h.now(), func(out io.Writer) error {
		return export.ExecutiveSummaryPDF(out, sum, fin)
	})
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to render executive summary: %w", err))
		return
	}
	h.serveFile(w, r, export.DatasetExecutive, file)
}

// QueryCallLogs godoc
// @Summary Query the fleet call log
// @Tags call-logs
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD or RFC3339)"
// @Param to query string false "End date, inclusive (YYYY-MM-DD or RFC3339)"
// @Param assistant query string false "Comma separated assistant names"
// @Param status query string false "Comma separated statuses"
// @Param min_duration query int false "Minimum duration in seconds"
// @Param search query string false "Phone, notes or campaign substring"
// @Param page query int false "1-based page"
// @Param page_size query int false "25, 50, 100 or 200"
// @Success 200 {object} report.CallLogPage
// @Failure 400 {object} ErrorResponse
// @Router /api/call-logs [get]
func (h *AnalyticsHandler) QueryCallLogs(w http.ResponseWriter, r *http.Request) {
	q, err := parseCallLogQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reports.QueryCallLogs(q))
}

// ExportCallLogs godoc
// @Summary Export the filtered call log
// @Description Every row matching the filters is exported, independent of paging
// @Tags call-logs
// @Produce octet-stream
// @Param format query string false "csv, xlsx or json (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/call-logs/export [get]
func (h *AnalyticsHandler) ExportCallLogs(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := parseCallLogQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records := report.FilterCallLogs(h.reports.FleetCallLog(), q)
	file, err := export.Render(export.DatasetCallLogs, f, h.now(), func(out io.Writer) error {
		return export.WriteCallLogs(out, records, f)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveFile(w, r, export.DatasetCallLogs, file)
}

// serveFile archives file when an archive is configured and writes it as an
// attachment. Archive failures are logged and the download still succeeds.
func (h *AnalyticsHandler) serveFile(w http.ResponseWriter, r *http.Request, dataset string, file *export.File) {
	if err := h.archiver.Archive(r.Context(), dataset, file); err != nil {
		logger.Warn(r.Context(), "export archive failed", zap.String("file", file.Name), zap.Error(err))
	}
	if file.ArchiveURL != "" {
		w.Header().Set(ExportURLHeader, file.ArchiveURL)
	}
	w.Header().Set("Content-Type", file.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		logger.Warn(r.Context(), "failed to write export", zap.String("file", file.Name), zap.Error(err))
	}
}

func parseCallLogQuery(r *http.Request) (report.CallLogQuery, error) {
	values := r.URL.Query()
	var q report.CallLogQuery
	var err error

	if q.From, err = parseDate(values.Get("from"), false); err != nil {
		return q, err
	}
	if q.To, err = parseDate(values.Get("to"), true); err != nil {
		return q, err
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}

	q.Assistants = splitList(values.Get("assistant"))
	for _, s := range splitList(values.Get("status")) {
		st := domain.LogStatus(s)
		if !st.Valid() {
			return q, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
		}
		q.Statuses = append(q.Statuses, st)
	}

	if q.MinDuration, err = queryInt(r, "min_duration", 0); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(r, "page", 1); err != nil {
		return q, err
	}
	q.Page = min(max(q.Page, 1), report.MaxPage)
	if q.PageSize, err = queryInt(r, "page_size", report.DefaultPageSize); err != nil {
		return q, err
	}
	q.Search = values.Get("search")
	return q, nil
}

// parseDate accepts RFC3339 or a plain date. A plain end date covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidInput, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// SetupAnalyticsRoutes sets up dashboard, analytics, report and call-log routes
func (h *AnalyticsHandler) SetupAnalyticsRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")

	router.HandleFunc("/analytics/performance", h.GetPerformance).Methods("GET")
	router.HandleFunc("/analytics/performance/export", h.ExportPerformance).Methods("GET")
	router.HandleFunc("/analytics/trends", h.GetTrends).Methods("GET")
	router.HandleFunc("/analytics/forecast", h.GetForecast).Methods("GET")

	router.HandleFunc("/reports/executive", h.GetExecutiveSummary).Methods("GET")
	router.HandleFunc("/reports/executive.pdf", h.GetExecutiveSummaryPDF).Methods("GET")
	router.HandleFunc("/reports/financial", h.GetFinancialReport).Methods("GET")

	router.HandleFunc("/call-logs", h.QueryCallLogs).Methods("GET")
	router.HandleFunc("/call-logs/export", h.ExportCallLogs).Methods("GET")
}
