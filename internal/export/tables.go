package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	DatasetCallLogs    = "call_logs"
	DatasetPerformance = "performance"
	DatasetExecutive   = "executive_summary"
)

const timeLayout = "2006-01-02 15:04:05"

type table struct {
	sheet   string
	headers []string
	rows    [][]any
}

func callLogTable(records []domain.SyntheticCallRecord) table {
	t := table{
		sheet: "Call Logs",
		headers: []string{
			"Call ID", "Time", "Phone", "Duration", "Status", "Lead Score",
			"Sentiment", "Cost", "Campaign", "Agent", "Notes",
		},
		rows: make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.rows = append(t.rows, []any{
			r.CallID, r.Timestamp.Format(timeLayout), r.PhoneNumber, r.Duration, string(r.Status),
			r.LeadScore, string(r.Sentiment), r.Cost, r.Campaign, r.Agent, r.Notes,
		})
	}
	return t
}

func performanceTable(rows []domain.PerformanceRow) table {
	t := table{
		sheet: "Performance",
		headers: []string{
			"Assistant ID", "Assistant Name", "Specialization", "Status", "Daily Calls",
			"Weekly Calls", "Monthly Calls", "Success Rate", "Avg Duration", "Cost per Call",
			"Revenue Generated", "Lead Conversion", "Customer Satisfaction", "Response Time",
			"Uptime", "Error Rate", "Peak Hour", "Last Active",
		},
		rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{
			r.AssistantID, r.Name, r.Specialization, string(r.Status), r.DailyCalls,
			r.WeeklyCalls, r.MonthlyCalls, r.SuccessRate, r.AvgDuration, r.CostPerCall,
			r.Revenue, r.LeadConversion, r.CustomerSatisfaction, r.ResponseTime,
			r.Uptime, r.ErrorRate, r.PeakHour, r.LastActive.Format(timeLayout),
		})
	}
	return t
}

// WriteCallLogs writes call-log records in a tabular format
func WriteCallLogs(w io.Writer, records []domain.SyntheticCallRecord, f Format) error {
	return write(w, f, callLogTable(records), records)
}

// WritePerformance writes the performance table in a tabular format
func WritePerformance(w io.Writer, rows []domain.PerformanceRow, f Format) error {
	return write(w, f, performanceTable(rows), rows)
}

func write(w io.Writer, f Format, t table, raw any) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, t)
	case FormatXLSX:
		return writeXLSX(w, t)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	}
	return fmt.Errorf("%w: %s cannot hold a table", domain.ErrUnsupportedFormat, f)
}

func writeCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(t.headers))
	for _, row := range t.rows {
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, t table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), t.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}
	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.SetPanes(t.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
