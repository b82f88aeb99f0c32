// Package export renders call logs, the performance table and the executive
// summary as downloadable files, optionally archiving them to object storage.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name, "excel" included. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename builds "<dataset>_YYYYMMDD_HHMMSS.<ext>"
func Filename(dataset string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", dataset, at.Format("20060102_150405"), f)
}
