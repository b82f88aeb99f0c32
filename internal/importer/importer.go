// Package importer reads contact lists for bulk calling from CSV and XLSX files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Format is a supported contact file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// MaxContacts bounds a single import
const MaxContacts = 10000

// PhoneColumns are the accepted phone column headers, compared case-insensitively
var PhoneColumns = []string{"phone", "phone_number", "phone number", "number"}

var nameColumns = []string{"name", "full_name", "full name", "contact"}

// Contact is one row of an imported file
type Contact struct {
	Phone  string            `json:"phone"`
	Name   string            `json:"name,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Result is a parsed contact file
type Result struct {
	Columns     []string  `json:"columns"`
	PhoneColumn string    `json:"phone_column"`
	Contacts    []Contact `json:"contacts"`
	Skipped     int       `json:"skipped"`
}

// Phones returns the phone numbers in file order
func (r *Result) Phones() []string {
	out := make([]string, 0, len(r.Contacts))
	for _, c := range r.Contacts {
		out = append(out, c.Phone)
	}
	return out
}

// FormatFromFilename picks the format from a file extension
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(name))
}

// Parse reads a contact file in the given format
func Parse(r io.Reader, format Format) (*Result, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// ParseCSV reads a comma-separated contact file with a header row
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of a workbook with a header row
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnreadableFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}
	return fromRows(rows)
}

var errNoHeader = errors.New("file has no header row")

func fromRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableFile, errNoHeader)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	phoneIdx := findColumn(header, PhoneColumns)
	if phoneIdx < 0 {
		return nil, fmt.Errorf("%w: expected one of %s", domain.ErrMissingColumn, strings.Join(PhoneColumns, ", "))
	}
	nameIdx := findColumn(header, nameColumns)

	res := &Result{
		Columns:     header,
		PhoneColumn: header[phoneIdx],
		Contacts:    make([]Contact, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		phone := cell(row, phoneIdx)
		if phone == "" {
			res.Skipped++
			continue
		}
		if len(res.Contacts) == MaxContacts {
			return nil, fmt.Errorf("%w: more than %d contacts", domain.ErrInvalidInput, MaxContacts)
		}

		c := Contact{Phone: phone, Name: cell(row, nameIdx)}
		for i, col := range header {
			if i == phoneIdx || i == nameIdx || col == "" {
				continue
			}
			if v := cell(row, i); v != "" {
				if c.Fields == nil {
					c.Fields = make(map[string]string)
				}
				c.Fields[col] = v
			}
		}
		res.Contacts = append(res.Contacts, c)
	}
	return res, nil
}

// findColumn returns the index of the first header matching any candidate
func findColumn(header, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(h, want) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
