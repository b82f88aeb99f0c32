// Package sheets provides the spreadsheet collaborator that backs per-assistant
// metrics and call logs. Only the synthetic source exists; every sheet read is
// derived from the sheet id and the current time.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/synth"
)

// DefaultLogRows is the number of call-log rows returned per sheet
const DefaultLogRows = 50

// Source reads an assistant's metrics and call log from its sheet
type Source interface {
	GetSheetData(ctx context.Context, sheetID string, profile *domain.AssistantProfile) (domain.MetricsBundle, []domain.SyntheticCallRecord, error)
	Ping(ctx context.Context) error
}

// SyntheticSource generates sheet data deterministically
type SyntheticSource struct {
	synth *synth.Synthesizer
	rows  int
	now   func() time.Time
}

var _ Source = (*SyntheticSource)(nil)

// NewSyntheticSource returns a source generating rows log entries per sheet
func NewSyntheticSource(s *synth.Synthesizer, rows int, now func() time.Time) *SyntheticSource {
	if rows <= 0 {
		rows = DefaultLogRows
	}
	if now == nil {
		now = time.Now
	}
	return &SyntheticSource{synth: s, rows: rows, now: now}
}

// GetSheetData returns the metrics bundle and call log keyed by sheetID
func (s *SyntheticSource) GetSheetData(ctx context.Context, sheetID string, profile *domain.AssistantProfile) (domain.MetricsBundle, []domain.SyntheticCallRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.MetricsBundle{}, nil, err
	}
	if profile == nil {
		return domain.MetricsBundle{}, nil, fmt.Errorf("%w: profile is required", domain.ErrInvalidInput)
	}

	now := s.now()
	bundle := s.synth.Metrics(sheetID, synth.BaselineOf(profile), now)
	log := s.synth.CallLog(sheetID, profile, s.rows, now)
	return bundle, log, nil
}

// Ping reports whether sheets can be read
func (s *SyntheticSource) Ping(ctx context.Context) error {
	if s.synth == nil {
		return fmt.Errorf("spreadsheet source has no synthesizer")
	}
	return ctx.Err()
}
