package campaign

import (
	"context"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// HandleBatchEvent credits the calls of a finished batch job to its campaign.
// Subscribe it to event.BatchCompleted.
func (s *Service) HandleBatchEvent(ev *event.CallEvent) {
	if ev == nil || ev.Type != event.BatchCompleted {
		return
	}
	id, _ := ev.Data["campaign_id"].(string)
	if id == "" {
		return
	}
	dialed, _ := ev.Data["dialed"].(int)

	ctx := context.Background()
	if _, err := s.RecordCalls(ctx, id, dialed, float64(dialed)*domain.EstimatedCallCost); err != nil {
		logger.Warn(ctx, "Failed to credit batch to campaign",
			zap.String("campaign_id", id),
			zap.Any("batch_id", ev.Data["batch_id"]),
			zap.Error(err))
	}
}
