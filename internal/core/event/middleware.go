package event

import (
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// LoggingMiddleware logs every event handled in-process
func LoggingMiddleware(next EventHandler) EventHandler {
	return func(event *CallEvent) {
		start := time.Now()
		next(event)
		logger.Base().Debug("Event handled",
			zap.String("type", string(event.Type)),
			zap.String("call_id", event.CallID),
			zap.Duration("duration", time.Since(start)))
	}
}
