package repository

import (
	"context"

	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/models"
)

// AuditTrail writes history records to Postgres and mirrors them to the
// search index when one is configured. Only the database write can fail.
type AuditTrail struct {
	history HistoryRepository
	index   HistoryIndex
	logger  logger.Logger
}

func NewAuditTrail(history HistoryRepository, index HistoryIndex, log logger.Logger) *AuditTrail {
	return &AuditTrail{history: history, index: index, logger: log}
}

func (a *AuditTrail) Record(ctx context.Context, userID, message, status string) (*models.NotificationHistory, error) {
	h, err := a.history.Create(ctx, userID, message, status)
	if err != nil {
		return nil, err
	}

	if a.index != nil {
		if err := a.index.Index(ctx, h); err != nil {
			a.logger.Warn("failed to mirror history record", map[string]interface{}{
				"history_id": h.ID,
				"error":      err,
			})
		}
	}
	return h, nil
}
