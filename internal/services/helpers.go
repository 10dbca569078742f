package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
)

// writeAudit records a user action. Audit failures are logged, never
// propagated; losing an audit row must not fail the operation.
func writeAudit(ctx context.Context, repo repositories.Repository, logger *slog.Logger, user *models.User, action string, metadata map[string]interface{}) {
	entry := &models.AuditLog{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserName:  user.Name,
		Action:    action,
		CreatedAt: time.Now(),
	}
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			entry.Metadata = data
		}
	}
	if err := repo.AuditLog().Create(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "Failed to write audit log", "error", err, "action", action, "user_id", user.ID)
	}
}

// pageOf converts limit/offset filters into 1-based page numbers for
// list responses.
func pageOf(limit, offset int) (page, size int) {
	if limit <= 0 {
		return 1, 0
	}
	return offset/limit + 1, limit
}
