package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateSurveyCache invalidates all survey-related caches
func InvalidateSurveyCache(ctx context.Context, cm *CacheManager, surveyID, creatorID string) {
	SafeDelete(ctx, cm.Survey, fmt.Sprintf("id:%s", surveyID))
	SafeInvalidatePattern(ctx, cm.Survey, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Survey, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("survey:%s:*", surveyID))
}

// InvalidateResponseCache invalidates response counts and stats for a survey
func InvalidateResponseCache(ctx context.Context, cm *CacheManager, surveyID string) {
	SafeInvalidatePattern(ctx, cm.Response, fmt.Sprintf("survey:%s:*", surveyID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("survey:%s:*", surveyID))
}

// InvalidateUserCache invalidates a single user entry
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
	SafeInvalidatePattern(ctx, cm.User, "list:*")
	SafeInvalidatePattern(ctx, cm.User, "email:*")
}
