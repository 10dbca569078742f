package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/surveybd/survey-service/internal/cache"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
)

type ResponsePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewResponsePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.SurveyResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}

	cache.InvalidateResponseCache(ctx, r.cacheManager, response.SurveyID)
	return nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, id string) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	if err := r.db.WithContext(ctx).First(&response, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("response", id)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) GetBySurvey(ctx context.Context, surveyID string, filters repositories.ResponseFilters) ([]*models.SurveyResponse, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SurveyResponse{}).Where("survey_id = ?", surveyID)

	if filters.RespondentID != nil {
		query = query.Where("respondent_id = ?", *filters.RespondentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	query = query.Order("submitted_at ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var responses []*models.SurveyResponse
	if err := query.Find(&responses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}

	return responses, total, nil
}

func (r *ResponsePostgreSQL) DeleteBySurvey(ctx context.Context, surveyID string) error {
	if err := r.db.WithContext(ctx).Where("survey_id = ?", surveyID).Delete(&models.SurveyResponse{}).Error; err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}

	cache.InvalidateResponseCache(ctx, r.cacheManager, surveyID)
	return nil
}

func (r *ResponsePostgreSQL) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	cacheKey := fmt.Sprintf("count:%s", surveyID)
	var count int64

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &count, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbCount int64
		if err := r.db.WithContext(ctx).Model(&models.SurveyResponse{}).
			Where("survey_id = ?", surveyID).
			Count(&dbCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count responses: %w", err)
		}
		return &dbCount, nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ResponsePostgreSQL) HasResponded(ctx context.Context, surveyID, respondentID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SurveyResponse{}).
		Where("survey_id = ? AND respondent_id = ?", surveyID, respondentID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check responses: %w", err)
	}
	return count > 0, nil
}
