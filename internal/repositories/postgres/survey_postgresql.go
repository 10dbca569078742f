package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/surveybd/survey-service/internal/cache"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
)

type SurveyPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSurveyPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SurveyRepository {
	return &SurveyPostgreSQL{db: db, cacheManager: cacheManager}
}

// Upsert writes the whole survey row; the builder saves a survey as one
// value, so last writer wins per record.
func (s *SurveyPostgreSQL) Upsert(ctx context.Context, survey *models.Survey) error {
	if err := s.db.WithContext(ctx).Save(survey).Error; err != nil {
		return fmt.Errorf("failed to save survey: %w", err)
	}

	cache.InvalidateSurveyCache(ctx, s.cacheManager, survey.ID, survey.CreatorID)
	return nil
}

func (s *SurveyPostgreSQL) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var survey models.Survey

	err := s.cacheManager.Survey.CacheOrExecute(ctx, cacheKey, &survey, cache.SurveyCacheConfig.TTL, func() (interface{}, error) {
		var dbSurvey models.Survey
		if err := s.db.WithContext(ctx).First(&dbSurvey, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.NewNotFoundError("survey", id)
			}
			return nil, fmt.Errorf("failed to get survey: %w", err)
		}
		return &dbSurvey, nil
	})
	if err != nil {
		return nil, err
	}

	return &survey, nil
}

// Delete removes the survey and every response referencing it. The two
// deletes run inside one transaction so a crash cannot orphan responses.
func (s *SurveyPostgreSQL) Delete(ctx context.Context, id string) error {
	var creatorID string
	if err := s.db.WithContext(ctx).Model(&models.Survey{}).
		Select("creator_id").
		Where("id = ?", id).
		Scan(&creatorID).Error; err != nil {
		return fmt.Errorf("failed to get survey before delete: %w", err)
	}
	if creatorID == "" {
		return repositories.NewNotFoundError("survey", id)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).Delete(&models.SurveyResponse{}).Error; err != nil {
			return fmt.Errorf("failed to delete survey responses: %w", err)
		}
		if err := tx.Delete(&models.Survey{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete survey: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateSurveyCache(ctx, s.cacheManager, id, creatorID)
	cache.InvalidateResponseCache(ctx, s.cacheManager, id)
	return nil
}

func (s *SurveyPostgreSQL) List(ctx context.Context, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Survey{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatorID != nil {
		query = query.Where("creator_id = ?", *filters.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count surveys: %w", err)
	}

	query = query.Order(surveyOrderClause(filters))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var surveys []*models.Survey
	if err := query.Find(&surveys).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list surveys: %w", err)
	}

	return surveys, total, nil
}

func (s *SurveyPostgreSQL) GetByCreator(ctx context.Context, creatorID string, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	filters.CreatorID = &creatorID
	return s.List(ctx, filters)
}

func surveyOrderClause(filters repositories.SurveyFilters) string {
	column := "updated_at"
	switch filters.SortBy {
	case "created_at", "updated_at", "title":
		column = filters.SortBy
	}
	direction := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}
