package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
)

type OTPPostgreSQL struct {
	db *gorm.DB
}

func NewOTPPostgreSQL(db *gorm.DB) repositories.OTPRepository {
	return &OTPPostgreSQL{db: db}
}

func (o *OTPPostgreSQL) Create(ctx context.Context, code *models.OTPCode) error {
	if err := o.db.WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

func (o *OTPPostgreSQL) LatestUnused(ctx context.Context, email string) (*models.OTPCode, error) {
	return o.latest(ctx, o.db.WithContext(ctx).
		Where("email = ? AND used = ?", email, false))
}

func (o *OTPPostgreSQL) LatestUnusedMatch(ctx context.Context, email, code string) (*models.OTPCode, error) {
	return o.latest(ctx, o.db.WithContext(ctx).
		Where("email = ? AND code = ? AND used = ?", email, code, false))
}

func (o *OTPPostgreSQL) LatestUsedValid(ctx context.Context, email string, now time.Time) (*models.OTPCode, error) {
	return o.latest(ctx, o.db.WithContext(ctx).
		Where("email = ? AND used = ? AND expires_at > ?", email, true, now))
}

func (o *OTPPostgreSQL) latest(ctx context.Context, query *gorm.DB) (*models.OTPCode, error) {
	var code models.OTPCode
	if err := query.Order("created_at DESC").First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get otp code: %w", err)
	}
	return &code, nil
}

func (o *OTPPostgreSQL) MarkUsed(ctx context.Context, id string) error {
	result := o.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ?", id).
		Update("used", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark otp code used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("otp code", id)
	}
	return nil
}

func (o *OTPPostgreSQL) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := o.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.OTPCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
