package repositories

import (
	"context"
	"time"

	"github.com/surveybd/survey-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type SurveyFilters struct {
	Status    *models.SurveyStatus `json:"status"`
	CreatorID *string              `json:"creator_id"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "updated_at", "title"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

type ResponseFilters struct {
	SurveyID     *string    `json:"survey_id"`
	RespondentID *string    `json:"respondent_id"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

type UserFilters struct {
	Role     *models.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
	Query    *string          `json:"query"` // matches name or email
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type AuditLogFilters struct {
	UserID *string `json:"user_id"`
	Action *string `json:"action"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ===== SUB-REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type SurveyRepository interface {
	Upsert(ctx context.Context, survey *models.Survey) error
	GetByID(ctx context.Context, id string) (*models.Survey, error)
	Delete(ctx context.Context, id string) error // cascades to responses
	List(ctx context.Context, filters SurveyFilters) ([]*models.Survey, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters SurveyFilters) ([]*models.Survey, int64, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, response *models.SurveyResponse) error
	GetByID(ctx context.Context, id string) (*models.SurveyResponse, error)
	GetBySurvey(ctx context.Context, surveyID string, filters ResponseFilters) ([]*models.SurveyResponse, int64, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)
	HasResponded(ctx context.Context, surveyID, respondentID string) (bool, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type OTPRepository interface {
	Create(ctx context.Context, code *models.OTPCode) error
	// LatestUnused returns the most recently issued unused code for the email.
	LatestUnused(ctx context.Context, email string) (*models.OTPCode, error)
	// LatestUnusedMatch returns the most recent unused code matching email+code.
	LatestUnusedMatch(ctx context.Context, email, code string) (*models.OTPCode, error)
	// LatestUsedValid returns the most recent used code for the email that has
	// not expired; registration completion requires one.
	LatestUsedValid(ctx context.Context, email string, now time.Time) (*models.OTPCode, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filters AuditLogFilters) ([]*models.AuditLog, int64, error)
}

// ===== AGGREGATE =====

// Repository bundles the per-collection repositories behind one handle.
type Repository interface {
	User() UserRepository
	Survey() SurveyRepository
	Response() ResponseRepository
	Session() SessionRepository
	OTP() OTPRepository
	AuditLog() AuditLogRepository

	// WithTransaction runs fn against a Repository bound to one transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
