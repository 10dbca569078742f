package services

import (
	"context"
	"time"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type LoginRequest = validator.LoginRequest
type SendCodeRequest = validator.SendCodeRequest
type VerifyCodeRequest = validator.VerifyCodeRequest
type RegisterRequest = validator.RegisterRequest
type CreateSurveyRequest = validator.SurveyCreateRequest
type UpdateSurveyMetaRequest = validator.SurveyMetaUpdateRequest
type SurveySettingsRequest = validator.SurveySettingsRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type ReorderRequest = validator.ReorderRequest
type SaveSurveyRequest = validator.SurveySaveRequest
type SubmitRequest = validator.SubmitRequest
type DraftSaveRequest = validator.DraftSaveRequest
type CreateUserRequest = validator.UserCreateRequest
type UpdateUserRequest = validator.UserUpdateRequest

// AuthResult is returned from login and registration.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type SurveyResponse struct {
	*models.Survey
	Questions     []models.Question     `json:"questions"`
	Settings      models.SurveySettings `json:"settings"`
	ResponseCount int64                 `json:"response_count"`
	CanEdit       bool                  `json:"can_edit"`
	CanDelete     bool                  `json:"can_delete"`
}

type SurveyListResponse struct {
	Surveys []*SurveyResponse `json:"surveys"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// PublicSurvey is the respondent-facing form. It omits creator-only
// fields and carries localized content as stored.
type PublicSurvey struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	TitleTh       string                `json:"title_th"`
	Description   string                `json:"description,omitempty"`
	DescriptionTh string                `json:"description_th,omitempty"`
	Questions     []models.Question     `json:"questions"`
	Settings      models.SurveySettings `json:"settings"`
}

type SubmitResult struct {
	ResponseID  string    `json:"response_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ResponseListResult struct {
	Responses []*models.SurveyResponse `json:"responses"`
	Total     int64                    `json:"total"`
}

// ===== RESULTS DTOs =====

// QuestionSummary aggregates all answers to one question.
type QuestionSummary struct {
	QuestionID string              `json:"question_id"`
	Type       models.QuestionType `json:"type"`
	Title      string              `json:"title"`
	Answered   int                 `json:"answered"`
	Skipped    int                 `json:"skipped"`

	// OptionCounts holds tallies for choice, yes_no and likert cell values.
	OptionCounts map[string]int `json:"option_counts,omitempty"`
	// RowCounts holds per-row tallies for likert questions.
	RowCounts map[string]map[string]int `json:"row_counts,omitempty"`
	// Average and bounds for numeric questions (rating, scale).
	Average *float64 `json:"average,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	// YesPercent is the rounded share of positive answers for yes_no.
	YesPercent *float64 `json:"yes_percent,omitempty"`
	// Texts holds free-text answers in submission order, capped for preview.
	Texts []string `json:"texts,omitempty"`
	// OtherTexts holds free-text "Other" entries for choice questions.
	OtherTexts []string `json:"other_texts,omitempty"`
}

type SurveySummary struct {
	SurveyID      string            `json:"survey_id"`
	Title         string            `json:"title"`
	ResponseCount int64             `json:"response_count"`
	AvgCompletion float64           `json:"avg_completion_seconds"`
	LastResponse  *time.Time        `json:"last_response_at,omitempty"`
	Questions     []QuestionSummary `json:"questions"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
}

type RoleCounts map[models.UserRole]int

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	Can(user *models.User, permission Permission) bool
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type OTPService interface {
	SendCode(ctx context.Context, req *SendCodeRequest) error
	VerifyCode(ctx context.Context, req *VerifyCodeRequest) error
	CompleteRegistration(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	CleanupExpiredCodes(ctx context.Context) (int64, error)
}

type SurveyService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateSurveyRequest, creatorID string) (*SurveyResponse, error)
	GetByID(ctx context.Context, id string, user *models.User) (*SurveyResponse, error)
	List(ctx context.Context, filters repositories.SurveyFilters, user *models.User) (*SurveyListResponse, error)
	UpdateMeta(ctx context.Context, id string, req *UpdateSurveyMetaRequest, user *models.User) (*SurveyResponse, error)
	Save(ctx context.Context, id string, req *SaveSurveyRequest, user *models.User) (*SurveyResponse, error)
	Delete(ctx context.Context, id string, user *models.User) error

	// Question management
	AddQuestion(ctx context.Context, surveyID string, req *CreateQuestionRequest, user *models.User) (*models.Question, error)
	UpdateQuestion(ctx context.Context, surveyID, questionID string, req *UpdateQuestionRequest, user *models.User) (*models.Question, error)
	DeleteQuestion(ctx context.Context, surveyID, questionID string, user *models.User) error
	DuplicateQuestion(ctx context.Context, surveyID, questionID string, user *models.User) (*models.Question, error)
	ReorderQuestions(ctx context.Context, surveyID string, req *ReorderRequest, user *models.User) error

	// Status management
	Publish(ctx context.Context, id string, user *models.User) error
	Close(ctx context.Context, id string, user *models.User) error
	Reopen(ctx context.Context, id string, user *models.User) error
}

type ResponseService interface {
	PublishedForm(ctx context.Context, surveyID string) (*PublicSurvey, error)
	Submit(ctx context.Context, surveyID string, req *SubmitRequest, respondent *models.User) (*SubmitResult, error)
	HasResponded(ctx context.Context, surveyID string, respondent *models.User) (bool, error)

	// Draft autosave
	SaveDraft(ctx context.Context, surveyID string, req *DraftSaveRequest) error
	GetDraft(ctx context.Context, surveyID, clientKey string) (models.AnswerSet, error)
	DiscardDraft(ctx context.Context, surveyID, clientKey string) error
}

type ResultsService interface {
	Summary(ctx context.Context, surveyID string, user *models.User) (*SurveySummary, error)
	Responses(ctx context.Context, surveyID string, filters repositories.ResponseFilters, user *models.User) (*ResponseListResult, error)
	ExportCSV(ctx context.Context, surveyID string, user *models.User) ([]byte, error)
	ExportXLSX(ctx context.Context, surveyID string, user *models.User) ([]byte, error)
}

type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest, actor *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string, actor *models.User) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters, actor *models.User) (*UserListResponse, error)
	Update(ctx context.Context, id string, req *UpdateUserRequest, actor *models.User) (*models.User, error)
	Delete(ctx context.Context, id string, actor *models.User) error
	CountByRole(ctx context.Context, actor *models.User) (RoleCounts, error)
	AuditLogs(ctx context.Context, filters repositories.AuditLogFilters, actor *models.User) ([]*models.AuditLog, int64, error)
}

// ServiceManager provides access to all services with lifecycle hooks.
type ServiceManager interface {
	Auth() AuthService
	OTP() OTPService
	Survey() SurveyService
	Response() ResponseService
	Results() ResultsService
	User() UserService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
