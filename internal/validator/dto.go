package validator

import (
	"encoding/json"

	"github.com/surveybd/survey-service/internal/models"
)

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// SendCodeRequest asks for a verification code to be emailed.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest checks a previously emailed code.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// RegisterRequest completes registration after email verification.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SurveyCreateRequest creates a new survey shell for the builder.
type SurveyCreateRequest struct {
	Title         string                 `json:"title" validate:"omitempty,survey_title"`
	Description   *string                `json:"description" validate:"omitempty,survey_description"`
	DescriptionTh *string                `json:"description_th" validate:"omitempty,survey_description"`
	Settings      *SurveySettingsRequest `json:"settings"`
}

// SurveyMetaUpdateRequest updates title/description/settings without
// touching the question list.
type SurveyMetaUpdateRequest struct {
	Title         *string                `json:"title" validate:"omitempty,survey_title"`
	TitleTh       *string                `json:"title_th" validate:"omitempty,survey_title"`
	Description   *string                `json:"description" validate:"omitempty,survey_description"`
	DescriptionTh *string                `json:"description_th" validate:"omitempty,survey_description"`
	Settings      *SurveySettingsRequest `json:"settings"`
}

// SurveySettingsRequest carries the optional per-survey toggles.
type SurveySettingsRequest struct {
	AllowMultiple *bool `json:"allow_multiple"`
	ShowProgress  *bool `json:"show_progress"`
	Anonymous     *bool `json:"anonymous"`
}

// QuestionCreateRequest adds a question of a given type; content fields
// that the type does not use are ignored.
type QuestionCreateRequest struct {
	Type          models.QuestionType `json:"type" validate:"required,question_type"`
	Title         string              `json:"title" validate:"omitempty,max=2000"`
	TitleTh       string              `json:"title_th" validate:"omitempty,max=2000"`
	Description   *string             `json:"description" validate:"omitempty,max=2000"`
	DescriptionTh *string             `json:"description_th" validate:"omitempty,max=2000"`
	Required      bool                `json:"required"`
	Content       json.RawMessage     `json:"content"`
	// AfterID places the new question after an existing one; empty appends.
	AfterID string `json:"after_id"`
}

// QuestionUpdateRequest edits an existing question in place.
type QuestionUpdateRequest struct {
	Title         *string         `json:"title" validate:"omitempty,max=2000"`
	TitleTh       *string         `json:"title_th" validate:"omitempty,max=2000"`
	Description   *string         `json:"description" validate:"omitempty,max=2000"`
	DescriptionTh *string         `json:"description_th" validate:"omitempty,max=2000"`
	Required      *bool           `json:"required"`
	Content       json.RawMessage `json:"content"`
}

// ReorderRequest replaces the question ordering with the given ID list.
type ReorderRequest struct {
	QuestionIDs []string `json:"question_ids" validate:"required,min=1"`
}

// SurveySaveRequest persists the whole builder state in one call.
type SurveySaveRequest struct {
	Title         string                 `json:"title" validate:"omitempty,survey_title"`
	TitleTh       string                 `json:"title_th" validate:"omitempty,survey_title"`
	Description   *string                `json:"description" validate:"omitempty,survey_description"`
	DescriptionTh *string                `json:"description_th" validate:"omitempty,survey_description"`
	Questions     []models.Question      `json:"questions"`
	Settings      *SurveySettingsRequest `json:"settings"`
}

// SubmitRequest delivers a filled-out response.
type SubmitRequest struct {
	RespondentName string            `json:"respondent_name" validate:"omitempty,max=100"`
	Answers        models.AnswerSet  `json:"answers" validate:"required"`
	Others         map[string]string `json:"others"`
	CompletionTime int               `json:"completion_time" validate:"omitempty,min=0"`
	// ClientKey identifies the browser for draft cleanup.
	ClientKey string `json:"client_key" validate:"omitempty,max=128"`
}

// DraftSaveRequest autosaves partial answers.
type DraftSaveRequest struct {
	ClientKey string           `json:"client_key" validate:"required,max=128"`
	Answers   models.AnswerSet `json:"answers" validate:"required"`
}

// UserCreateRequest lets an admin provision an account directly.
type UserCreateRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required,min=1,max=100"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

// UserUpdateRequest edits an existing account.
type UserUpdateRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string          `json:"email" validate:"omitempty,email"`
	Role     *models.UserRole `json:"role" validate:"omitempty,user_role"`
	IsActive *bool            `json:"is_active"`
	Password *string          `json:"password" validate:"omitempty,min=8,max=72"`
}
