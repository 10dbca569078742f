package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusPublished SurveyStatus = "published"
	StatusClosed    SurveyStatus = "closed"
)

type SurveySettings struct {
	AllowMultiple bool `json:"allow_multiple"`
	ShowProgress  bool `json:"show_progress"`
	Anonymous     bool `json:"anonymous"`
}

// DefaultSurveySettings matches the defaults applied to a fresh draft.
func DefaultSurveySettings() SurveySettings {
	return SurveySettings{AllowMultiple: false, ShowProgress: true, Anonymous: false}
}

type Survey struct {
	ID            string       `json:"id" gorm:"primaryKey;size:64"`
	Title         string       `json:"title" gorm:"size:300;index" validate:"max=300"`
	TitleTh       string       `json:"title_th" gorm:"size:300"`
	Description   string       `json:"description" gorm:"type:text"`
	DescriptionTh string       `json:"description_th" gorm:"type:text"`
	CreatorID     string       `json:"creator_id" gorm:"not null;index;size:64"`
	Status        SurveyStatus `json:"status" gorm:"not null;size:20;default:draft;index" validate:"omitempty,oneof=draft published closed"`

	// Questions and settings ride the survey row as JSONB documents; a
	// survey is edited and saved as one value.
	Questions datatypes.JSON `json:"-" gorm:"type:jsonb"`
	Settings  datatypes.JSON `json:"-" gorm:"type:jsonb"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

func (Survey) TableName() string {
	return "surveys"
}

// QuestionList decodes the ordered question list.
func (s *Survey) QuestionList() ([]Question, error) {
	if len(s.Questions) == 0 {
		return []Question{}, nil
	}
	var questions []Question
	if err := json.Unmarshal(s.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for survey %s: %w", s.ID, err)
	}
	return questions, nil
}

// SetQuestionList encodes the ordered question list onto the row.
func (s *Survey) SetQuestionList(questions []Question) error {
	if questions == nil {
		questions = []Question{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions for survey %s: %w", s.ID, err)
	}
	s.Questions = data
	return nil
}

// SettingsValue decodes survey settings, falling back to defaults.
func (s *Survey) SettingsValue() (SurveySettings, error) {
	if len(s.Settings) == 0 {
		return DefaultSurveySettings(), nil
	}
	var settings SurveySettings
	if err := json.Unmarshal(s.Settings, &settings); err != nil {
		return SurveySettings{}, fmt.Errorf("failed to decode settings for survey %s: %w", s.ID, err)
	}
	return settings, nil
}

// SetSettingsValue encodes settings onto the row.
func (s *Survey) SetSettingsValue(settings SurveySettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings for survey %s: %w", s.ID, err)
	}
	s.Settings = data
	return nil
}
