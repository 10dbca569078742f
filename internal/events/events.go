package events

import (
	"time"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSource  = "survey-service"
	EventVersion = "1.0"
)

// Event types. The type doubles as the topic name.
const (
	UserRegistered    = "user.registered"
	UserLoggedIn      = "user.logged_in"
	SurveyPublished   = "survey.published"
	SurveyClosed      = "survey.closed"
	SurveyReopened    = "survey.reopened"
	SurveyDeleted     = "survey.deleted"
	ResponseSubmitted = "response.submitted"
)

// ===== EVENT PAYLOADS =====

type UserEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type SurveyEvent struct {
	SurveyID      string `json:"survey_id"`
	CreatorID     string `json:"creator_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
}

type ResponseEvent struct {
	ResponseID   string `json:"response_id"`
	SurveyID     string `json:"survey_id"`
	RespondentID string `json:"respondent_id,omitempty"`
	AnswerCount  int    `json:"answer_count"`
}
