package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveybd/survey-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, repo *mockRepository, role models.UserRole, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := repo.User().Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func seedSurvey(t *testing.T, repo *mockRepository, creatorID string, status models.SurveyStatus, questions []models.Question) *models.Survey {
	t.Helper()

	survey := &models.Survey{
		ID:        uuid.New().String(),
		Title:     "Customer Feedback",
		CreatorID: creatorID,
		Status:    status,
	}
	if err := survey.SetQuestionList(questions); err != nil {
		t.Fatalf("Failed to encode questions: %v", err)
	}
	if err := survey.SetSettingsValue(models.DefaultSurveySettings()); err != nil {
		t.Fatalf("Failed to encode settings: %v", err)
	}
	if err := repo.Survey().Upsert(context.Background(), survey); err != nil {
		t.Fatalf("Failed to seed survey: %v", err)
	}
	return survey
}

func textQuestion(id string, required bool) models.Question {
	return models.Question{
		ID:       id,
		Type:     models.ShortText,
		Title:    "What do you think?",
		Required: required,
	}
}

func choiceQuestion(t *testing.T, id string, hasOther bool) models.Question {
	t.Helper()

	q := models.Question{
		ID:    id,
		Type:  models.MultipleChoice,
		Title: "Pick one",
	}
	if err := q.SetContent(models.ChoiceContent{
		Options:  []string{"Red", "Green", "Other"},
		HasOther: hasOther,
	}); err != nil {
		t.Fatalf("Failed to encode choice content: %v", err)
	}
	return q
}

func scaleQuestion(t *testing.T, id string, min, max int) models.Question {
	t.Helper()

	q := models.Question{
		ID:    id,
		Type:  models.Scale,
		Title: "Rate us",
	}
	if err := q.SetContent(models.ScaleContent{MinValue: min, MaxValue: max}); err != nil {
		t.Fatalf("Failed to encode scale content: %v", err)
	}
	return q
}

func likertQuestion(t *testing.T, id string, required bool, rows []string) models.Question {
	t.Helper()

	q := models.Question{
		ID:       id,
		Type:     models.Likert,
		Title:    "How much do you agree?",
		Required: required,
	}
	if err := q.SetContent(models.LikertContent{
		Rows:  rows,
		Scale: []string{"1", "2", "3", "4", "5"},
	}); err != nil {
		t.Fatalf("Failed to encode likert content: %v", err)
	}
	return q
}
