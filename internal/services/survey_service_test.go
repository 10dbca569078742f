package services

import (
	"context"
	"errors"
	"testing"

	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

func newSurveyFixture(t *testing.T) (*mockRepository, *events.MockEventPublisher, SurveyService) {
	t.Helper()

	repo := newMockRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	service := NewSurveyService(repo, logger, validator.New(), publisher)
	return repo, publisher, service
}

func TestSurveyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creator starts a draft with default settings", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		creator := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")

		result, err := service.Create(ctx, &CreateSurveyRequest{Title: "Employee Survey"}, creator.ID)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if result.Status != models.StatusDraft {
			t.Errorf("Expected draft status, got %s", result.Status)
		}
		if len(result.Questions) != 0 {
			t.Errorf("Expected no questions, got %d", len(result.Questions))
		}
		if result.Settings != models.DefaultSurveySettings() {
			t.Errorf("Expected default settings, got %+v", result.Settings)
		}
		if !result.CanEdit || !result.CanDelete {
			t.Error("Expected creator to manage their own survey")
		}
	})

	t.Run("respondent cannot create", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		respondent := seedUser(t, repo, models.RoleRespondent, "bob@example.com", "secret-password")

		_, err := service.Create(ctx, &CreateSurveyRequest{Title: "Nope"}, respondent.ID)
		if !IsPermissionError(err) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("unknown creator", func(t *testing.T) {
		_, _, service := newSurveyFixture(t)

		_, err := service.Create(ctx, &CreateSurveyRequest{Title: "Nope"}, "ghost")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestSurveyService_Ownership(t *testing.T) {
	ctx := context.Background()
	repo, _, service := newSurveyFixture(t)
	owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
	other := seedUser(t, repo, models.RoleCreator, "eve@example.com", "secret-password")
	admin := seedUser(t, repo, models.RoleAdmin, "root@example.com", "secret-password")
	survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

	t.Run("owner reads own survey", func(t *testing.T) {
		if _, err := service.GetByID(ctx, survey.ID, owner); err != nil {
			t.Errorf("Owner read failed: %v", err)
		}
	})

	t.Run("other creator is denied", func(t *testing.T) {
		if _, err := service.GetByID(ctx, survey.ID, other); !IsPermissionError(err) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("admin reads any survey", func(t *testing.T) {
		if _, err := service.GetByID(ctx, survey.ID, admin); err != nil {
			t.Errorf("Admin read failed: %v", err)
		}
	})

	t.Run("list scopes creators to their own surveys", func(t *testing.T) {
		seedSurvey(t, repo, other.ID, models.StatusDraft, nil)

		mine, err := service.List(ctx, repositories.SurveyFilters{}, owner)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if mine.Total != 1 {
			t.Errorf("Expected 1 survey for owner, got %d", mine.Total)
		}

		all, err := service.List(ctx, repositories.SurveyFilters{}, admin)
		if err != nil {
			t.Fatalf("Admin list failed: %v", err)
		}
		if all.Total != 2 {
			t.Errorf("Expected 2 surveys for admin, got %d", all.Total)
		}
	})

	t.Run("list read failure degrades to an empty page", func(t *testing.T) {
		repo.surveyListErr = errors.New("connection reset")
		defer func() { repo.surveyListErr = nil }()

		result, err := service.List(ctx, repositories.SurveyFilters{}, admin)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.Total != 0 || len(result.Surveys) != 0 {
			t.Errorf("Expected empty page, got total %d", result.Total)
		}
	})
}

func TestSurveyService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("empty title falls back to untitled", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

		result, err := service.Save(ctx, survey.ID, &SaveSurveyRequest{
			Title:     "   ",
			Questions: []models.Question{textQuestion("q1", false)},
		}, owner)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if result.Title != "Untitled Survey" {
			t.Errorf("Expected untitled fallback, got %q", result.Title)
		}
		if len(result.Questions) != 1 {
			t.Errorf("Expected 1 question, got %d", len(result.Questions))
		}
	})

	t.Run("questions without ids get one assigned", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

		result, err := service.Save(ctx, survey.ID, &SaveSurveyRequest{
			Title:     "Named",
			Questions: []models.Question{{Type: models.ShortText, Title: "Q"}},
		}, owner)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if result.Questions[0].ID == "" {
			t.Error("Expected generated question id")
		}
	})

	t.Run("invalid question content is reported with its index", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

		bad := models.Question{ID: "q1", Type: models.Scale}
		if err := bad.SetContent(models.ScaleContent{MinValue: 5, MaxValue: 1}); err != nil {
			t.Fatalf("SetContent failed: %v", err)
		}

		_, err := service.Save(ctx, survey.ID, &SaveSurveyRequest{Title: "Bad", Questions: []models.Question{bad}}, owner)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected ValidationErrors, got %v", err)
		}
	})
}

func TestSurveyService_QuestionManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("add choice question seeds default options", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

		q, err := service.AddQuestion(ctx, survey.ID, &CreateQuestionRequest{Type: models.MultipleChoice, Title: "Pick"}, owner)
		if err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
		content, err := q.ChoiceContent()
		if err != nil {
			t.Fatalf("ChoiceContent failed: %v", err)
		}
		if len(content.Options) != 3 || content.Options[0] != "Option 1" {
			t.Errorf("Expected default options, got %v", content.Options)
		}
	})

	t.Run("add likert question seeds rows and agreement scale", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

		q, err := service.AddQuestion(ctx, survey.ID, &CreateQuestionRequest{Type: models.Likert, Title: "Rate"}, owner)
		if err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}
		content, err := q.LikertContent()
		if err != nil {
			t.Fatalf("LikertContent failed: %v", err)
		}
		if len(content.Rows) != 2 || len(content.RowsTh) != 2 {
			t.Errorf("Expected two default rows, got %v / %v", content.Rows, content.RowsTh)
		}
		if len(content.Scale) != 5 || content.Scale[0] != "Strongly Disagree" || content.Scale[4] != "Strongly Agree" {
			t.Errorf("Expected agreement scale, got %v", content.Scale)
		}
		if len(content.ScaleTh) != 5 {
			t.Errorf("Expected Thai scale labels, got %v", content.ScaleTh)
		}
	})

	t.Run("add question after a given id", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{
			textQuestion("q1", false),
			textQuestion("q2", false),
		})

		added, err := service.AddQuestion(ctx, survey.ID, &CreateQuestionRequest{
			Type:    models.ShortText,
			Title:   "Inserted",
			AfterID: "q1",
		}, owner)
		if err != nil {
			t.Fatalf("AddQuestion failed: %v", err)
		}

		stored, _ := repo.Survey().GetByID(ctx, survey.ID)
		questions, _ := stored.QuestionList()
		if len(questions) != 3 || questions[1].ID != added.ID {
			t.Errorf("Expected new question at index 1, got %v", questionIDs(questions))
		}
	})

	t.Run("duplicate is a deep copy placed after the original", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		original := choiceQuestion(t, "q1", false)
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{
			original,
			textQuestion("q2", false),
		})

		copied, err := service.DuplicateQuestion(ctx, survey.ID, "q1", owner)
		if err != nil {
			t.Fatalf("DuplicateQuestion failed: %v", err)
		}
		if copied.ID == "q1" {
			t.Error("Expected a fresh id for the copy")
		}
		if copied.Title != original.Title {
			t.Errorf("Expected copied title %q, got %q", original.Title, copied.Title)
		}

		stored, _ := repo.Survey().GetByID(ctx, survey.ID)
		questions, _ := stored.QuestionList()
		if len(questions) != 3 || questions[1].ID != copied.ID {
			t.Errorf("Expected copy at index 1, got %v", questionIDs(questions))
		}
	})

	t.Run("reorder requires a full permutation", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{
			textQuestion("q1", false),
			textQuestion("q2", false),
			textQuestion("q3", false),
		})

		if err := service.ReorderQuestions(ctx, survey.ID, &ReorderRequest{QuestionIDs: []string{"q3", "q1", "q2"}}, owner); err != nil {
			t.Fatalf("Reorder failed: %v", err)
		}
		stored, _ := repo.Survey().GetByID(ctx, survey.ID)
		questions, _ := stored.QuestionList()
		if got := questionIDs(questions); got[0] != "q3" || got[1] != "q1" || got[2] != "q2" {
			t.Errorf("Unexpected order %v", got)
		}

		var verrs validator.ValidationErrors
		if err := service.ReorderQuestions(ctx, survey.ID, &ReorderRequest{QuestionIDs: []string{"q3", "q1"}}, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors for short list, got %v", err)
		}
		if err := service.ReorderQuestions(ctx, survey.ID, &ReorderRequest{QuestionIDs: []string{"q3", "q1", "ghost"}}, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors for unknown id, got %v", err)
		}
		if err := service.ReorderQuestions(ctx, survey.ID, &ReorderRequest{QuestionIDs: []string{"q3", "q1", "q1"}}, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors for duplicate id, got %v", err)
		}
	})

	t.Run("delete question", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{
			textQuestion("q1", false),
			textQuestion("q2", false),
		})

		if err := service.DeleteQuestion(ctx, survey.ID, "q1", owner); err != nil {
			t.Fatalf("DeleteQuestion failed: %v", err)
		}
		stored, _ := repo.Survey().GetByID(ctx, survey.ID)
		questions, _ := stored.QuestionList()
		if len(questions) != 1 || questions[0].ID != "q2" {
			t.Errorf("Expected only q2 left, got %v", questionIDs(questions))
		}
	})
}

func TestSurveyService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("publish requires an answerable question", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")

		empty := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)
		var verrs validator.ValidationErrors
		if err := service.Publish(ctx, empty.ID, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors for empty survey, got %v", err)
		}

		sectionsOnly := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{
			{ID: "s1", Type: models.Section, Title: "Part 1"},
		})
		if err := service.Publish(ctx, sectionsOnly.ID, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors for section-only survey, got %v", err)
		}
	})

	t.Run("publish close reopen", func(t *testing.T) {
		repo, publisher, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
		survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{textQuestion("q1", false)})

		if err := service.Publish(ctx, survey.ID, owner); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		stored, _ := repo.Survey().GetByID(ctx, survey.ID)
		if stored.Status != models.StatusPublished || stored.PublishedAt == nil {
			t.Errorf("Expected published with timestamp, got %s %v", stored.Status, stored.PublishedAt)
		}
		publishedAt := *stored.PublishedAt

		if err := service.Close(ctx, survey.ID, owner); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := service.Reopen(ctx, survey.ID, owner); err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}

		stored, _ = repo.Survey().GetByID(ctx, survey.ID)
		if stored.Status != models.StatusPublished {
			t.Errorf("Expected published after reopen, got %s", stored.Status)
		}
		if stored.PublishedAt == nil || !stored.PublishedAt.Equal(publishedAt) {
			t.Error("Expected reopen to keep the original publish time")
		}

		var types []string
		for _, e := range publisher.GetPublishedEvents() {
			types = append(types, e.Type)
		}
		want := []string{events.SurveyPublished, events.SurveyClosed, events.SurveyReopened}
		if len(types) != len(want) {
			t.Fatalf("Expected events %v, got %v", want, types)
		}
		for i := range want {
			if types[i] != want[i] {
				t.Errorf("Expected event %s at %d, got %s", want[i], i, types[i])
			}
		}
	})

	t.Run("invalid transitions", func(t *testing.T) {
		repo, _, service := newSurveyFixture(t)
		owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")

		draft := seedSurvey(t, repo, owner.ID, models.StatusDraft, []models.Question{textQuestion("q1", false)})
		var verrs validator.ValidationErrors
		if err := service.Close(ctx, draft.ID, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors closing a draft, got %v", err)
		}
		if err := service.Reopen(ctx, draft.ID, owner); !IsConflictError(err) {
			t.Errorf("Expected ConflictError reopening a draft, got %v", err)
		}

		published := seedSurvey(t, repo, owner.ID, models.StatusPublished, []models.Question{textQuestion("q1", false)})
		if err := service.Publish(ctx, published.ID, owner); !errors.As(err, &verrs) {
			t.Errorf("Expected ValidationErrors republishing, got %v", err)
		}
	})
}

func TestSurveyService_Delete(t *testing.T) {
	ctx := context.Background()
	repo, publisher, service := newSurveyFixture(t)
	owner := seedUser(t, repo, models.RoleCreator, "alice@example.com", "secret-password")
	survey := seedSurvey(t, repo, owner.ID, models.StatusDraft, nil)

	if err := service.Delete(ctx, survey.ID, owner); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Survey().GetByID(ctx, survey.ID); err == nil {
		t.Error("Expected survey removed")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.SurveyDeleted {
		t.Errorf("Expected one %s event, got %v", events.SurveyDeleted, published)
	}

	actions := repo.auditActions()
	if len(actions) != 1 || actions[0] != "survey_delete" {
		t.Errorf("Expected survey_delete audit entry, got %v", actions)
	}
}

func questionIDs(questions []models.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}
