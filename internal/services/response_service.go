package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surveybd/survey-service/internal/cache"
	"github.com/surveybd/survey-service/internal/events"
	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
	"github.com/surveybd/survey-service/internal/validator"
)

const anonymousName = "Anonymous"

// otherPrefix marks an "Other" choice carrying free text.
const otherPrefix = "Other: "

type responseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	drafts    *cache.DraftStore
}

func NewResponseService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, drafts *cache.DraftStore) ResponseService {
	return &responseService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		drafts:    drafts,
	}
}

// PublishedForm returns the respondent-facing view of a survey. Drafts
// and closed surveys are not served.
func (s *responseService) PublishedForm(ctx context.Context, surveyID string) (*PublicSurvey, error) {
	survey, err := s.getPublished(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}
	settings, err := survey.SettingsValue()
	if err != nil {
		return nil, err
	}

	return &PublicSurvey{
		ID:            survey.ID,
		Title:         survey.Title,
		TitleTh:       survey.TitleTh,
		Description:   survey.Description,
		DescriptionTh: survey.DescriptionTh,
		Questions:     questions,
		Settings:      settings,
	}, nil
}

func (s *responseService) Submit(ctx context.Context, surveyID string, req *SubmitRequest, respondent *models.User) (*SubmitResult, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	survey, err := s.getPublished(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	questions, err := survey.QuestionList()
	if err != nil {
		return nil, err
	}
	settings, err := survey.SettingsValue()
	if err != nil {
		return nil, err
	}

	answers := mergeOtherTexts(req.Answers, req.Others, questions)

	if errs := validateAnswers(questions, answers); len(errs) > 0 {
		return nil, errs
	}

	// Stored answer keys stay a subset of the survey's question ids.
	answers = restrictToQuestions(answers, questions)

	response := &models.SurveyResponse{
		ID:             uuid.New().String(),
		SurveyID:       surveyID,
		RespondentName: anonymousName,
		SubmittedAt:    time.Now(),
		CompletionTime: req.CompletionTime,
	}
	if !settings.Anonymous {
		if respondent != nil {
			id := respondent.ID
			response.RespondentID = &id
			response.RespondentName = respondent.Name
		}
		if name := strings.TrimSpace(req.RespondentName); name != "" {
			response.RespondentName = name
		}
	}
	if err := response.SetAnswerValues(answers); err != nil {
		return nil, err
	}

	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, err
	}

	// A submitted response supersedes any saved draft.
	if req.ClientKey != "" {
		if err := s.drafts.Discard(ctx, surveyID, req.ClientKey); err != nil {
			s.logger.WarnContext(ctx, "Failed to discard draft after submit", "error", err, "survey_id", surveyID)
		}
	}

	respondentID := ""
	if response.RespondentID != nil {
		respondentID = *response.RespondentID
	}
	if err := s.publisher.Publish(ctx, events.ResponseSubmitted, events.ResponseEvent{
		ResponseID:   response.ID,
		SurveyID:     surveyID,
		RespondentID: respondentID,
		AnswerCount:  len(answers),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish response event", "error", err, "survey_id", surveyID)
	}

	s.logger.InfoContext(ctx, "Response submitted", "survey_id", surveyID, "response_id", response.ID)

	return &SubmitResult{ResponseID: response.ID, SubmittedAt: response.SubmittedAt}, nil
}

// HasResponded tells the UI whether this user already answered. The
// allow_multiple setting is advisory; a repeat submission is never
// rejected here.
func (s *responseService) HasResponded(ctx context.Context, surveyID string, respondent *models.User) (bool, error) {
	if respondent == nil {
		return false, nil
	}
	return s.repo.Response().HasResponded(ctx, surveyID, respondent.ID)
}

// ===== DRAFT AUTOSAVE =====

func (s *responseService) SaveDraft(ctx context.Context, surveyID string, req *DraftSaveRequest) error {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return errs
	}

	if _, err := s.getPublished(ctx, surveyID); err != nil {
		return err
	}

	if err := s.drafts.Save(ctx, surveyID, req.ClientKey, req.Answers); err != nil {
		if errors.Is(err, cache.ErrCacheNotAvailable) {
			// Autosave is best effort without redis.
			return nil
		}
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *responseService) GetDraft(ctx context.Context, surveyID, clientKey string) (models.AnswerSet, error) {
	var answers models.AnswerSet
	err := s.drafts.Get(ctx, surveyID, clientKey, &answers)
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) || errors.Is(err, cache.ErrCacheNotAvailable) {
			return models.AnswerSet{}, nil
		}
		return nil, err
	}
	return answers, nil
}

func (s *responseService) DiscardDraft(ctx context.Context, surveyID, clientKey string) error {
	return s.drafts.Discard(ctx, surveyID, clientKey)
}

// ===== HELPERS =====

func (s *responseService) getPublished(ctx context.Context, surveyID string) (*models.Survey, error) {
	survey, err := s.repo.Survey().GetByID(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if survey.Status != models.StatusPublished {
		return nil, ErrSurveyNotAcceptingResponses
	}
	return survey, nil
}

// mergeOtherTexts folds free-text "Other" entries into choice answers so
// they persist as ordinary values.
func mergeOtherTexts(answers models.AnswerSet, others map[string]string, questions []models.Question) models.AnswerSet {
	if len(others) == 0 {
		return answers
	}

	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	merged := make(models.AnswerSet, len(answers))
	for k, v := range answers {
		merged[k] = v
	}

	for qID, text := range others {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		q, ok := byID[qID]
		if !ok || !models.IsChoiceType(q.Type) {
			continue
		}

		ans := merged[qID]
		switch ans.Kind {
		case models.AnswerText:
			if ans.Text == "Other" {
				merged[qID] = models.TextAnswer(otherPrefix + text)
			}
		case models.AnswerList:
			list := make([]string, len(ans.List))
			copy(list, ans.List)
			for i, item := range list {
				if item == "Other" {
					list[i] = otherPrefix + text
				}
			}
			merged[qID] = models.ListAnswer(list)
		}
	}

	return merged
}

// restrictToQuestions drops answer keys that do not match a question on
// the survey, so a stale or hand-built payload cannot persist strays.
func restrictToQuestions(answers models.AnswerSet, questions []models.Question) models.AnswerSet {
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	kept := make(models.AnswerSet, len(answers))
	for id, ans := range answers {
		if known[id] {
			kept[id] = ans
		}
	}
	return kept
}

// validateAnswers enforces required questions and basic shape per type.
func validateAnswers(questions []models.Question, answers models.AnswerSet) validator.ValidationErrors {
	var errs validator.ValidationErrors

	for _, q := range questions {
		if q.Type == models.Section {
			continue
		}

		ans, present := answers[q.ID]
		if !present || ans.IsMissing() {
			if q.Required {
				errs = append(errs, validator.ValidationError{
					Field:   q.ID,
					Message: "answer is required",
					Rule:    "required",
				})
			}
			continue
		}

		if e := checkAnswerShape(&q, ans); e != nil {
			errs = append(errs, *e)
		}
	}

	return errs
}

func checkAnswerShape(q *models.Question, ans models.AnswerValue) *validator.ValidationError {
	wrongShape := func(expected string) *validator.ValidationError {
		return &validator.ValidationError{
			Field:   q.ID,
			Message: fmt.Sprintf("answer must be %s", expected),
			Rule:    "answer_shape",
		}
	}

	switch q.Type {
	case models.Checkboxes:
		if ans.Kind != models.AnswerList {
			return wrongShape("a list of selections")
		}
	case models.MultipleChoice, models.Dropdown, models.ShortText, models.LongText, models.Date, models.YesNo:
		if ans.Kind != models.AnswerText {
			return wrongShape("text")
		}
	case models.Rating, models.Scale:
		if ans.Kind != models.AnswerNumber {
			return wrongShape("a number")
		}
		if content, err := q.ScaleContent(); err == nil {
			if ans.Number < float64(content.MinValue) || ans.Number > float64(content.MaxValue) {
				return &validator.ValidationError{
					Field:   q.ID,
					Message: fmt.Sprintf("answer must be between %d and %d", content.MinValue, content.MaxValue),
					Value:   ans.Number,
					Rule:    "answer_range",
				}
			}
		}
	case models.Likert:
		if ans.Kind != models.AnswerTable {
			return wrongShape("a row-to-column table")
		}
		if content, err := q.LikertContent(); err == nil && q.Required {
			for _, row := range content.Rows {
				if ans.Table[row] == "" {
					return &validator.ValidationError{
						Field:   q.ID,
						Message: fmt.Sprintf("row %q requires an answer", row),
						Rule:    "required",
					}
				}
			}
		}
	}

	return nil
}
